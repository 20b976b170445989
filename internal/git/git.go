// Package git wraps the git binary for the branch and commit operations stud
// performs on the working repository.
package git

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/danielolaszy/stud/internal/logging"
)

var (
	// ErrNotRepository is returned when the directory is not inside a git work tree.
	ErrNotRepository = errors.New("not a git repository")
	// ErrDirtyWorkingTree is returned when an operation needs a clean tree.
	ErrDirtyWorkingTree = errors.New("working tree has uncommitted changes")
	// ErrNothingToCommit is returned when the index has no staged changes.
	ErrNothingToCommit = errors.New("nothing to commit")
)

// Commit is a single commit as listed by git log.
type Commit struct {
	SHA     string
	Subject string
}

// Branch is a local branch.
type Branch struct {
	Name    string
	Current bool
}

// PushOptions controls Push.
type PushOptions struct {
	Remote         string
	Branch         string
	SetUpstream    bool
	ForceWithLease bool
}

// Repository runs git commands inside one work tree.
type Repository struct {
	dir string
}

// Open returns the repository containing dir. An empty dir means the current
// working directory.
func Open(ctx context.Context, dir string) (*Repository, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, fmt.Errorf("git executable not found: %w", err)
	}

	r := &Repository{dir: dir}
	top, err := r.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, displayDir(dir))
	}
	r.dir = top
	return r, nil
}

// Dir returns the top-level directory of the work tree.
func (r *Repository) Dir() string {
	return r.dir
}

func displayDir(dir string) string {
	if dir != "" {
		return dir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func (r *Repository) run(ctx context.Context, args ...string) (string, error) {
	return r.runEnv(ctx, nil, args...)
}

// runEnv executes git with extra environment variables and returns trimmed
// stdout. Failures carry git's stderr.
func (r *Repository) runEnv(ctx context.Context, env []string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.Debug("running git", "args", strings.Join(args, " "), "dir", r.dir)

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("git %s failed: %w", args[0], err)
		}
		return "", fmt.Errorf("git %s failed: %s: %w", args[0], msg, err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// exitCode reports the exit status of a failed git command, or -1.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// CurrentBranch returns the checked out branch name.
func (r *Repository) CurrentBranch(ctx context.Context) (string, error) {
	name, err := r.run(ctx, "symbolic-ref", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to determine current branch: %w", err)
	}
	return name, nil
}

// LocalBranchExists reports whether refs/heads/name exists.
func (r *Repository) LocalBranchExists(ctx context.Context, name string) (bool, error) {
	_, err := r.run(ctx, "show-ref", "--verify", "--quiet", "refs/heads/"+name)
	if err == nil {
		return true, nil
	}
	if exitCode(err) == 1 {
		return false, nil
	}
	return false, err
}

// RemoteBranchExists asks the remote whether it has branch name.
func (r *Repository) RemoteBranchExists(ctx context.Context, remote, name string) (bool, error) {
	out, err := r.run(ctx, "ls-remote", "--heads", remote, name)
	if err != nil {
		return false, fmt.Errorf("failed to query remote %s: %w", remote, err)
	}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[1] == "refs/heads/"+name {
			return true, nil
		}
	}
	return false, nil
}

// Fetch updates remote-tracking refs. With no refspecs the remote's default
// refspec is fetched.
func (r *Repository) Fetch(ctx context.Context, remote string, refspecs ...string) error {
	args := append([]string{"fetch", "--quiet", remote}, refspecs...)
	if _, err := r.run(ctx, args...); err != nil {
		return fmt.Errorf("failed to fetch from %s: %w", remote, err)
	}
	return nil
}

// CreateBranch creates name at start and checks it out.
func (r *Repository) CreateBranch(ctx context.Context, name, start string) error {
	if _, err := r.run(ctx, "checkout", "--quiet", "--no-track", "-b", name, start); err != nil {
		return fmt.Errorf("failed to create branch %s: %w", name, err)
	}
	return nil
}

// Checkout switches to an existing local branch.
func (r *Repository) Checkout(ctx context.Context, name string) error {
	if _, err := r.run(ctx, "checkout", "--quiet", name); err != nil {
		return fmt.Errorf("failed to checkout %s: %w", name, err)
	}
	return nil
}

// CheckoutTracking creates a local branch tracking remote/name and checks it out.
func (r *Repository) CheckoutTracking(ctx context.Context, remote, name string) error {
	if _, err := r.run(ctx, "checkout", "--quiet", "--track", "-b", name, remote+"/"+name); err != nil {
		return fmt.Errorf("failed to checkout %s/%s: %w", remote, name, err)
	}
	return nil
}

// RenameBranch renames a local branch.
func (r *Repository) RenameBranch(ctx context.Context, oldName, newName string) error {
	if _, err := r.run(ctx, "branch", "-m", oldName, newName); err != nil {
		return fmt.Errorf("failed to rename branch %s to %s: %w", oldName, newName, err)
	}
	return nil
}

// DeleteRemoteBranch removes name from the remote.
func (r *Repository) DeleteRemoteBranch(ctx context.Context, remote, name string) error {
	if _, err := r.run(ctx, "push", "--quiet", remote, "--delete", name); err != nil {
		return fmt.Errorf("failed to delete %s from %s: %w", name, remote, err)
	}
	return nil
}

// Branches lists local branches sorted by name.
func (r *Repository) Branches(ctx context.Context) ([]Branch, error) {
	out, err := r.run(ctx, "for-each-ref", "--sort=refname", "--format=%(refname:short)%00%(HEAD)", "refs/heads")
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}

	var branches []Branch
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		name, head, ok := strings.Cut(scanner.Text(), "\x00")
		if !ok || name == "" {
			continue
		}
		branches = append(branches, Branch{
			Name:    name,
			Current: strings.TrimSpace(head) == "*",
		})
	}
	return branches, scanner.Err()
}

// StageAll stages every change in the work tree, including deletions and
// untracked files.
func (r *Repository) StageAll(ctx context.Context) error {
	if _, err := r.run(ctx, "add", "--all"); err != nil {
		return fmt.Errorf("failed to stage changes: %w", err)
	}
	return nil
}

// HasStagedChanges reports whether the index differs from HEAD.
func (r *Repository) HasStagedChanges(ctx context.Context) (bool, error) {
	_, err := r.run(ctx, "diff", "--cached", "--quiet")
	if err == nil {
		return false, nil
	}
	if exitCode(err) == 1 {
		return true, nil
	}
	return false, fmt.Errorf("failed to inspect staged changes: %w", err)
}

// IsClean reports whether there are no staged, unstaged or untracked changes.
func (r *Repository) IsClean(ctx context.Context) (bool, error) {
	out, err := r.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("failed to read status: %w", err)
	}
	return out == "", nil
}

// Commit records the staged changes with message.
func (r *Repository) Commit(ctx context.Context, message string) error {
	staged, err := r.HasStagedChanges(ctx)
	if err != nil {
		return err
	}
	if !staged {
		return ErrNothingToCommit
	}
	if _, err := r.run(ctx, "commit", "--quiet", "--message", message); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// CommitFixup records the staged changes as a fixup of sha.
func (r *Repository) CommitFixup(ctx context.Context, sha string) error {
	staged, err := r.HasStagedChanges(ctx)
	if err != nil {
		return err
	}
	if !staged {
		return ErrNothingToCommit
	}
	if _, err := r.run(ctx, "commit", "--quiet", "--fixup="+sha); err != nil {
		return fmt.Errorf("failed to commit fixup of %s: %w", sha, err)
	}
	return nil
}

// MergeBase returns the best common ancestor of HEAD and ref.
func (r *Repository) MergeBase(ctx context.Context, ref string) (string, error) {
	sha, err := r.run(ctx, "merge-base", "HEAD", ref)
	if err != nil {
		return "", fmt.Errorf("failed to find merge base with %s: %w", ref, err)
	}
	return sha, nil
}

// CommitsSince lists commits reachable from HEAD but not from base, oldest first.
func (r *Repository) CommitsSince(ctx context.Context, base string) ([]Commit, error) {
	return r.CommitsBetween(ctx, base, "HEAD")
}

// CommitsBetween lists commits reachable from head but not from base, oldest
// first. An empty base lists the whole history of head.
func (r *Repository) CommitsBetween(ctx context.Context, base, head string) ([]Commit, error) {
	rangeSpec := head
	if base != "" {
		rangeSpec = base + ".." + head
	}
	out, err := r.run(ctx, "log", "--reverse", "--format=%H%x00%s", rangeSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits %s: %w", rangeSpec, err)
	}
	return parseLog(out), nil
}

func parseLog(out string) []Commit {
	var commits []Commit
	for _, line := range strings.Split(out, "\n") {
		sha, subject, ok := strings.Cut(line, "\x00")
		if !ok {
			continue
		}
		commits = append(commits, Commit{SHA: sha, Subject: subject})
	}
	return commits
}

// AutosquashRebase rebases onto base, folding fixup commits into their
// targets without opening an editor.
func (r *Repository) AutosquashRebase(ctx context.Context, base string) error {
	env := []string{"GIT_SEQUENCE_EDITOR=true", "GIT_EDITOR=true"}
	if _, err := r.runEnv(ctx, env, "rebase", "--quiet", "--interactive", "--autosquash", base); err != nil {
		// Leave the repository usable when the rebase stops on a conflict.
		if _, abortErr := r.run(ctx, "rebase", "--abort"); abortErr != nil {
			logging.Warn("failed to abort rebase", "error", abortErr)
		}
		return fmt.Errorf("failed to rebase onto %s: %w", base, err)
	}
	return nil
}

// Push pushes a branch to a remote.
func (r *Repository) Push(ctx context.Context, opts PushOptions) error {
	args := []string{"push", "--quiet"}
	if opts.SetUpstream {
		args = append(args, "--set-upstream")
	}
	if opts.ForceWithLease {
		args = append(args, "--force-with-lease")
	}
	args = append(args, opts.Remote, opts.Branch)

	if _, err := r.run(ctx, args...); err != nil {
		return fmt.Errorf("failed to push %s to %s: %w", opts.Branch, opts.Remote, err)
	}
	return nil
}

// RemoteURL returns the fetch URL of remote.
func (r *Repository) RemoteURL(ctx context.Context, remote string) (string, error) {
	url, err := r.run(ctx, "remote", "get-url", remote)
	if err != nil {
		return "", fmt.Errorf("failed to read url of remote %s: %w", remote, err)
	}
	return url, nil
}

// LatestTag returns the most recent tag reachable from ref, or "" when there
// is none.
func (r *Repository) LatestTag(ctx context.Context, ref string) (string, error) {
	tag, err := r.runEnv(ctx, []string{"LC_ALL=C"}, "describe", "--tags", "--abbrev=0", ref)
	if err != nil {
		if isNoTagError(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to describe %s: %w", ref, err)
	}
	return tag, nil
}

// isNoTagError reports whether describe failed only because no tag is
// reachable. describe exits 128 for bad refs as well.
func isNoTagError(err error) bool {
	if exitCode(err) != 128 {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "No names found") || strings.Contains(msg, "No tags can describe")
}
