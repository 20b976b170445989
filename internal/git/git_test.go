package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv isolates git from the host configuration.
var testEnv = []string{
	"GIT_CONFIG_GLOBAL=/dev/null",
	"GIT_CONFIG_NOSYSTEM=1",
	"GIT_AUTHOR_NAME=Stud Test",
	"GIT_AUTHOR_EMAIL=stud@example.com",
	"GIT_COMMITTER_NAME=Stud Test",
	"GIT_COMMITTER_EMAIL=stud@example.com",
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}
	for _, kv := range testEnv {
		name, value, _ := strings.Cut(kv, "=")
		t.Setenv(name, value)
	}
}

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// newTestRepository creates a work tree with one commit on main and a bare
// origin that has main pushed.
func newTestRepository(t *testing.T) (*Repository, string) {
	t.Helper()
	requireGit(t)

	root := t.TempDir()
	origin := filepath.Join(root, "origin.git")
	work := filepath.Join(root, "work")
	require.NoError(t, os.MkdirAll(work, 0o755))

	gitCmd(t, root, "init", "--quiet", "--bare", origin)
	gitCmd(t, origin, "symbolic-ref", "HEAD", "refs/heads/main")
	gitCmd(t, work, "init", "--quiet")
	gitCmd(t, work, "checkout", "--quiet", "-b", "main")
	writeFile(t, work, "README.md", "hello\n")
	gitCmd(t, work, "add", "README.md")
	gitCmd(t, work, "commit", "--quiet", "-m", "initial commit")
	gitCmd(t, work, "remote", "add", "origin", origin)
	gitCmd(t, work, "push", "--quiet", "origin", "main")

	repo, err := Open(context.Background(), work)
	require.NoError(t, err)
	return repo, origin
}

func TestOpenNotRepository(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))

	_, err := Open(context.Background(), dir)
	assert.ErrorIs(t, err, ErrNotRepository)
}

func TestBranchLifecycle(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	current, err := repo.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", current)

	require.NoError(t, repo.Fetch(ctx, "origin"))
	require.NoError(t, repo.CreateBranch(ctx, "feat/PROJ-1-login", "origin/main"))

	exists, err := repo.LocalBranchExists(ctx, "feat/PROJ-1-login")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.LocalBranchExists(ctx, "feat/PROJ-2-missing")
	require.NoError(t, err)
	assert.False(t, exists)

	branches, err := repo.Branches(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Branch{
		{Name: "feat/PROJ-1-login", Current: true},
		{Name: "main", Current: false},
	}, branches)

	require.NoError(t, repo.RenameBranch(ctx, "feat/PROJ-1-login", "feat/PROJ-1-sign-in"))
	current, err = repo.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "feat/PROJ-1-sign-in", current)

	require.NoError(t, repo.Checkout(ctx, "main"))
	current, err = repo.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", current)
}

func TestRemoteBranches(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	exists, err := repo.RemoteBranchExists(ctx, "origin", "main")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.RemoteBranchExists(ctx, "origin", "feat/PROJ-1-login")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.CreateBranch(ctx, "feat/PROJ-1-login", "main"))
	require.NoError(t, repo.Push(ctx, PushOptions{Remote: "origin", Branch: "feat/PROJ-1-login", SetUpstream: true}))

	exists, err = repo.RemoteBranchExists(ctx, "origin", "feat/PROJ-1-login")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.Checkout(ctx, "main"))
	require.NoError(t, repo.DeleteRemoteBranch(ctx, "origin", "feat/PROJ-1-login"))
	exists, err = repo.RemoteBranchExists(ctx, "origin", "feat/PROJ-1-login")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCheckoutTracking(t *testing.T) {
	repo, origin := newTestRepository(t)
	ctx := context.Background()

	// Publish a branch from a second clone.
	other := filepath.Join(t.TempDir(), "other")
	gitCmd(t, filepath.Dir(other), "clone", "--quiet", origin, other)
	gitCmd(t, other, "checkout", "--quiet", "-b", "fix/PROJ-9-crash")
	writeFile(t, other, "fix.txt", "fix\n")
	gitCmd(t, other, "add", "fix.txt")
	gitCmd(t, other, "commit", "--quiet", "-m", "fix crash")
	gitCmd(t, other, "push", "--quiet", "origin", "fix/PROJ-9-crash")

	require.NoError(t, repo.Fetch(ctx, "origin"))
	require.NoError(t, repo.CheckoutTracking(ctx, "origin", "fix/PROJ-9-crash"))

	_, err := os.Stat(filepath.Join(repo.Dir(), "fix.txt"))
	assert.NoError(t, err)
}

func TestCommitAndFixup(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	clean, err := repo.IsClean(ctx)
	require.NoError(t, err)
	assert.True(t, clean)

	assert.ErrorIs(t, repo.Commit(ctx, "empty"), ErrNothingToCommit)

	require.NoError(t, repo.CreateBranch(ctx, "feat/PROJ-1-login", "main"))
	writeFile(t, repo.Dir(), "login.go", "package login\n")

	clean, err = repo.IsClean(ctx)
	require.NoError(t, err)
	assert.False(t, clean)

	staged, err := repo.HasStagedChanges(ctx)
	require.NoError(t, err)
	assert.False(t, staged)

	require.NoError(t, repo.StageAll(ctx))
	staged, err = repo.HasStagedChanges(ctx)
	require.NoError(t, err)
	assert.True(t, staged)

	require.NoError(t, repo.Commit(ctx, "feat: add login [PROJ-1]\n\nFirst cut"))

	base, err := repo.MergeBase(ctx, "main")
	require.NoError(t, err)

	commits, err := repo.CommitsSince(ctx, base)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "feat: add login [PROJ-1]", commits[0].Subject)
	assert.Len(t, commits[0].SHA, 40)

	writeFile(t, repo.Dir(), "login.go", "package login\n\nfunc Login() {}\n")
	require.NoError(t, repo.StageAll(ctx))
	require.NoError(t, repo.CommitFixup(ctx, commits[0].SHA))

	commits, err = repo.CommitsSince(ctx, base)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "fixup! feat: add login [PROJ-1]", commits[1].Subject)

	require.NoError(t, repo.AutosquashRebase(ctx, base))

	commits, err = repo.CommitsSince(ctx, base)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "feat: add login [PROJ-1]", commits[0].Subject)
}

func TestRemoteURLAndTags(t *testing.T) {
	repo, origin := newTestRepository(t)
	ctx := context.Background()

	url, err := repo.RemoteURL(ctx, "origin")
	require.NoError(t, err)
	assert.Equal(t, origin, url)

	tag, err := repo.LatestTag(ctx, "HEAD")
	require.NoError(t, err)
	assert.Empty(t, tag)

	gitCmd(t, repo.Dir(), "tag", "v1.0.0")
	tag, err = repo.LatestTag(ctx, "HEAD")
	require.NoError(t, err)
	assert.Equal(t, "v1.0.0", tag)

	_, err = repo.LatestTag(ctx, "no-such-ref")
	assert.ErrorContains(t, err, "failed to describe no-such-ref")

	commits, err := repo.CommitsBetween(ctx, "", "HEAD")
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "initial commit", commits[0].Subject)
}

func TestParseLog(t *testing.T) {
	out := "abc\x00first\n\ndef\x00second: with colon\nmalformed"
	assert.Equal(t, []Commit{
		{SHA: "abc", Subject: "first"},
		{SHA: "def", Subject: "second: with colon"},
	}, parseLog(out))
}
