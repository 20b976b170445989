package cmd

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/danielolaszy/stud/internal/config"
	"github.com/danielolaszy/stud/internal/console"
	"github.com/danielolaszy/stud/internal/git"
	"github.com/danielolaszy/stud/pkg/models"
)

// MockTracker implements issueTracker for testing
type MockTracker struct {
	GetIssueFunc        func(string) (models.JiraTicket, error)
	SearchIssuesFunc    func(string, int) ([]models.JiraTicket, error)
	CurrentUserFunc     func() (string, error)
	TransitionIssueFunc func(string, string) error
}

func (m *MockTracker) GetIssue(ctx context.Context, key string) (models.JiraTicket, error) {
	if m.GetIssueFunc != nil {
		return m.GetIssueFunc(key)
	}
	return models.JiraTicket{}, errors.New("GetIssue not implemented")
}

func (m *MockTracker) SearchIssues(ctx context.Context, jql string, maxResults int) ([]models.JiraTicket, error) {
	if m.SearchIssuesFunc != nil {
		return m.SearchIssuesFunc(jql, maxResults)
	}
	return nil, errors.New("SearchIssues not implemented")
}

func (m *MockTracker) CurrentUser(ctx context.Context) (string, error) {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc()
	}
	return "", errors.New("CurrentUser not implemented")
}

func (m *MockTracker) TransitionIssue(ctx context.Context, key, name string) error {
	if m.TransitionIssueFunc != nil {
		return m.TransitionIssueFunc(key, name)
	}
	return errors.New("TransitionIssue not implemented")
}

func (m *MockTracker) BrowseURL(key string) string {
	return "https://jira.example.com/browse/" + key
}

// MockCodeHost implements codeHost for testing
type MockCodeHost struct {
	AuthenticateFunc      func() (string, error)
	FindPullRequestFunc   func(string, string) (*models.PullRequest, error)
	CreatePullRequestFunc func(string, models.NewPullRequest) (models.PullRequest, error)
	CreateReleaseFunc     func(string, models.Release, string) (models.Release, error)
}

func (m *MockCodeHost) Authenticate(ctx context.Context) (string, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc()
	}
	return "", errors.New("Authenticate not implemented")
}

func (m *MockCodeHost) FindPullRequest(ctx context.Context, repository, branch string) (*models.PullRequest, error) {
	if m.FindPullRequestFunc != nil {
		return m.FindPullRequestFunc(repository, branch)
	}
	return nil, errors.New("FindPullRequest not implemented")
}

func (m *MockCodeHost) CreatePullRequest(ctx context.Context, repository string, pr models.NewPullRequest) (models.PullRequest, error) {
	if m.CreatePullRequestFunc != nil {
		return m.CreatePullRequestFunc(repository, pr)
	}
	return models.PullRequest{}, errors.New("CreatePullRequest not implemented")
}

func (m *MockCodeHost) CreateRelease(ctx context.Context, repository string, release models.Release, target string) (models.Release, error) {
	if m.CreateReleaseFunc != nil {
		return m.CreateReleaseFunc(repository, release, target)
	}
	return models.Release{}, errors.New("CreateRelease not implemented")
}

// fakeRepository is an in-memory gitRepository. Mutating operations are
// recorded in calls.
type fakeRepository struct {
	current   string
	local     map[string]bool
	remote    map[string]bool
	clean     bool
	staged    bool
	commits   []git.Commit
	remoteURL string
	latestTag string

	mergeBaseErr error
	pushErr      error

	calls []string
}

func newFakeRepository(current string, local ...string) *fakeRepository {
	r := &fakeRepository{
		current:   current,
		local:     map[string]bool{current: true, "main": true},
		remote:    map[string]bool{"main": true},
		clean:     true,
		remoteURL: "git@github.com:acme/widgets.git",
	}
	for _, name := range local {
		r.local[name] = true
	}
	return r
}

func (r *fakeRepository) record(call string) {
	r.calls = append(r.calls, call)
}

func (r *fakeRepository) CurrentBranch(ctx context.Context) (string, error) {
	return r.current, nil
}

func (r *fakeRepository) LocalBranchExists(ctx context.Context, name string) (bool, error) {
	return r.local[name], nil
}

func (r *fakeRepository) RemoteBranchExists(ctx context.Context, remote, name string) (bool, error) {
	return r.remote[name], nil
}

func (r *fakeRepository) Fetch(ctx context.Context, remote string, refspecs ...string) error {
	r.record(strings.Join(append([]string{"fetch", remote}, refspecs...), " "))
	return nil
}

func (r *fakeRepository) CreateBranch(ctx context.Context, name, start string) error {
	r.record("create " + name + " " + start)
	r.local[name] = true
	r.current = name
	return nil
}

func (r *fakeRepository) Checkout(ctx context.Context, name string) error {
	r.record("checkout " + name)
	r.current = name
	return nil
}

func (r *fakeRepository) CheckoutTracking(ctx context.Context, remote, name string) error {
	r.record("track " + remote + "/" + name)
	r.local[name] = true
	r.current = name
	return nil
}

func (r *fakeRepository) RenameBranch(ctx context.Context, oldName, newName string) error {
	r.record("rename " + oldName + " " + newName)
	delete(r.local, oldName)
	r.local[newName] = true
	if r.current == oldName {
		r.current = newName
	}
	return nil
}

func (r *fakeRepository) DeleteRemoteBranch(ctx context.Context, remote, name string) error {
	r.record("delete " + remote + "/" + name)
	delete(r.remote, name)
	return nil
}

func (r *fakeRepository) Branches(ctx context.Context) ([]git.Branch, error) {
	names := make([]string, 0, len(r.local))
	for name := range r.local {
		names = append(names, name)
	}
	sort.Strings(names)

	branches := make([]git.Branch, 0, len(names))
	for _, name := range names {
		branches = append(branches, git.Branch{Name: name, Current: name == r.current})
	}
	return branches, nil
}

func (r *fakeRepository) StageAll(ctx context.Context) error {
	r.record("stage")
	if !r.clean {
		r.staged = true
	}
	return nil
}

func (r *fakeRepository) HasStagedChanges(ctx context.Context) (bool, error) {
	return r.staged, nil
}

func (r *fakeRepository) IsClean(ctx context.Context) (bool, error) {
	return r.clean, nil
}

func (r *fakeRepository) Commit(ctx context.Context, message string) error {
	if !r.staged {
		return git.ErrNothingToCommit
	}
	r.record("commit " + message)
	subject, _, _ := strings.Cut(message, "\n")
	r.commits = append(r.commits, git.Commit{SHA: fakeSHA(len(r.commits)), Subject: subject})
	r.staged = false
	return nil
}

func (r *fakeRepository) CommitFixup(ctx context.Context, sha string) error {
	if !r.staged {
		return git.ErrNothingToCommit
	}
	r.record("fixup " + sha)
	for _, c := range r.commits {
		if c.SHA == sha {
			r.commits = append(r.commits, git.Commit{SHA: fakeSHA(len(r.commits)), Subject: "fixup! " + c.Subject})
			break
		}
	}
	r.staged = false
	return nil
}

func (r *fakeRepository) MergeBase(ctx context.Context, ref string) (string, error) {
	if r.mergeBaseErr != nil {
		return "", r.mergeBaseErr
	}
	return "base", nil
}

func (r *fakeRepository) CommitsSince(ctx context.Context, base string) ([]git.Commit, error) {
	return append([]git.Commit(nil), r.commits...), nil
}

func (r *fakeRepository) CommitsBetween(ctx context.Context, base, head string) ([]git.Commit, error) {
	return append([]git.Commit(nil), r.commits...), nil
}

func (r *fakeRepository) AutosquashRebase(ctx context.Context, base string) error {
	r.record("rebase " + base)
	kept := r.commits[:0]
	for _, c := range r.commits {
		if !strings.HasPrefix(c.Subject, "fixup! ") {
			kept = append(kept, c)
		}
	}
	r.commits = kept
	return nil
}

func (r *fakeRepository) Push(ctx context.Context, opts git.PushOptions) error {
	if r.pushErr != nil {
		return r.pushErr
	}
	call := "push " + opts.Remote + " " + opts.Branch
	if opts.SetUpstream {
		call += " --set-upstream"
	}
	if opts.ForceWithLease {
		call += " --force-with-lease"
	}
	r.record(call)
	r.remote[opts.Branch] = true
	return nil
}

func (r *fakeRepository) RemoteURL(ctx context.Context, remote string) (string, error) {
	return r.remoteURL, nil
}

func (r *fakeRepository) LatestTag(ctx context.Context, ref string) (string, error) {
	return r.latestTag, nil
}

func fakeSHA(n int) string {
	return strings.Repeat(string(rune('a'+n)), 40)
}

func newTestConsole() (*console.Console, *bytes.Buffer) {
	var buf bytes.Buffer
	return console.New(&buf), &buf
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Jira.URL = "https://jira.example.com"
	cfg.Jira.Username = "dev@example.com"
	cfg.Jira.Token = "jira-token"
	cfg.GitHub.Token = "gh-token"
	return cfg
}

var loginTicket = models.JiraTicket{
	Key:         "PROJ-42",
	Title:       "Add login form",
	Type:        "Story",
	Status:      "To Do",
	Components:  []string{"Auth"},
	Description: "User Story\nAs a user I want to log in\n---\nAcceptance Criteria:\n[ ] Form validates input\n[x] Errors are shown",
}

func ticketTracker(tickets ...models.JiraTicket) *MockTracker {
	return &MockTracker{
		GetIssueFunc: func(key string) (models.JiraTicket, error) {
			for _, t := range tickets {
				if t.Key == key {
					return t, nil
				}
			}
			return models.JiraTicket{}, errors.New("issue does not exist")
		},
	}
}
