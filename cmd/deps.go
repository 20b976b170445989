package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/stud/internal/config"
	"github.com/danielolaszy/stud/internal/console"
	"github.com/danielolaszy/stud/internal/git"
	"github.com/danielolaszy/stud/internal/github"
	"github.com/danielolaszy/stud/internal/jira"
	"github.com/danielolaszy/stud/pkg/models"
)

// errOnBaseBranch is returned by commands that must not run on the base branch.
var errOnBaseBranch = errors.New("not allowed on the base branch")

// issueTracker is the part of the JIRA client the commands use.
type issueTracker interface {
	GetIssue(ctx context.Context, key string) (models.JiraTicket, error)
	SearchIssues(ctx context.Context, jql string, maxResults int) ([]models.JiraTicket, error)
	CurrentUser(ctx context.Context) (string, error)
	TransitionIssue(ctx context.Context, key, name string) error
	BrowseURL(key string) string
}

// codeHost is the part of the GitHub client the commands use.
type codeHost interface {
	Authenticate(ctx context.Context) (string, error)
	FindPullRequest(ctx context.Context, repository, branch string) (*models.PullRequest, error)
	CreatePullRequest(ctx context.Context, repository string, pr models.NewPullRequest) (models.PullRequest, error)
	CreateRelease(ctx context.Context, repository string, release models.Release, target string) (models.Release, error)
}

// gitRepository is the part of the local repository the commands use.
type gitRepository interface {
	CurrentBranch(ctx context.Context) (string, error)
	LocalBranchExists(ctx context.Context, name string) (bool, error)
	RemoteBranchExists(ctx context.Context, remote, name string) (bool, error)
	Fetch(ctx context.Context, remote string, refspecs ...string) error
	CreateBranch(ctx context.Context, name, start string) error
	Checkout(ctx context.Context, name string) error
	CheckoutTracking(ctx context.Context, remote, name string) error
	RenameBranch(ctx context.Context, oldName, newName string) error
	DeleteRemoteBranch(ctx context.Context, remote, name string) error
	Branches(ctx context.Context) ([]git.Branch, error)
	StageAll(ctx context.Context) error
	HasStagedChanges(ctx context.Context) (bool, error)
	IsClean(ctx context.Context) (bool, error)
	Commit(ctx context.Context, message string) error
	CommitFixup(ctx context.Context, sha string) error
	MergeBase(ctx context.Context, ref string) (string, error)
	CommitsSince(ctx context.Context, base string) ([]git.Commit, error)
	CommitsBetween(ctx context.Context, base, head string) ([]git.Commit, error)
	AutosquashRebase(ctx context.Context, base string) error
	Push(ctx context.Context, opts git.PushOptions) error
	RemoteURL(ctx context.Context, remote string) (string, error)
	LatestTag(ctx context.Context, ref string) (string, error)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func newTracker(cfg *config.Config) (issueTracker, error) {
	client, err := jira.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jira client: %w", err)
	}
	return client, nil
}

func newCodeHost(cfg *config.Config) (codeHost, error) {
	client, err := github.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize github client: %w", err)
	}
	return client, nil
}

func openRepository(ctx context.Context) (gitRepository, error) {
	repo, err := git.Open(ctx, "")
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func newConsole(cmd *cobra.Command) *console.Console {
	return console.New(cmd.OutOrStdout())
}

// currentWorkBranch returns the checked out branch, refusing the base branch.
func currentWorkBranch(ctx context.Context, repo gitRepository, gitCfg config.GitConfig) (string, error) {
	branch, err := repo.CurrentBranch(ctx)
	if err != nil {
		return "", err
	}
	if branch == gitCfg.BaseBranch {
		return "", fmt.Errorf("%w: %s", errOnBaseBranch, branch)
	}
	return branch, nil
}

// mergeBase finds where the current branch left the base branch, preferring
// the remote-tracking ref.
func mergeBase(ctx context.Context, repo gitRepository, gitCfg config.GitConfig) (string, error) {
	base, err := repo.MergeBase(ctx, gitCfg.Remote+"/"+gitCfg.BaseBranch)
	if err == nil {
		return base, nil
	}
	base, localErr := repo.MergeBase(ctx, gitCfg.BaseBranch)
	if localErr != nil {
		return "", err
	}
	return base, nil
}

// resolveRepository returns the configured owner/repo or derives it from the
// remote URL.
func resolveRepository(ctx context.Context, repo gitRepository, cfg *config.Config) (string, error) {
	if cfg.GitHub.Repository != "" {
		return cfg.GitHub.Repository, nil
	}
	url, err := repo.RemoteURL(ctx, cfg.Git.Remote)
	if err != nil {
		return "", err
	}
	return github.ParseRemoteURL(url, cfg.GitHub.Domain)
}
