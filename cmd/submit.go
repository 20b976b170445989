package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/stud/internal/config"
	"github.com/danielolaszy/stud/internal/console"
	"github.com/danielolaszy/stud/internal/git"
	"github.com/danielolaszy/stud/internal/logging"
	"github.com/danielolaszy/stud/internal/workflow"
	"github.com/danielolaszy/stud/pkg/models"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Push the current branch and open a GitHub pull request",
	Long: `Push the current branch and open a GitHub pull request against the base
branch. The title is the commit header generated from the JIRA issue and the
body links to the issue. When a pull request is already open for the branch,
its URL is printed instead.

The repository comes from github.repository or the remote URL.

Example:
  stud submit --draft`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		draft, err := cmd.Flags().GetBool("draft")
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		tracker, err := newTracker(cfg)
		if err != nil {
			return err
		}
		host, err := newCodeHost(cfg)
		if err != nil {
			return err
		}
		repo, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		return submit(cmd.Context(), newConsole(cmd), tracker, repo, host, cfg, draft)
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().BoolP("draft", "d", false, "open the pull request as a draft")
}

func submit(ctx context.Context, out *console.Console, tracker issueTracker, repo gitRepository, host codeHost, cfg *config.Config, draft bool) error {
	branch, err := currentWorkBranch(ctx, repo, cfg.Git)
	if err != nil {
		return err
	}
	key, err := workflow.ExtractIssueKey(branch)
	if err != nil {
		return fmt.Errorf("cannot submit %s: %w", branch, err)
	}

	repository, err := resolveRepository(ctx, repo, cfg)
	if err != nil {
		return err
	}

	if err := repo.Push(ctx, git.PushOptions{Remote: cfg.Git.Remote, Branch: branch, SetUpstream: true}); err != nil {
		return err
	}
	out.Success(fmt.Sprintf("Pushed %s to %s", branch, cfg.Git.Remote))

	existing, err := host.FindPullRequest(ctx, repository, branch)
	if err != nil {
		return err
	}
	if existing != nil {
		out.Note(fmt.Sprintf("Pull request #%d is already open: %s", existing.Number, existing.URL))
		return nil
	}

	ticket, err := tracker.GetIssue(ctx, key)
	if err != nil {
		return err
	}

	pr := models.NewPullRequest{
		Title: workflow.CommitHeader(ticket, cfg.Commit.Types),
		Body:  fmt.Sprintf("Resolves [%s](%s)", ticket.Key, tracker.BrowseURL(ticket.Key)),
		Head:  branch,
		Base:  cfg.Git.BaseBranch,
		Draft: draft,
	}
	logging.Info("opening pull request", "repository", repository, "head", pr.Head, "base", pr.Base, "draft", draft)

	created, err := host.CreatePullRequest(ctx, repository, pr)
	if err != nil {
		return err
	}
	out.Success(fmt.Sprintf("Opened pull request #%d: %s", created.Number, created.URL))
	return nil
}
