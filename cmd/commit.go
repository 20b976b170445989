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
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Commit staged changes with a message generated from the JIRA issue",
	Long: `Commit staged changes with a conventional commit message generated from the
JIRA issue in the current branch name:

  <type>(<scope>): <summary> [<KEY>]

The type comes from commit.types for the issue type (feat when unmapped, fix
for bugs), the scope from the first component of the issue.

When the branch already has a commit with the same header, the new commit is
recorded as a fixup of it so 'stud flatten' can fold them together. Use --new
to always create a regular commit.

Example:
  stud commit --all -m "Handle expired sessions"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := cmd.Flags().GetBool("all")
		if err != nil {
			return err
		}
		forceNew, err := cmd.Flags().GetBool("new")
		if err != nil {
			return err
		}
		message, err := cmd.Flags().GetString("message")
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
		repo, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}

		opts := commitOptions{All: all, New: forceNew, Message: message}
		return commitChanges(cmd.Context(), newConsole(cmd), tracker, repo, cfg, opts)
	},
}

func init() {
	rootCmd.AddCommand(commitCmd)
	commitCmd.Flags().BoolP("all", "a", false, "stage all changes before committing")
	commitCmd.Flags().Bool("new", false, "create a regular commit even when a matching one exists")
	commitCmd.Flags().StringP("message", "m", "", "commit message body")
}

type commitOptions struct {
	All     bool
	New     bool
	Message string
}

func commitChanges(ctx context.Context, out *console.Console, tracker issueTracker, repo gitRepository, cfg *config.Config, opts commitOptions) error {
	branch, err := repo.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	key, err := workflow.ExtractIssueKey(branch)
	if err != nil {
		return fmt.Errorf("cannot derive a commit message: %w", err)
	}

	if opts.All {
		if err := repo.StageAll(ctx); err != nil {
			return err
		}
	}

	staged, err := repo.HasStagedChanges(ctx)
	if err != nil {
		return err
	}
	if !staged {
		return git.ErrNothingToCommit
	}

	ticket, err := tracker.GetIssue(ctx, key)
	if err != nil {
		return err
	}
	header := workflow.CommitHeader(ticket, cfg.Commit.Types)

	if !opts.New {
		target, err := findFixupTarget(ctx, repo, cfg.Git, header)
		if err != nil {
			return err
		}
		if target != nil {
			if opts.Message != "" {
				out.Note("The message body is not used for fixup commits")
			}
			if err := repo.CommitFixup(ctx, target.SHA); err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Created fixup for %s %s", shortSHA(target.SHA), header))
			return nil
		}
	}

	if err := repo.Commit(ctx, workflow.CommitMessage(header, opts.Message)); err != nil {
		return err
	}
	out.Success("Committed " + header)
	return nil
}

// findFixupTarget returns the oldest commit on the branch whose subject is
// header, or nil.
func findFixupTarget(ctx context.Context, repo gitRepository, gitCfg config.GitConfig, header string) (*git.Commit, error) {
	base, err := mergeBase(ctx, repo, gitCfg)
	if err != nil {
		logging.Debug("no merge base, skipping fixup detection", "error", err)
		return nil, nil
	}

	commits, err := repo.CommitsSince(ctx, base)
	if err != nil {
		return nil, err
	}
	for i := range commits {
		if commits[i].Subject == header {
			return &commits[i], nil
		}
	}
	return nil, nil
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
