package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/danielolaszy/stud/internal/config"
	"github.com/danielolaszy/stud/internal/console"
	"github.com/danielolaszy/stud/internal/git"
	"github.com/danielolaszy/stud/internal/logging"
	"github.com/danielolaszy/stud/internal/workflow"
)

// branchCmd groups the commands that manage issue branches.
var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "Create and manage branches named after JIRA issues",
}

var branchNewCmd = &cobra.Command{
	Use:   "new KEY",
	Short: "Start work on a JIRA issue",
	Long: `Switch to the branch for a JIRA issue, creating it when needed.

The branch is named <prefix>/<KEY>-<summary slug>, where the prefix comes from
git.branch_prefixes for the issue type (feat when unmapped). An existing local
branch is checked out, a branch that only exists on the remote is tracked, and
otherwise a new branch is created from the remote base branch.

The issue is then moved to jira.in_progress_transition unless it is already
in that status.

Example:
  stud branch new PROJ-42`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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
		return newBranch(cmd.Context(), newConsole(cmd), tracker, repo, cfg, args[0])
	},
}

var branchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List local branches with the status of their JIRA issues",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		repo, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}

		out := newConsole(cmd)
		tracker, err := newTracker(cfg)
		if err != nil {
			logging.Warn("listing branches without jira statuses", "error", err)
			out.Warning("JIRA is not configured; issue statuses are unknown")
		}
		return listBranches(cmd.Context(), out, tracker, repo)
	},
}

var branchRenameCmd = &cobra.Command{
	Use:   "rename [KEY]",
	Short: "Rename the current branch after its JIRA issue",
	Long: `Rename the current branch to the generated name for KEY.

Without KEY the issue key already in the branch name is used, which refreshes
the slug after the issue summary changed. When the old branch exists on the
remote, the new name is pushed and the old remote branch is deleted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		var key string
		if len(args) == 1 {
			key = args[0]
		}
		return renameBranch(cmd.Context(), newConsole(cmd), tracker, repo, cfg, key)
	},
}

var branchSwitchCmd = &cobra.Command{
	Use:   "switch QUERY",
	Short: "Check out the local branch that best matches QUERY",
	Long: `Check out the local branch that best matches QUERY.

Matching is fuzzy: the characters of QUERY must appear in order in the branch
name, so "42login" matches feat/PROJ-42-add-login-form.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		return switchBranch(cmd.Context(), newConsole(cmd), repo, args[0])
	},
}

func init() {
	rootCmd.AddCommand(branchCmd)
	branchCmd.AddCommand(branchNewCmd)
	branchCmd.AddCommand(branchListCmd)
	branchCmd.AddCommand(branchRenameCmd)
	branchCmd.AddCommand(branchSwitchCmd)
}

func newBranch(ctx context.Context, out *console.Console, tracker issueTracker, repo gitRepository, cfg *config.Config, arg string) error {
	key, err := workflow.NormalizeIssueKey(arg)
	if err != nil {
		return err
	}

	ticket, err := tracker.GetIssue(ctx, key)
	if err != nil {
		return err
	}

	name := workflow.BranchName(workflow.BranchPrefix(ticket.Type, cfg.Git.BranchPrefixes), ticket.Key, ticket.Title)
	logging.Debug("resolved branch name", "issue", key, "branch", name)

	if err := switchToIssueBranch(ctx, out, repo, cfg.Git, name); err != nil {
		return err
	}

	transition := cfg.Jira.InProgressTransition
	if transition == "" || strings.EqualFold(ticket.Status, transition) {
		return nil
	}

	if err := tracker.TransitionIssue(ctx, key, transition); err != nil {
		logging.Warn("failed to transition issue", "issue", key, "transition", transition, "error", err)
		out.Warning(fmt.Sprintf("Could not move %s to %q: %v", key, transition, err))
		return nil
	}
	out.Success(fmt.Sprintf("Moved %s to %s", key, transition))
	return nil
}

func switchToIssueBranch(ctx context.Context, out *console.Console, repo gitRepository, gitCfg config.GitConfig, name string) error {
	local, err := repo.LocalBranchExists(ctx, name)
	if err != nil {
		return err
	}
	if local {
		if err := repo.Checkout(ctx, name); err != nil {
			return err
		}
		out.Success("Switched to existing branch " + name)
		return nil
	}

	remote, err := repo.RemoteBranchExists(ctx, gitCfg.Remote, name)
	if err != nil {
		return err
	}
	if remote {
		if err := repo.Fetch(ctx, gitCfg.Remote, name); err != nil {
			return err
		}
		if err := repo.CheckoutTracking(ctx, gitCfg.Remote, name); err != nil {
			return err
		}
		out.Success(fmt.Sprintf("Switched to branch %s tracking %s/%s", name, gitCfg.Remote, name))
		return nil
	}

	if err := repo.Fetch(ctx, gitCfg.Remote, gitCfg.BaseBranch); err != nil {
		return err
	}
	start := gitCfg.Remote + "/" + gitCfg.BaseBranch
	if err := repo.CreateBranch(ctx, name, start); err != nil {
		return err
	}
	out.Success(fmt.Sprintf("Created branch %s from %s", name, start))
	return nil
}

// listBranches prints local branches. A nil tracker skips the status lookup.
func listBranches(ctx context.Context, out *console.Console, tracker issueTracker, repo gitRepository) error {
	branches, err := repo.Branches(ctx)
	if err != nil {
		return err
	}
	if len(branches) == 0 {
		out.Note("No branches found")
		return nil
	}

	keys := make([]string, len(branches))
	var lookup []string
	seen := make(map[string]bool)
	for i, b := range branches {
		key, err := workflow.ExtractIssueKey(b.Name)
		if err != nil {
			continue
		}
		keys[i] = key
		if !seen[key] {
			seen[key] = true
			lookup = append(lookup, key)
		}
	}

	statuses := branchStatuses(ctx, out, tracker, lookup)

	rows := make([][]string, 0, len(branches))
	for i, b := range branches {
		marker := "  "
		if b.Current {
			marker = "* "
		}

		key, status := "-", "-"
		if keys[i] != "" {
			key = keys[i]
			status = statuses[key]
			if status == "" {
				status = "unknown"
			}
		}
		rows = append(rows, []string{marker + b.Name, key, status})
	}
	out.Table([]string{"Branch", "Key", "Status"}, rows)
	return nil
}

// branchStatuses looks up issue statuses with a single search. Failures are
// reported as warnings and leave the map empty.
func branchStatuses(ctx context.Context, out *console.Console, tracker issueTracker, keys []string) map[string]string {
	statuses := make(map[string]string, len(keys))
	if tracker == nil || len(keys) == 0 {
		return statuses
	}

	jql := fmt.Sprintf("key in (%s)", strings.Join(keys, ", "))
	tickets, err := tracker.SearchIssues(ctx, jql, len(keys))
	if err != nil {
		logging.Warn("failed to look up branch issues", "keys", keys, "error", err)
		out.Warning("Could not fetch issue statuses from JIRA")
		return statuses
	}

	for _, t := range tickets {
		statuses[t.Key] = t.Status
	}
	return statuses
}

func renameBranch(ctx context.Context, out *console.Console, tracker issueTracker, repo gitRepository, cfg *config.Config, arg string) error {
	current, err := currentWorkBranch(ctx, repo, cfg.Git)
	if err != nil {
		return err
	}

	var key string
	if arg == "" {
		key, err = workflow.ExtractIssueKey(current)
	} else {
		key, err = workflow.NormalizeIssueKey(arg)
	}
	if err != nil {
		return err
	}

	ticket, err := tracker.GetIssue(ctx, key)
	if err != nil {
		return err
	}

	name := workflow.BranchName(workflow.BranchPrefix(ticket.Type, cfg.Git.BranchPrefixes), ticket.Key, ticket.Title)
	if name == current {
		out.Note("Branch is already named " + current)
		return nil
	}

	onRemote, err := repo.RemoteBranchExists(ctx, cfg.Git.Remote, current)
	if err != nil {
		return err
	}

	if err := repo.RenameBranch(ctx, current, name); err != nil {
		return err
	}
	out.Success(fmt.Sprintf("Renamed %s to %s", current, name))

	if !onRemote {
		return nil
	}

	if err := repo.Push(ctx, git.PushOptions{Remote: cfg.Git.Remote, Branch: name, SetUpstream: true}); err != nil {
		return err
	}
	if err := repo.DeleteRemoteBranch(ctx, cfg.Git.Remote, current); err != nil {
		return err
	}
	out.Success(fmt.Sprintf("Replaced %s/%s with %s/%s", cfg.Git.Remote, current, cfg.Git.Remote, name))
	return nil
}

func switchBranch(ctx context.Context, out *console.Console, repo gitRepository, query string) error {
	branches, err := repo.Branches(ctx)
	if err != nil {
		return err
	}

	names := make([]string, len(branches))
	current := ""
	for i, b := range branches {
		names[i] = b.Name
		if b.Current {
			current = b.Name
		}
	}

	matches := fuzzy.Find(query, names)
	if len(matches) == 0 {
		return fmt.Errorf("no branch matches %q", query)
	}

	best := names[matches[0].Index]
	logging.Debug("fuzzy branch match", "query", query, "branch", best, "score", matches[0].Score, "candidates", len(matches))

	if best == current {
		out.Note("Already on " + best)
		return nil
	}
	if err := repo.Checkout(ctx, best); err != nil {
		return err
	}
	out.Success("Switched to " + best)
	return nil
}
