package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/stud/internal/config"
	"github.com/danielolaszy/stud/internal/console"
	"github.com/danielolaszy/stud/internal/git"
)

var flattenCmd = &cobra.Command{
	Use:   "flatten",
	Short: "Fold fixup commits into the commits they amend",
	Long: `Fold fixup commits into the commits they amend.

Runs an autosquash rebase of the current branch onto its merge base with the
remote base branch. No editor is opened. The working tree must be clean.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		repo, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		return flatten(cmd.Context(), newConsole(cmd), repo, cfg)
	},
}

func init() {
	rootCmd.AddCommand(flattenCmd)
}

func flatten(ctx context.Context, out *console.Console, repo gitRepository, cfg *config.Config) error {
	if _, err := currentWorkBranch(ctx, repo, cfg.Git); err != nil {
		return err
	}

	clean, err := repo.IsClean(ctx)
	if err != nil {
		return err
	}
	if !clean {
		return git.ErrDirtyWorkingTree
	}

	if err := repo.Fetch(ctx, cfg.Git.Remote, cfg.Git.BaseBranch); err != nil {
		return err
	}
	base, err := mergeBase(ctx, repo, cfg.Git)
	if err != nil {
		return err
	}

	before, err := repo.CommitsSince(ctx, base)
	if err != nil {
		return err
	}
	if len(before) == 0 {
		out.Note("Nothing to flatten")
		return nil
	}

	if err := repo.AutosquashRebase(ctx, base); err != nil {
		return err
	}

	after, err := repo.CommitsSince(ctx, base)
	if err != nil {
		return err
	}
	out.Success(fmt.Sprintf("Flattened %d commits into %d", len(before), len(after)))
	return nil
}
