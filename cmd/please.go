package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/stud/internal/config"
	"github.com/danielolaszy/stud/internal/console"
	"github.com/danielolaszy/stud/internal/git"
)

var pleaseCmd = &cobra.Command{
	Use:   "please",
	Short: "Force-push the current branch with lease",
	Long: `Force-push the current branch with --force-with-lease, typically after
'stud flatten'. The push is rejected when the remote branch moved since it was
last fetched. Refuses to run on the base branch.`,
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
		return forcePush(cmd.Context(), newConsole(cmd), repo, cfg)
	},
}

func init() {
	rootCmd.AddCommand(pleaseCmd)
}

func forcePush(ctx context.Context, out *console.Console, repo gitRepository, cfg *config.Config) error {
	branch, err := currentWorkBranch(ctx, repo, cfg.Git)
	if err != nil {
		return err
	}

	opts := git.PushOptions{
		Remote:         cfg.Git.Remote,
		Branch:         branch,
		ForceWithLease: true,
	}
	if err := repo.Push(ctx, opts); err != nil {
		return err
	}
	out.Success(fmt.Sprintf("Force-pushed %s to %s", branch, cfg.Git.Remote))
	return nil
}
