package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/stud/internal/config"
	"github.com/danielolaszy/stud/internal/console"
	"github.com/danielolaszy/stud/internal/git"
	"github.com/danielolaszy/stud/internal/workflow"
	"github.com/danielolaszy/stud/pkg/models"
)

var releaseCmd = &cobra.Command{
	Use:   "release VERSION",
	Short: "Cut a release branch from the base branch",
	Long: `Create release/vVERSION from the remote base branch and push it.

VERSION is a semantic version X.Y.Z with an optional leading v and optional
pre-release suffix. With --github-release a draft GitHub release tagged
vVERSION is created as well, listing the commits since the previous tag.

Example:
  stud release 1.4.0 --github-release`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		withRelease, err := cmd.Flags().GetBool("github-release")
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		repo, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}

		var host codeHost
		if withRelease {
			host, err = newCodeHost(cfg)
			if err != nil {
				return err
			}
		}
		return cutRelease(cmd.Context(), newConsole(cmd), repo, host, cfg, args[0])
	},
}

func init() {
	rootCmd.AddCommand(releaseCmd)
	releaseCmd.Flags().Bool("github-release", false, "also draft a GitHub release")
}

// cutRelease creates and pushes the release branch. A nil host skips the
// GitHub release.
func cutRelease(ctx context.Context, out *console.Console, repo gitRepository, host codeHost, cfg *config.Config, arg string) error {
	version, err := workflow.ParseVersion(arg)
	if err != nil {
		return err
	}

	clean, err := repo.IsClean(ctx)
	if err != nil {
		return err
	}
	if !clean {
		return git.ErrDirtyWorkingTree
	}

	branch := workflow.ReleaseBranch(version)
	exists, err := repo.LocalBranchExists(ctx, branch)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("release branch %s already exists", branch)
	}

	if err := repo.Fetch(ctx, cfg.Git.Remote, cfg.Git.BaseBranch); err != nil {
		return err
	}
	start := cfg.Git.Remote + "/" + cfg.Git.BaseBranch
	if err := repo.CreateBranch(ctx, branch, start); err != nil {
		return err
	}
	if err := repo.Push(ctx, git.PushOptions{Remote: cfg.Git.Remote, Branch: branch, SetUpstream: true}); err != nil {
		return err
	}
	out.Success(fmt.Sprintf("Created and pushed %s from %s", branch, start))

	if host == nil {
		return nil
	}

	repository, err := resolveRepository(ctx, repo, cfg)
	if err != nil {
		return err
	}

	previous, err := repo.LatestTag(ctx, start)
	if err != nil {
		return err
	}
	commits, err := repo.CommitsBetween(ctx, previous, start)
	if err != nil {
		return err
	}

	tag := workflow.TagName(version)
	release, err := host.CreateRelease(ctx, repository, models.Release{
		TagName: tag,
		Name:    tag,
		Body:    releaseNotes(previous, commits),
		Draft:   true,
	}, branch)
	if err != nil {
		return err
	}
	out.Success(fmt.Sprintf("Drafted release %s: %s", tag, release.URL))
	return nil
}

// releaseNotes lists commit subjects as markdown bullets.
func releaseNotes(previous string, commits []git.Commit) string {
	var b strings.Builder
	if previous != "" {
		fmt.Fprintf(&b, "Changes since %s:\n\n", previous)
	} else {
		b.WriteString("Changes:\n\n")
	}
	if len(commits) == 0 {
		b.WriteString("- No changes\n")
		return b.String()
	}
	for _, c := range commits {
		fmt.Fprintf(&b, "- %s\n", c.Subject)
	}
	return b.String()
}
