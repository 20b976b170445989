package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/stud/internal/config"
	"github.com/danielolaszy/stud/internal/console"
	"github.com/danielolaszy/stud/internal/logging"
)

// errChecksFailed is returned by config validate when a required check fails.
var errChecksFailed = errors.New("configuration checks failed")

// configCmd groups the configuration commands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create, inspect and validate the stud configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return err
		}

		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		return initConfig(newConsole(cmd), path, force)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return showConfig(newConsole(cmd), cfg)
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check settings, credentials and the local repository",
	Long: `Check that stud can work in the current directory:

- a configuration file was found (informational)
- JIRA settings are present and the credentials are accepted
- a GitHub token is present and accepted
- the current directory is a git repository
- the base branch exists on the remote`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		collaborators := checkCollaborators{
			tracker: newTracker,
			host:    newCodeHost,
			repo:    openRepository,
		}
		return runChecks(cmd.Context(), newConsole(cmd), configChecks(cfg, collaborators))
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().BoolP("force", "f", false, "overwrite an existing file")
}

func initConfig(out *console.Console, path string, force bool) error {
	if err := config.WriteDefault(path, force); err != nil {
		if errors.Is(err, config.ErrConfigExists) {
			return fmt.Errorf("%w (use --force to overwrite)", err)
		}
		return err
	}
	out.Success("Wrote " + path)
	out.Note("Add your JIRA and GitHub credentials, or set JIRA_URL, JIRA_USERNAME, JIRA_TOKEN and GITHUB_TOKEN")
	return nil
}

func showConfig(out *console.Console, cfg *config.Config) error {
	data, err := config.Render(cfg, true)
	if err != nil {
		return err
	}

	if cfg.File != "" {
		out.Note("Loaded from " + cfg.File)
	} else {
		out.Note("No config file found; showing defaults and environment")
	}
	_, err = out.Writer().Write(data)
	return err
}

// check is one line of config validate. Optional checks only warn.
type check struct {
	name     string
	optional bool
	run      func(ctx context.Context) error
}

// checkCollaborators builds the clients the checks exercise.
type checkCollaborators struct {
	tracker func(*config.Config) (issueTracker, error)
	host    func(*config.Config) (codeHost, error)
	repo    func(context.Context) (gitRepository, error)
}

func configChecks(cfg *config.Config, c checkCollaborators) []check {
	return []check{
		{
			name:     "Config file found",
			optional: true,
			run: func(ctx context.Context) error {
				if cfg.File == "" {
					return errors.New("none found, using defaults and environment")
				}
				return nil
			},
		},
		{
			name: "JIRA settings present",
			run: func(ctx context.Context) error {
				return config.ValidateJiraConfig(cfg)
			},
		},
		{
			name: "JIRA credentials accepted",
			run: func(ctx context.Context) error {
				tracker, err := c.tracker(cfg)
				if err != nil {
					return err
				}
				user, err := tracker.CurrentUser(ctx)
				if err != nil {
					return err
				}
				logging.Info("jira credentials accepted", "user", user)
				return nil
			},
		},
		{
			name: "GitHub token present",
			run: func(ctx context.Context) error {
				return config.ValidateGitHubConfig(cfg)
			},
		},
		{
			name: "GitHub token accepted",
			run: func(ctx context.Context) error {
				host, err := c.host(cfg)
				if err != nil {
					return err
				}
				_, err = host.Authenticate(ctx)
				return err
			},
		},
		{
			name: "Inside a git repository",
			run: func(ctx context.Context) error {
				_, err := c.repo(ctx)
				return err
			},
		},
		{
			name: fmt.Sprintf("Base branch %s exists on %s", cfg.Git.BaseBranch, cfg.Git.Remote),
			run: func(ctx context.Context) error {
				repo, err := c.repo(ctx)
				if err != nil {
					return err
				}
				exists, err := repo.RemoteBranchExists(ctx, cfg.Git.Remote, cfg.Git.BaseBranch)
				if err != nil {
					return err
				}
				if !exists {
					return fmt.Errorf("branch %s not found on %s", cfg.Git.BaseBranch, cfg.Git.Remote)
				}
				return nil
			},
		},
	}
}

// runChecks prints one status line per check and fails when any required
// check failed.
func runChecks(ctx context.Context, out *console.Console, checks []check) error {
	failed := 0
	for _, c := range checks {
		err := c.run(ctx)
		switch {
		case err == nil:
			out.Success(c.name)
		case c.optional:
			out.Warning(fmt.Sprintf("%s: %v", c.name, err))
		default:
			logging.Debug("check failed", "check", c.name, "error", err)
			out.Error(fmt.Sprintf("%s: %v", c.name, err))
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errChecksFailed, failed, len(checks))
	}
	return nil
}
