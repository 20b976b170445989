// Package config provides centralized configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/danielolaszy/stud/internal/description"
	"github.com/danielolaszy/stud/internal/logging"
)

// Config holds all configuration parameters for the application.
type Config struct {
	Jira        JiraConfig        `yaml:"jira"`
	GitHub      GitHubConfig      `yaml:"github"`
	Git         GitConfig         `yaml:"git"`
	Commit      CommitConfig      `yaml:"commit"`
	Description DescriptionConfig `yaml:"description"`

	// File is the configuration file that was read, empty when none was found.
	File string `yaml:"-"`
}

// GitHubConfig holds GitHub specific configuration.
type GitHubConfig struct {
	Token      string `yaml:"token"`
	Domain     string `yaml:"domain"`
	Repository string `yaml:"repository"`
}

// JiraConfig holds JIRA specific configuration.
type JiraConfig struct {
	URL                  string `yaml:"url"`
	Username             string `yaml:"username"`
	Token                string `yaml:"token"`
	Project              string `yaml:"project"`
	InProgressTransition string `yaml:"in_progress_transition"`
}

// GitConfig holds local repository conventions.
type GitConfig struct {
	Remote         string            `yaml:"remote"`
	BaseBranch     string            `yaml:"base_branch"`
	BranchPrefixes map[string]string `yaml:"branch_prefixes"`
}

// CommitConfig maps issue types to conventional commit types.
type CommitConfig struct {
	Types map[string]string `yaml:"types"`
}

// DescriptionConfig tunes how issue descriptions are split into sections.
type DescriptionConfig struct {
	HeaderKeywords []string `yaml:"header_keywords"`
}

// Option describes one configuration key, its default and meaning.
type Option struct {
	Key     string
	Default any
	Comment string
}

// Options returns every configuration key with its default value.
func Options() []Option {
	return []Option{
		{Key: "jira.url", Default: "", Comment: "Base URL of the Jira instance (JIRA_URL)"},
		{Key: "jira.username", Default: "", Comment: "Jira account e-mail or user name (JIRA_USERNAME)"},
		{Key: "jira.token", Default: "", Comment: "Jira API token (JIRA_TOKEN)"},
		{Key: "jira.project", Default: "", Comment: "Default project key for item listings"},
		{Key: "jira.in_progress_transition", Default: "In Progress", Comment: "Transition applied when a branch is started; empty disables it"},
		{Key: "github.token", Default: "", Comment: "GitHub personal access token (GITHUB_TOKEN)"},
		{Key: "github.domain", Default: "github.com", Comment: "GitHub domain, set for GitHub Enterprise (GITHUB_DOMAIN)"},
		{Key: "github.repository", Default: "", Comment: "owner/repo; derived from the git remote when empty"},
		{Key: "git.remote", Default: "origin", Comment: "Remote used for fetch and push"},
		{Key: "git.base_branch", Default: "main", Comment: "Branch new work starts from and pull requests target"},
		{Key: "git.branch_prefixes", Default: map[string]string{"bug": "fix"}, Comment: "Issue type to branch prefix; unknown types use feat"},
		{Key: "commit.types", Default: map[string]string{"bug": "fix"}, Comment: "Issue type to conventional commit type; unknown types use feat"},
		{Key: "description.header_keywords", Default: slices.Clone(description.DefaultHeaderKeywords), Comment: "Standalone lines treated as section headers; comma-separated in STUD_DESCRIPTION_HEADER_KEYWORDS"},
	}
}

// envBindings maps keys to the environment variables read for them, in
// order of preference.
var envBindings = map[string][]string{
	"jira.url":          {"STUD_JIRA_URL", "JIRA_URL"},
	"jira.username":     {"STUD_JIRA_USERNAME", "JIRA_USERNAME"},
	"jira.token":        {"STUD_JIRA_TOKEN", "JIRA_TOKEN"},
	"github.token":      {"STUD_GITHUB_TOKEN", "GITHUB_TOKEN"},
	"github.domain":     {"STUD_GITHUB_DOMAIN", "GITHUB_DOMAIN"},
	"github.repository": {"STUD_GITHUB_REPOSITORY"},
}

// DefaultPath resolves $XDG_CONFIG_HOME/stud/config.yaml, falling back to
// ~/.config/stud/config.yaml.
func DefaultPath() string {
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		home, _ := os.UserHomeDir()
		xdg = filepath.Join(home, ".config")
	}
	return filepath.Join(xdg, "stud", "config.yaml")
}

// LocalPath is the per-repository configuration file, relative to the
// working directory.
const LocalPath = ".stud.yaml"

// LoadConfig resolves configuration with precedence: defaults < file < env.
// An explicit path must exist; otherwise the default and local paths are
// searched and a missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for _, o := range Options() {
		v.SetDefault(o.Key, o.Default)
	}

	if path == "" {
		path = findConfigFile(DefaultPath(), LocalPath)
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		logging.Debug("loaded config file", "path", path)
	}

	v.SetEnvPrefix("stud")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind environment for %s: %w", key, err)
		}
	}

	cfg := fromViper(v)
	cfg.File = path
	return cfg, nil
}

// Default returns the configuration built from defaults only.
func Default() *Config {
	v := viper.New()
	for _, o := range Options() {
		v.SetDefault(o.Key, o.Default)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Jira: JiraConfig{
			URL:                  strings.TrimRight(v.GetString("jira.url"), "/"),
			Username:             v.GetString("jira.username"),
			Token:                v.GetString("jira.token"),
			Project:              strings.ToUpper(v.GetString("jira.project")),
			InProgressTransition: v.GetString("jira.in_progress_transition"),
		},
		GitHub: GitHubConfig{
			Token:      v.GetString("github.token"),
			Domain:     v.GetString("github.domain"),
			Repository: v.GetString("github.repository"),
		},
		Git: GitConfig{
			Remote:         v.GetString("git.remote"),
			BaseBranch:     v.GetString("git.base_branch"),
			BranchPrefixes: lowerKeys(v.GetStringMapString("git.branch_prefixes")),
		},
		Commit: CommitConfig{
			Types: lowerKeys(v.GetStringMapString("commit.types")),
		},
		Description: DescriptionConfig{
			HeaderKeywords: headerKeywords(v),
		},
	}
}

// headerKeywords reads the keyword list. The environment form is a single
// comma-separated string since keywords may contain spaces.
func headerKeywords(v *viper.Viper) []string {
	raw, ok := v.Get("description.header_keywords").(string)
	if !ok {
		return slices.Clone(v.GetStringSlice("description.header_keywords"))
	}

	var keywords []string
	for _, keyword := range strings.Split(raw, ",") {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	return keywords
}

func findConfigFile(candidates ...string) string {
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}

// ValidateJiraConfig validates JIRA-specific configuration.
func ValidateJiraConfig(config *Config) error {
	var missingVars []string

	if config.Jira.URL == "" {
		missingVars = append(missingVars, "JIRA_URL")
	}
	if config.Jira.Username == "" {
		missingVars = append(missingVars, "JIRA_USERNAME")
	}
	if config.Jira.Token == "" {
		missingVars = append(missingVars, "JIRA_TOKEN")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingSettings, missingVars)
	}

	return nil
}

// ValidateGitHubConfig validates GitHub-specific configuration.
func ValidateGitHubConfig(config *Config) error {
	if config.GitHub.Token == "" {
		return fmt.Errorf("%w: %v", ErrMissingSettings, []string{"GITHUB_TOKEN"})
	}
	return nil
}

// ErrMissingSettings is returned when required settings are empty.
var ErrMissingSettings = errors.New("missing required environment variables")
