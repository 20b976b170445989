// Package github provides functionality for interacting with the GitHub API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v41/github"
	"golang.org/x/oauth2"

	"github.com/danielolaszy/stud/internal/config"
	"github.com/danielolaszy/stud/internal/logging"
	"github.com/danielolaszy/stud/pkg/models"
)

// DefaultDomain is the public GitHub host.
const DefaultDomain = "github.com"

// ErrInvalidRepository is returned for repository names not of the form owner/repo.
var ErrInvalidRepository = errors.New("invalid repository format")

// Client encapsulates the GitHub API client.
type Client struct {
	client *github.Client
}

// NewClient creates a new GitHub API client from configuration. For domains
// other than github.com the GitHub Enterprise API endpoint is used.
func NewClient(cfg *config.Config) (*Client, error) {
	if err := config.ValidateGitHubConfig(cfg); err != nil {
		return nil, err
	}

	domain := cfg.GitHub.Domain
	if domain == "" {
		domain = DefaultDomain
	}
	apiURL := apiURLForDomain(domain)

	logging.Debug("github configuration",
		"domain", domain,
		"api_url", apiURL,
		"token", logging.MaskSensitive(cfg.GitHub.Token))

	// Create the oauth2 client
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.GitHub.Token},
	)
	tc := oauth2.NewClient(context.Background(), ts)

	client := github.NewClient(tc)

	if domain != DefaultDomain {
		parsedURL, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}

		client.BaseURL = parsedURL

		// For GitHub Enterprise, set the upload URL to the same endpoint
		client.UploadURL = parsedURL
	}

	return &Client{client: client}, nil
}

// apiURLForDomain returns the REST API root for a GitHub domain.
func apiURLForDomain(domain string) string {
	if domain == "" || domain == DefaultDomain {
		return "https://api.github.com/"
	}
	return fmt.Sprintf("https://%s/api/v3/", domain)
}

// Authenticate verifies the token and returns the login it belongs to.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	user, resp, err := c.client.Users.Get(ctx, "")
	if err != nil {
		logging.Error("failed to test github token",
			"error", err,
			"status_code", statusCode(resp))
		return "", fmt.Errorf("error testing github token: %w", err)
	}

	logging.Info("github authentication successful",
		"username", user.GetLogin())

	return user.GetLogin(), nil
}

// FindPullRequest returns the open pull request whose head is branch, or nil
// when there is none. The repository should be in the format "owner/repo".
func (c *Client) FindPullRequest(ctx context.Context, repository, branch string) (*models.PullRequest, error) {
	owner, repo, err := parseRepository(repository)
	if err != nil {
		return nil, err
	}

	opts := &github.PullRequestListOptions{
		State: "open",
		Head:  owner + ":" + branch,
		ListOptions: github.ListOptions{
			PerPage: 10,
		},
	}

	prs, _, err := c.client.PullRequests.List(ctx, owner, repo, opts)
	if err != nil {
		logging.Error("failed to list pull requests", "repository", repository, "branch", branch, "error", err)
		return nil, fmt.Errorf("failed to list pull requests for %s: %w", repository, err)
	}

	for _, pr := range prs {
		if pr.GetHead().GetRef() == branch {
			result := toPullRequest(pr)
			return &result, nil
		}
	}

	return nil, nil
}

// CreatePullRequest opens a pull request. The repository should be in the
// format "owner/repo".
func (c *Client) CreatePullRequest(ctx context.Context, repository string, pr models.NewPullRequest) (models.PullRequest, error) {
	owner, repo, err := parseRepository(repository)
	if err != nil {
		return models.PullRequest{}, err
	}

	logging.Debug("creating pull request", "repository", repository, "head", pr.Head, "base", pr.Base)

	created, _, err := c.client.PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
		Title: github.String(pr.Title),
		Body:  github.String(pr.Body),
		Head:  github.String(pr.Head),
		Base:  github.String(pr.Base),
		Draft: github.Bool(pr.Draft),
	})
	if err != nil {
		logging.Error("failed to create pull request", "repository", repository, "head", pr.Head, "error", err)
		return models.PullRequest{}, fmt.Errorf("failed to create pull request in %s: %w", repository, err)
	}

	return toPullRequest(created), nil
}

// CreateRelease creates a release for a tag pointing at target. The
// repository should be in the format "owner/repo".
func (c *Client) CreateRelease(ctx context.Context, repository string, release models.Release, target string) (models.Release, error) {
	owner, repo, err := parseRepository(repository)
	if err != nil {
		return models.Release{}, err
	}

	created, _, err := c.client.Repositories.CreateRelease(ctx, owner, repo, &github.RepositoryRelease{
		TagName:         github.String(release.TagName),
		TargetCommitish: github.String(target),
		Name:            github.String(release.Name),
		Body:            github.String(release.Body),
		Draft:           github.Bool(release.Draft),
	})
	if err != nil {
		logging.Error("failed to create release", "repository", repository, "tag", release.TagName, "error", err)
		return models.Release{}, fmt.Errorf("failed to create release %s in %s: %w", release.TagName, repository, err)
	}

	return models.Release{
		TagName: created.GetTagName(),
		Name:    created.GetName(),
		Body:    created.GetBody(),
		Draft:   created.GetDraft(),
		URL:     created.GetHTMLURL(),
	}, nil
}

// parseRepository splits "owner/repo".
func parseRepository(repository string) (string, string, error) {
	parts := strings.Split(repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %s, expected format: owner/repo", ErrInvalidRepository, repository)
	}
	return parts[0], parts[1], nil
}

func toPullRequest(pr *github.PullRequest) models.PullRequest {
	return models.PullRequest{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		URL:    pr.GetHTMLURL(),
		State:  pr.GetState(),
		Draft:  pr.GetDraft(),
		Head:   pr.GetHead().GetRef(),
		Base:   pr.GetBase().GetRef(),
	}
}

func statusCode(resp *github.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}
