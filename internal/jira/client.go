// Package jira provides functionality for interacting with the JIRA API.
package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	jira "github.com/andygrunwald/go-jira"

	"github.com/danielolaszy/stud/internal/config"
	"github.com/danielolaszy/stud/internal/logging"
	"github.com/danielolaszy/stud/pkg/models"
)

// ErrTransitionNotFound is returned when an issue has no transition with the
// requested name.
var ErrTransitionNotFound = errors.New("jira transition not found")

// searchFields limits search responses to what the ticket model uses.
var searchFields = []string{"summary", "issuetype", "status", "assignee", "priority", "components", "labels"}

// Client handles interactions with the JIRA API
type Client struct {
	client  *jira.Client
	baseURL string
}

// NewClient creates a new JIRA client authenticated with basic auth using the
// configured username and API token.
func NewClient(cfg *config.Config) (*Client, error) {
	if err := config.ValidateJiraConfig(cfg); err != nil {
		return nil, err
	}

	logging.Debug("jira configuration",
		"url", cfg.Jira.URL,
		"username", cfg.Jira.Username,
		"token", logging.MaskSensitive(cfg.Jira.Token))

	tp := jira.BasicAuthTransport{
		Username: cfg.Jira.Username,
		Password: cfg.Jira.Token,
	}

	return newClient(tp.Client(), cfg.Jira.URL)
}

func newClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client, err := jira.NewClient(httpClient, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}
	return &Client{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// GetIssue fetches a single issue by key.
func (c *Client) GetIssue(ctx context.Context, key string) (models.JiraTicket, error) {
	if c.client == nil {
		return models.JiraTicket{}, fmt.Errorf("jira client not initialized")
	}

	logging.Debug("fetching jira issue", "issue", key)

	issue, resp, err := c.client.Issue.GetWithContext(ctx, key, nil)
	if err != nil {
		return models.JiraTicket{}, fmt.Errorf("failed to fetch jira issue %s: %w (status: %d)", key, err, statusCode(resp))
	}

	return toTicket(issue), nil
}

// SearchIssues runs a JQL query and returns at most maxResults tickets.
func (c *Client) SearchIssues(ctx context.Context, jql string, maxResults int) ([]models.JiraTicket, error) {
	if c.client == nil {
		return nil, fmt.Errorf("jira client not initialized")
	}

	logging.Debug("searching jira issues", "jql", jql, "max_results", maxResults)

	opts := &jira.SearchOptions{
		MaxResults: maxResults,
		Fields:     searchFields,
	}
	issues, resp, err := c.client.Issue.SearchWithContext(ctx, jql, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search jira issues: %w (status: %d)", err, statusCode(resp))
	}

	tickets := make([]models.JiraTicket, 0, len(issues))
	for i := range issues {
		tickets = append(tickets, toTicket(&issues[i]))
	}

	logging.Debug("jira search complete", "count", len(tickets))
	return tickets, nil
}

// CurrentUser returns the display name of the authenticated user. It doubles
// as a credential check.
func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("jira client not initialized")
	}

	user, resp, err := c.client.User.GetSelfWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch current jira user: %w (status: %d)", err, statusCode(resp))
	}

	if user.DisplayName != "" {
		return user.DisplayName, nil
	}
	return user.Name, nil
}

// TransitionIssue moves an issue through the transition whose name, or whose
// target status name, matches name case-insensitively.
func (c *Client) TransitionIssue(ctx context.Context, key, name string) error {
	if c.client == nil {
		return fmt.Errorf("jira client not initialized")
	}

	transitions, resp, err := c.client.Issue.GetTransitionsWithContext(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to fetch transitions for %s: %w (status: %d)", key, err, statusCode(resp))
	}

	var transitionID string
	for _, t := range transitions {
		if strings.EqualFold(t.Name, name) || strings.EqualFold(t.To.Name, name) {
			transitionID = t.ID
			break
		}
	}
	if transitionID == "" {
		return fmt.Errorf("%w: %q for %s", ErrTransitionNotFound, name, key)
	}

	resp, err = c.client.Issue.DoTransitionWithContext(ctx, key, transitionID)
	if err != nil {
		return fmt.Errorf("failed to transition %s to %q: %w (status: %d)", key, name, err, statusCode(resp))
	}

	logging.Info("transitioned jira issue", "issue", key, "transition", name)
	return nil
}

// BrowseURL returns the web URL of an issue.
func (c *Client) BrowseURL(key string) string {
	return c.baseURL + "/browse/" + key
}

func statusCode(resp *jira.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}

func toTicket(issue *jira.Issue) models.JiraTicket {
	ticket := models.JiraTicket{
		ID:  issue.ID,
		Key: issue.Key,
	}

	fields := issue.Fields
	if fields == nil {
		return ticket
	}

	ticket.Title = fields.Summary
	ticket.Description = fields.Description
	ticket.Type = fields.Type.Name
	ticket.Labels = fields.Labels
	if fields.Status != nil {
		ticket.Status = fields.Status.Name
		ticket.StatusCategory = fields.Status.StatusCategory.Key
	}
	if fields.Assignee != nil {
		ticket.Assignee = fields.Assignee.DisplayName
	}
	if fields.Priority != nil {
		ticket.Priority = fields.Priority.Name
	}
	for _, component := range fields.Components {
		if component != nil {
			ticket.Components = append(ticket.Components, component.Name)
		}
	}

	return ticket
}
