// Package models defines data structures shared across the application.
package models

// JiraTicket represents a JIRA issue with the fields stud works with.
type JiraTicket struct {
	// ID is the internal numeric identifier of the issue (e.g., "10042")
	ID string

	// Key is the full JIRA ticket identifier (e.g., "ABC-123")
	Key string

	// Title is the ticket's summary field
	Title string

	// Description is the full body text of the ticket
	Description string

	// Type is the JIRA issue type (e.g., "Story", "Bug", "Task")
	Type string

	// Status is the name of the current workflow status (e.g., "In Progress")
	Status string

	// StatusCategory is the key of the status category ("new", "indeterminate", "done")
	StatusCategory string

	// Assignee is the display name of the assignee, empty when unassigned
	Assignee string

	// Priority is the priority name (e.g., "High")
	Priority string

	// Components lists the component names attached to the ticket
	Components []string

	// Labels lists the ticket labels
	Labels []string
}

// PullRequest represents a GitHub pull request.
type PullRequest struct {
	Number int
	Title  string
	URL    string
	State  string
	Draft  bool
	Head   string
	Base   string
}

// NewPullRequest holds the fields needed to open a pull request.
type NewPullRequest struct {
	Title string
	Body  string
	Head  string
	Base  string
	Draft bool
}

// Release represents a GitHub release.
type Release struct {
	TagName string
	Name    string
	Body    string
	Draft   bool
	URL     string
}
