package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielolaszy/stud/internal/console"
	"github.com/danielolaszy/stud/internal/description"
	"github.com/danielolaszy/stud/internal/logging"
	"github.com/danielolaszy/stud/internal/workflow"
)

const defaultItemLimit = 25

// itemCmd groups the commands that read JIRA issues.
var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Browse JIRA issues",
}

var itemListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open JIRA issues",
	Long: `List open JIRA issues, most recently updated first.

By default only issues assigned to you are listed. The project comes from
--project or the jira.project setting; without either, all projects are
searched.

Example:
  stud item list --project PROJ --all --limit 50`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := cmd.Flags().GetString("project")
		if err != nil {
			return err
		}
		all, err := cmd.Flags().GetBool("all")
		if err != nil {
			return err
		}
		limit, err := cmd.Flags().GetInt("limit")
		if err != nil {
			return err
		}
		if limit <= 0 {
			return fmt.Errorf("limit must be positive, got %d", limit)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		tracker, err := newTracker(cfg)
		if err != nil {
			return err
		}

		if project == "" {
			project = cfg.Jira.Project
		}

		query := itemQuery{
			Project: strings.ToUpper(project),
			All:     all,
			Limit:   limit,
		}
		return listItems(cmd.Context(), newConsole(cmd), tracker, query)
	},
}

var itemShowCmd = &cobra.Command{
	Use:   "show KEY",
	Short: "Show a JIRA issue with its formatted description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		tracker, err := newTracker(cfg)
		if err != nil {
			return err
		}

		formatter := description.NewFormatter(cfg.Description.HeaderKeywords)
		return showItem(cmd.Context(), newConsole(cmd), tracker, formatter, args[0])
	},
}

func init() {
	rootCmd.AddCommand(itemCmd)
	itemCmd.AddCommand(itemListCmd)
	itemCmd.AddCommand(itemShowCmd)

	itemListCmd.Flags().StringP("project", "p", "", "JIRA project key (default: jira.project)")
	itemListCmd.Flags().BoolP("all", "a", false, "include issues assigned to anyone")
	itemListCmd.Flags().IntP("limit", "n", defaultItemLimit, "maximum number of issues")
}

// itemQuery selects the issues listed by item list.
type itemQuery struct {
	Project string
	All     bool
	Limit   int
}

// JQL renders the query.
func (q itemQuery) JQL() string {
	var clauses []string
	if q.Project != "" {
		clauses = append(clauses, fmt.Sprintf("project = %q", q.Project))
	}
	if !q.All {
		clauses = append(clauses, "assignee = currentUser()")
	}
	clauses = append(clauses, "statusCategory != Done")
	return strings.Join(clauses, " AND ") + " ORDER BY updated DESC"
}

func listItems(ctx context.Context, out *console.Console, tracker issueTracker, query itemQuery) error {
	jql := query.JQL()
	logging.Debug("listing items", "jql", jql, "limit", query.Limit)

	tickets, err := tracker.SearchIssues(ctx, jql, query.Limit)
	if err != nil {
		return err
	}

	if len(tickets) == 0 {
		out.Note("No items found")
		return nil
	}

	rows := make([][]string, 0, len(tickets))
	for _, t := range tickets {
		rows = append(rows, []string{t.Key, t.Type, t.Status, t.Title})
	}
	out.Table([]string{"Key", "Type", "Status", "Summary"}, rows)
	return nil
}

func showItem(ctx context.Context, out *console.Console, tracker issueTracker, formatter *description.Formatter, arg string) error {
	key, err := workflow.NormalizeIssueKey(arg)
	if err != nil {
		return err
	}

	ticket, err := tracker.GetIssue(ctx, key)
	if err != nil {
		return err
	}

	assignee := ticket.Assignee
	if assignee == "" {
		assignee = "Unassigned"
	}

	details := []string{
		"Type: " + ticket.Type,
		"Status: " + ticket.Status,
		"Assignee: " + assignee,
	}
	if ticket.Priority != "" {
		details = append(details, "Priority: "+ticket.Priority)
	}
	if len(ticket.Components) > 0 {
		details = append(details, "Components: "+strings.Join(ticket.Components, ", "))
	}
	if len(ticket.Labels) > 0 {
		details = append(details, "Labels: "+strings.Join(ticket.Labels, ", "))
	}
	details = append(details, "URL: "+tracker.BrowseURL(ticket.Key))

	out.Section(fmt.Sprintf("%s: %s", ticket.Key, ticket.Title))
	out.Listing(details)

	if strings.TrimSpace(ticket.Description) == "" {
		out.Note("No description")
		return nil
	}
	formatter.Display(out, ticket.Description)
	return nil
}
