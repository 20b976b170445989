// Package console renders command output for people at a terminal.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Console writes styled output to a single writer. Styling is dropped
// automatically when the writer is not a terminal.
type Console struct {
	out io.Writer

	heading lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	cell    lipgloss.Style
	header  lipgloss.Style
}

// New creates a console writing to w.
func New(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		out:     w,
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#888888")),
		success: r.NewStyle().Foreground(lipgloss.Color("#50C878")),
		warning: r.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
		failure: r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		cell:    r.NewStyle().Padding(0, 1),
		header:  r.NewStyle().Bold(true).Padding(0, 1),
	}
}

// Writer returns the underlying writer.
func (c *Console) Writer() io.Writer {
	return c.out
}

// Section prints a heading underlined to its width.
func (c *Console) Section(title string) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, c.heading.Render(title))
	fmt.Fprintln(c.out, c.muted.Render(strings.Repeat("─", lipgloss.Width(title))))
}

// Text prints a paragraph followed by a blank line.
func (c *Console) Text(lines []string) {
	for _, line := range lines {
		fmt.Fprintln(c.out, line)
	}
	fmt.Fprintln(c.out)
}

// Listing prints one bullet per item. Additional lines of an item are
// indented under its bullet.
func (c *Console) Listing(items []string) {
	for _, item := range items {
		lines := strings.Split(item, "\n")
		fmt.Fprintf(c.out, " • %s\n", lines[0])
		for _, line := range lines[1:] {
			fmt.Fprintf(c.out, "   %s\n", line)
		}
	}
	fmt.Fprintln(c.out)
}

// Table prints rows under the given headers.
func (c *Console) Table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(c.muted).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return c.header
			}
			return c.cell
		})
	fmt.Fprintln(c.out, t.Render())
}

// Success prints a confirmation line.
func (c *Console) Success(msg string) {
	fmt.Fprintln(c.out, c.success.Render("✔ "+msg))
}

// Warning prints a warning line.
func (c *Console) Warning(msg string) {
	fmt.Fprintln(c.out, c.warning.Render("! "+msg))
}

// Error prints a failure line.
func (c *Console) Error(msg string) {
	fmt.Fprintln(c.out, c.failure.Render("✘ "+msg))
}

// Note prints a secondary, informational line.
func (c *Console) Note(msg string) {
	fmt.Fprintln(c.out, c.muted.Render("› "+msg))
}
