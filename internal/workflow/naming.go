// Package workflow holds the naming rules that tie branches, commits and
// releases to Jira issues.
package workflow

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/danielolaszy/stud/pkg/models"
)

// DefaultType is used for issue types without a configured branch prefix or
// commit type.
const DefaultType = "feat"

// MaxSlugLength bounds the summary part of a branch name.
const MaxSlugLength = 50

var (
	// ErrNoIssueKey is returned when a branch name carries no issue key.
	ErrNoIssueKey = errors.New("no issue key found")
	// ErrInvalidIssueKey is returned for strings that are not issue keys.
	ErrInvalidIssueKey = errors.New("invalid issue key")
)

var (
	issueKeyPattern      = regexp.MustCompile(`\b[A-Z][A-Z0-9]+-\d+\b`)
	exactIssueKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]+-\d+$`)
	nonSlugPattern       = regexp.MustCompile(`[^a-z0-9]+`)
)

// ExtractIssueKey returns the first issue key found in s, typically a branch
// name such as "feat/PROJ-42-add-login-form".
func ExtractIssueKey(s string) (string, error) {
	key := issueKeyPattern.FindString(s)
	if key == "" {
		return "", fmt.Errorf("%w in %q", ErrNoIssueKey, s)
	}
	return key, nil
}

// NormalizeIssueKey upper-cases and validates user input like "proj-42".
func NormalizeIssueKey(s string) (string, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	if !exactIssueKeyPattern.MatchString(key) {
		return "", fmt.Errorf("%w: %q, expected format: PROJECT-123", ErrInvalidIssueKey, s)
	}
	return key, nil
}

// Slugify lower-cases s, strips diacritics and joins the remaining
// alphanumeric runs with "-". The result is at most maxLen bytes and never
// starts or ends with "-".
func Slugify(s string, maxLen int) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, s)
	if err != nil {
		plain = s
	}

	slug := nonSlugPattern.ReplaceAllString(strings.ToLower(plain), "-")
	slug = strings.Trim(slug, "-")

	if maxLen > 0 && len(slug) > maxLen {
		slug = strings.TrimRight(slug[:maxLen], "-")
	}
	return slug
}

// BranchPrefix maps an issue type to its branch prefix, falling back to
// DefaultType.
func BranchPrefix(issueType string, prefixes map[string]string) string {
	return lookupType(issueType, prefixes)
}

// CommitType maps an issue type to its conventional commit type, falling
// back to DefaultType.
func CommitType(issueType string, types map[string]string) string {
	return lookupType(issueType, types)
}

func lookupType(issueType string, mapping map[string]string) string {
	if v, ok := mapping[strings.ToLower(strings.TrimSpace(issueType))]; ok && v != "" {
		return v
	}
	return DefaultType
}

// BranchName builds "<prefix>/<KEY>-<slug of summary>".
func BranchName(prefix, key, summary string) string {
	name := prefix + "/" + key
	if slug := Slugify(summary, MaxSlugLength); slug != "" {
		name += "-" + slug
	}
	return name
}

// CommitHeader builds the conventional commit header for a ticket:
// "<type>(<scope>): <summary> [<KEY>]". The scope is the slug of the first
// component and is omitted when the ticket has none.
func CommitHeader(ticket models.JiraTicket, types map[string]string) string {
	var b strings.Builder
	b.WriteString(CommitType(ticket.Type, types))

	if len(ticket.Components) > 0 {
		if scope := Slugify(ticket.Components[0], 0); scope != "" {
			b.WriteString("(" + scope + ")")
		}
	}

	b.WriteString(": ")
	if summary := commitSummary(ticket.Title); summary != "" {
		b.WriteString(summary + " ")
	}
	b.WriteString("[" + ticket.Key + "]")
	return b.String()
}

// CommitMessage joins a header and an optional body.
func CommitMessage(header, body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return header
	}
	return header + "\n\n" + body
}

// commitSummary lower-cases the first letter of a summary unless the first
// word is an acronym, and drops trailing periods.
func commitSummary(title string) string {
	summary := strings.TrimRight(strings.TrimSpace(title), ". ")
	if summary == "" {
		return ""
	}

	firstWord, _, _ := strings.Cut(summary, " ")
	if isAcronym(firstWord) {
		return summary
	}

	r := []rune(summary)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func isAcronym(word string) bool {
	letters := 0
	for _, r := range word {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters > 1
}
