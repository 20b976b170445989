// Package description turns free-text issue descriptions into titled sections
// and renders them to a console.
//
// A description is split into segments on divider lines (---). The first
// non-blank line of each segment may be a header; otherwise the segment gets
// the fallback title. Within a section, runs of blank lines are collapsed and
// checkbox lines ([ ], [x]) are rendered as lists while everything else is
// rendered as paragraphs.
package description

import "strings"

// DefaultFallbackTitle is used for sections without a recognised header line.
const DefaultFallbackTitle = "Details"

// DefaultHeaderKeywords are standalone lines recognised as section headers even
// without a trailing colon. Matching is exact and case-sensitive. More
// keywords can be configured with description.header_keywords.
var DefaultHeaderKeywords = []string{
	"User Story",
	"Description & Implementation Logic",
}

// Section is one titled block of a description.
type Section struct {
	Title        string
	ContentLines []string
}

// Formatter splits descriptions into sections. The zero value is ready to use
// and falls back to DefaultHeaderKeywords and DefaultFallbackTitle.
type Formatter struct {
	Keywords      []string
	FallbackTitle string
}

// NewFormatter returns a formatter recognising the given header keywords.
// An empty keyword list selects DefaultHeaderKeywords.
func NewFormatter(keywords []string) *Formatter {
	return &Formatter{Keywords: keywords}
}

// Format parses raw with the default formatter.
func Format(raw string) []Section {
	return (&Formatter{}).Format(raw)
}

// Display renders raw to sink with the default formatter.
func Display(sink Sink, raw string) {
	(&Formatter{}).Display(sink, raw)
}

// Format splits raw into sections. Blank input yields no sections.
func (f *Formatter) Format(raw string) []Section {
	segments := splitSegments(raw)
	sections := make([]Section, 0, len(segments))
	for _, segment := range segments {
		parsed := f.parseSegment(segment)
		sections = append(sections, Section{
			Title:        parsed.title,
			ContentLines: parsed.contentLines,
		})
	}
	return sections
}

// Display writes one heading per section followed by its paragraphs and lists.
func (f *Formatter) Display(sink Sink, raw string) {
	if strings.TrimSpace(raw) == "" {
		return
	}
	for _, section := range f.Format(raw) {
		sink.Section(section.Title)
		renderContent(sink, Sanitize(section.ContentLines))
	}
}

func (f *Formatter) keywords() []string {
	if len(f.Keywords) == 0 {
		return DefaultHeaderKeywords
	}
	return f.Keywords
}

func (f *Formatter) fallbackTitle() string {
	if f.FallbackTitle == "" {
		return DefaultFallbackTitle
	}
	return f.FallbackTitle
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

func hasContent(lines []string) bool {
	for _, line := range lines {
		if !isBlank(line) {
			return true
		}
	}
	return false
}
