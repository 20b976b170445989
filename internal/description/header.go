package description

import (
	"regexp"
	"strings"
)

// inlineLabelPattern matches a short label followed by ": " and text on the
// same line, e.g. "Title: This is a title".
var inlineLabelPattern = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} &/()'_-]{0,39}:\s+\S`)

// segmentHeader is the result of parsing one segment.
type segmentHeader struct {
	titleFound   bool
	title        string
	contentLines []string
}

// headerPredicate reports whether line is a header and, if so, its title.
type headerPredicate func(f *Formatter, line string) (string, bool)

// headerPredicates are evaluated in order; the first match wins.
var headerPredicates = []headerPredicate{
	endsWithColon,
	inlineLabel,
	knownKeyword,
}

func endsWithColon(_ *Formatter, line string) (string, bool) {
	if !strings.HasSuffix(line, ":") {
		return "", false
	}
	label := strings.TrimSpace(strings.TrimSuffix(line, ":"))
	return label, label != ""
}

func inlineLabel(_ *Formatter, line string) (string, bool) {
	if !inlineLabelPattern.MatchString(line) {
		return "", false
	}
	return line, true
}

func knownKeyword(f *Formatter, line string) (string, bool) {
	for _, keyword := range f.keywords() {
		if line == keyword {
			return keyword, true
		}
	}
	return "", false
}

// headerTitle classifies a single trimmed line. Checkbox lines are never
// headers.
func (f *Formatter) headerTitle(line string) (string, bool) {
	if line == "" || checkboxPattern.MatchString(line) {
		return "", false
	}
	for _, predicate := range headerPredicates {
		if title, ok := predicate(f, line); ok {
			return title, true
		}
	}
	return "", false
}

// parseSegment extracts the title of a segment. When the first non-blank line
// is a header it is removed and everything after it is kept verbatim,
// including a blank line directly below the header. Otherwise the whole
// segment is content under the fallback title.
func (f *Formatter) parseSegment(lines []string) segmentHeader {
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		title, ok := f.headerTitle(trimmed)
		if !ok {
			break
		}
		rest := lines[i+1:]
		if !hasContent(rest) {
			rest = nil
		}
		return segmentHeader{
			titleFound:   true,
			title:        title,
			contentLines: append([]string(nil), rest...),
		}
	}

	return segmentHeader{
		title:        f.fallbackTitle(),
		contentLines: append([]string(nil), lines...),
	}
}
