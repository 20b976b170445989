package description

import "strings"

const divider = "---"

// splitSegments cuts raw into the line groups found between divider lines.
// Groups holding only blank lines are dropped, except that input made of
// nothing but dividers and blank lines keeps a non-empty trailing group so the
// caller still gets one section.
func splitSegments(raw string) [][]string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var segments [][]string
	var current []string

	flush := func() {
		if hasContent(current) {
			segments = append(segments, current)
		}
		current = nil
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == divider {
			flush()
			continue
		}
		current = append(current, line)
	}

	if len(segments) == 0 && len(current) > 0 && !hasContent(current) {
		return [][]string{current}
	}
	flush()

	return segments
}
