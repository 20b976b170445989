package description

// Sanitize collapses every run of blank lines into its first line. Non-blank
// lines pass through unchanged and order is preserved.
func Sanitize(lines []string) []string {
	out := make([]string, 0, len(lines))
	previousBlank := false
	for _, line := range lines {
		blank := isBlank(line)
		if blank && previousBlank {
			continue
		}
		out = append(out, line)
		previousBlank = blank
	}
	return out
}
