package github

import (
	"fmt"
	"regexp"
	"strings"
)

// ParseRemoteURL extracts "owner/repo" from a git remote URL on the given
// domain. SSH (git@host:owner/repo.git, ssh://git@host/owner/repo) and HTTPS
// forms are accepted.
func ParseRemoteURL(remote, domain string) (string, error) {
	if domain == "" {
		domain = DefaultDomain
	}

	escapedDomain := regexp.QuoteMeta(domain)
	pattern := fmt.Sprintf(`^(?:(?:https?|ssh)://(?:[^@/]+@)?|[^@/:]+@)%s(?::\d+)?[:/]([^/]+)/([^/]+?)(?:\.git)?/?$`, escapedDomain)
	re := regexp.MustCompile(pattern)

	matches := re.FindStringSubmatch(strings.TrimSpace(remote))
	if matches == nil {
		return "", fmt.Errorf("%w: remote %q is not a %s repository", ErrInvalidRepository, remote, domain)
	}
	return matches[1] + "/" + matches[2], nil
}
