package source

import (
	"strings"
	"time"
)

// timestampLayouts covers RFC 3339 plus the GitLab and Jira variants seen in webhooks.
//
//nolint:gochecknoglobals // read-only layout table
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
}

// parseTimestamp returns the UTC time for s, or the zero time when s is empty or unrecognized.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func parseTimestamps(created, updated string) Timestamps {
	return Timestamps{CreatedAt: parseTimestamp(created), UpdatedAt: parseTimestamp(updated)}
}
