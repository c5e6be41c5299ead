// Package source normalizes upstream pull request and ticket payloads into
// one canonical record shape consumed by the risk pipeline.
package source

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	appErrors "github.com/mrz1836/compliance-copilot/internal/errors"
)

// Kind identifies the upstream artifact type.
type Kind string

// Supported source kinds.
const (
	KindPR     Kind = "PR"
	KindTicket Kind = "TICKET"
)

// ParseKind maps the accepted spellings of a source kind to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pr", "pull_request", "merge_request", "mr":
		return KindPR, nil
	case "ticket", "issue":
		return KindTicket, nil
	default:
		return "", appErrors.InvalidFieldError("source_kind", s)
	}
}

// String returns the wire form of the kind.
func (k Kind) String() string {
	return string(k)
}

// Timestamps carries upstream creation and update times. Zero values mean unknown.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// RecordFields is the mutable input used to build a CanonicalRecord.
type RecordFields struct {
	Kind              Kind
	Identifier        string
	Title             string
	Body              string
	DiffOrDescription string
	Labels            []string
	Author            string
	Timestamps        Timestamps
	ChangedFiles      []string
	Priority          string
}

// CanonicalRecord is the normalized form of a pull request or ticket.
//
// A record is immutable once built: fields are unexported and slice
// accessors return copies. ChangedFiles is only populated for pull
// requests and Priority only for tickets.
type CanonicalRecord struct {
	kind              Kind
	identifier        string
	title             string
	body              string
	diffOrDescription string
	labels            []string
	author            string
	timestamps        Timestamps
	changedFiles      []string
	priority          string
}

// NewRecord builds a CanonicalRecord from f.
// Labels are trimmed, de-duplicated and sorted; fields that do not belong
// to the record's kind are dropped.
func NewRecord(f RecordFields) *CanonicalRecord {
	rec := &CanonicalRecord{
		kind:              f.Kind,
		identifier:        strings.TrimSpace(f.Identifier),
		title:             strings.TrimSpace(f.Title),
		body:              strings.TrimSpace(f.Body),
		diffOrDescription: f.DiffOrDescription,
		labels:            normalizeSet(f.Labels, false),
		author:            strings.TrimSpace(f.Author),
		timestamps:        f.Timestamps,
	}

	switch f.Kind {
	case KindPR:
		rec.changedFiles = normalizeSet(f.ChangedFiles, true)
	case KindTicket:
		rec.diffOrDescription = strings.TrimSpace(f.DiffOrDescription)
		rec.priority = strings.TrimSpace(f.Priority)
	}

	return rec
}

// normalizeSet trims, drops blanks and duplicates, and sorts values.
func normalizeSet(values []string, paths bool) []string {
	if len(values) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if paths {
			v = strings.TrimPrefix(v, "./")
		}
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Kind returns the source kind.
func (r *CanonicalRecord) Kind() Kind { return r.kind }

// Identifier returns the upstream or derived identifier.
func (r *CanonicalRecord) Identifier() string { return r.identifier }

// Title returns the PR title or ticket summary.
func (r *CanonicalRecord) Title() string { return r.title }

// Body returns the PR description. Empty for tickets.
func (r *CanonicalRecord) Body() string { return r.body }

// DiffOrDescription returns the unified diff of a PR or the description of a ticket.
func (r *CanonicalRecord) DiffOrDescription() string { return r.diffOrDescription }

// Labels returns a copy of the sorted label set.
func (r *CanonicalRecord) Labels() []string { return slices.Clone(r.labels) }

// Author returns the upstream author handle, if known.
func (r *CanonicalRecord) Author() string { return r.author }

// Timestamps returns the upstream timestamps.
func (r *CanonicalRecord) Timestamps() Timestamps { return r.timestamps }

// ChangedFiles returns a copy of the touched paths of a PR.
func (r *CanonicalRecord) ChangedFiles() []string { return slices.Clone(r.changedFiles) }

// Priority returns the tracker priority of a ticket.
func (r *CanonicalRecord) Priority() string { return r.priority }

// HasLabel reports whether the record carries label (case-insensitive).
func (r *CanonicalRecord) HasLabel(label string) bool {
	for _, l := range r.labels {
		if strings.EqualFold(l, label) {
			return true
		}
	}
	return false
}

// Text returns every free-text field joined for keyword scanning.
func (r *CanonicalRecord) Text() string {
	return strings.Join([]string{r.title, r.body, r.diffOrDescription}, "\n")
}

// recordJSON is the wire view of a CanonicalRecord.
type recordJSON struct {
	SourceKind        Kind       `json:"source_kind"`
	Identifier        string     `json:"identifier"`
	Title             string     `json:"title"`
	Body              string     `json:"body,omitempty"`
	DiffOrDescription string     `json:"diff_or_description"`
	Labels            []string   `json:"labels"`
	Author            string     `json:"author,omitempty"`
	Timestamps        Timestamps `json:"timestamps"`
	ChangedFiles      []string   `json:"changed_files,omitempty"`
	Priority          string     `json:"priority,omitempty"`
}

// MarshalJSON renders the record for CLI output and debugging.
func (r *CanonicalRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		SourceKind:        r.kind,
		Identifier:        r.identifier,
		Title:             r.title,
		Body:              r.body,
		DiffOrDescription: r.diffOrDescription,
		Labels:            r.labels,
		Author:            r.author,
		Timestamps:        r.timestamps,
		ChangedFiles:      r.changedFiles,
		Priority:          r.priority,
	})
}
