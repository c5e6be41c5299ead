package source

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/mrz1836/compliance-copilot/internal/errors"
)

const sampleDiff = `diff --git a/internal/auth/session.go b/internal/auth/session.go
index 83db48f..bf269f4 100644
--- a/internal/auth/session.go
+++ b/internal/auth/session.go
@@ -1,2 +1,3 @@
 package auth
-const ttl = 10
+const ttl = 20
+const secure = true
diff --git a/README.md b/README.md
index 1111111..2222222 100644
--- a/README.md
+++ b/README.md
@@ -1 +1 @@
-old
+new
`

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"PR", KindPR, false},
		{"pull_request", KindPR, false},
		{" merge_request ", KindPR, false},
		{"ticket", KindTicket, false},
		{"ISSUE", KindTicket, false},
		{"wiki", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, appErrors.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenericPRAdapter(t *testing.T) {
	r := NewRegistry(DefaultOptions(), nil)

	raw := []byte(`{
		"identifier": "acme/api#7",
		"title": "  Extend session ttl  ",
		"body": "Raises the session ttl",
		"diff": ` + quote(sampleDiff) + `,
		"labels": ["severity:high", "backend", "backend", " "],
		"author": "octocat",
		"files": ["./docs/notes.md"],
		"created_at": "2025-01-02T03:04:05Z"
	}`)

	rec, err := r.Adapt(KindPR, "", raw)
	require.NoError(t, err)

	assert.Equal(t, KindPR, rec.Kind())
	assert.Equal(t, "acme/api#7", rec.Identifier())
	assert.Equal(t, "Extend session ttl", rec.Title())
	assert.Equal(t, []string{"backend", "severity:high"}, rec.Labels())
	assert.Equal(t, []string{"README.md", "docs/notes.md", "internal/auth/session.go"}, rec.ChangedFiles())
	assert.Empty(t, rec.Priority())
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), rec.Timestamps().CreatedAt)
	assert.True(t, rec.Timestamps().UpdatedAt.IsZero())
	assert.True(t, rec.HasLabel("SEVERITY:HIGH"))
}

func TestGenericPRAdapterDerivesIdentifier(t *testing.T) {
	r := NewRegistry(DefaultOptions(), nil)
	raw := []byte(`{"title":"Bump deps","body":"Routine upgrade","diff":` + quote(sampleDiff) + `}`)

	first, err := r.Adapt(KindPR, FormatGeneric, raw)
	require.NoError(t, err)
	second, err := r.Adapt(KindPR, FormatGeneric, raw)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(first.Identifier(), "pr-"))
	assert.Len(t, first.Identifier(), len("pr-")+12)
	assert.Equal(t, first.Identifier(), second.Identifier())
}

func TestAdaptValidation(t *testing.T) {
	r := NewRegistry(DefaultOptions(), nil)

	tests := []struct {
		name     string
		kind     Kind
		format   string
		raw      string
		contains string
	}{
		{"malformed json", KindPR, FormatGeneric, `{"title":`, "malformed JSON"},
		{"unknown format", KindPR, "bitbucket", `{}`, "no adapter"},
		{"ticket jira on pr", KindPR, FormatJira, `{}`, "no adapter"},
		{"missing title", KindPR, FormatGeneric, `{"diff":"x"}`, "title"},
		{"whitespace title", KindPR, FormatGeneric, `{"title":"   ","diff":"x"}`, "field cannot be empty: title"},
		{"missing body", KindPR, FormatGeneric, `{"title":"t","diff":"x"}`, "field cannot be empty: body"},
		{"whitespace body", KindPR, FormatGeneric, `{"title":"t","body":" \n\t ","diff":"x"}`, "field cannot be empty: body"},
		{"body too long", KindPR, FormatGeneric, `{"title":"t","body":"` + strings.Repeat("b", 10001) + `","diff":"x"}`, "body exceeds 10000 characters"},
		{"whitespace diff", KindPR, FormatGeneric, `{"title":"t","body":"b","diff":"  \n "}`, "diff"},
		{"title too long", KindPR, FormatGeneric, `{"title":"` + strings.Repeat("a", 501) + `","diff":"x"}`, "title exceeds 500 characters"},
		{"script", KindPR, FormatGeneric, `{"title":"t","body":"b","diff":"<script>alert(1)</script>"}`, "potential XSS"},
		{"sql", KindTicket, FormatGeneric, `{"summary":"s","description":"1 UNION SELECT password"}`, "SQL injection"},
		{"ticket no description", KindTicket, FormatGeneric, `{"summary":"s"}`, "description"},
		{"github nested title", KindPR, FormatGitHub, `{"pull_request":{},"diff":"x"}`, "pull_request.title"},
		{"jira missing summary", KindTicket, FormatJira, `{"key":"OPS-1","fields":{"description":"d"}}`, "fields.summary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := r.Adapt(tt.kind, tt.format, []byte(tt.raw))
			require.Error(t, err)
			assert.Nil(t, rec)
			require.ErrorIs(t, err, appErrors.ErrValidation)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestAdaptCombinedLengthLimit(t *testing.T) {
	r := NewRegistry(Options{MaxInputLength: 20, StrictInput: true}, nil)

	_, err := r.Adapt(KindTicket, FormatGeneric, []byte(`{"summary":"short","description":"this description is too long"}`))
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Contains(t, err.Error(), "input exceeds 20 characters")
}

func TestAdaptLenientInput(t *testing.T) {
	r := NewRegistry(Options{MaxInputLength: 1000, StrictInput: false}, nil)

	rec, err := r.Adapt(KindTicket, FormatGeneric, []byte(`{"summary":"Review DROP TABLE usage","description":"migration drops a table"}`))
	require.NoError(t, err)
	assert.Equal(t, "Review DROP TABLE usage", rec.Title())
}

func TestGitHubPRAdapter(t *testing.T) {
	r := NewRegistry(DefaultOptions(), nil)
	raw := []byte(`{
		"action": "opened",
		"number": 42,
		"pull_request": {
			"title": "Rotate signing keys",
			"body": null,
			"user": {"login": "dev1"},
			"labels": [{"name": "severity:critical"}, {"name": "security"}],
			"created_at": "2025-03-01T10:00:00Z",
			"updated_at": "2025-03-02T10:00:00Z"
		},
		"repository": {"full_name": "acme/payments"},
		"diff": ` + quote(sampleDiff) + `
	}`)

	rec, err := r.Adapt(KindPR, FormatGitHub, raw)
	require.NoError(t, err)

	assert.Equal(t, "acme/payments#42", rec.Identifier())
	assert.Empty(t, rec.Body())
	assert.Equal(t, "dev1", rec.Author())
	assert.Equal(t, []string{"security", "severity:critical"}, rec.Labels())
	assert.Contains(t, rec.ChangedFiles(), "internal/auth/session.go")
}

func TestGitLabPRAdapter(t *testing.T) {
	r := NewRegistry(DefaultOptions(), nil)
	raw := []byte(`{
		"object_kind": "merge_request",
		"user": {"username": "dev2"},
		"project": {"path_with_namespace": "group/infra"},
		"object_attributes": {
			"iid": 9,
			"title": "Tighten IAM policy",
			"description": "Removes wildcard actions",
			"created_at": "2025-03-01 10:00:00 UTC"
		},
		"labels": [{"title": "priority:high"}],
		"diff": ` + quote(sampleDiff) + `
	}`)

	rec, err := r.Adapt(KindPR, FormatGitLab, raw)
	require.NoError(t, err)

	assert.Equal(t, "group/infra!9", rec.Identifier())
	assert.Equal(t, "Removes wildcard actions", rec.Body())
	assert.Equal(t, []string{"priority:high"}, rec.Labels())
	assert.False(t, rec.Timestamps().CreatedAt.IsZero())
}

func TestGenericTicketAdapter(t *testing.T) {
	r := NewRegistry(DefaultOptions(), nil)
	raw := []byte(`{"summary":"Typo on welcome page","description":"Second paragraph has a typo.","priority":" P3 ","labels":["docs"]}`)

	rec, err := r.Adapt(KindTicket, FormatGeneric, raw)
	require.NoError(t, err)

	assert.Equal(t, KindTicket, rec.Kind())
	assert.True(t, strings.HasPrefix(rec.Identifier(), "ticket-"))
	assert.Equal(t, "Second paragraph has a typo.", rec.DiffOrDescription())
	assert.Equal(t, "P3", rec.Priority())
	assert.Empty(t, rec.ChangedFiles())
}

func TestJiraTicketAdapter(t *testing.T) {
	r := NewRegistry(DefaultOptions(), nil)

	t.Run("plain description", func(t *testing.T) {
		raw := []byte(`{
			"key": "SEC-12",
			"fields": {
				"summary": "Customer data exposed in logs",
				"description": "PII written to application logs",
				"labels": ["gdpr"],
				"priority": {"name": "Highest"},
				"reporter": {"displayName": "Dana"},
				"components": [{"name": "Billing"}],
				"created": "2025-02-01T09:30:00.000+0000"
			}
		}`)

		rec, err := r.Adapt(KindTicket, FormatJira, raw)
		require.NoError(t, err)
		assert.Equal(t, "SEC-12", rec.Identifier())
		assert.Equal(t, "Highest", rec.Priority())
		assert.Equal(t, []string{"component:billing", "gdpr"}, rec.Labels())
		assert.Equal(t, "Dana", rec.Author())
		assert.Equal(t, 2025, rec.Timestamps().CreatedAt.Year())
	})

	t.Run("document description", func(t *testing.T) {
		raw := []byte(`{
			"key": "SEC-13",
			"fields": {
				"summary": "Rotate API token",
				"description": {"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"Token leaked in CI output"}]}]}
			}
		}`)

		rec, err := r.Adapt(KindTicket, FormatJira, raw)
		require.NoError(t, err)
		assert.Equal(t, "Token leaked in CI output", rec.DiffOrDescription())
	})

	t.Run("empty document description", func(t *testing.T) {
		raw := []byte(`{"key":"SEC-14","fields":{"summary":"s","description":null}}`)

		_, err := r.Adapt(KindTicket, FormatJira, raw)
		require.ErrorIs(t, err, appErrors.ErrValidation)
		assert.Contains(t, err.Error(), "fields.description")
	})
}

func TestRecordIsImmutable(t *testing.T) {
	labels := []string{"b", "a"}
	rec := NewRecord(RecordFields{Kind: KindPR, Title: "t", DiffOrDescription: "d", Labels: labels, Priority: "P1"})

	labels[0] = "mutated"
	got := rec.Labels()
	got[0] = "also mutated"

	assert.Equal(t, []string{"a", "b"}, rec.Labels())
	assert.Empty(t, rec.Priority(), "priority only applies to tickets")
}

func TestRegistryFormats(t *testing.T) {
	formats := NewRegistry(DefaultOptions(), nil).Formats()

	assert.Equal(t, []string{"generic", "github", "gitlab"}, formats[KindPR])
	assert.Equal(t, []string{"generic", "jira"}, formats[KindTicket])
}

func TestRecordMarshalJSON(t *testing.T) {
	rec := NewRecord(RecordFields{Kind: KindTicket, Identifier: "T-1", Title: "t", DiffOrDescription: "d", Priority: "P2"})

	data, err := rec.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"source_kind":"TICKET"`)
	assert.Contains(t, string(data), `"priority":"P2"`)
	assert.NotContains(t, string(data), "changed_files")
}
