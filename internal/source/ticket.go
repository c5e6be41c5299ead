package source

import (
	"encoding/json"
	"strings"
)

const itemTicket = "ticket"

// ticketFromParts validates the shared ticket invariants and builds the record.
func ticketFromParts(v *Validator, f RecordFields) (*CanonicalRecord, error) {
	if err := v.CheckSafety(f.Title, f.DiffOrDescription); err != nil {
		return nil, err
	}

	f.Kind = KindTicket
	if strings.TrimSpace(f.Identifier) == "" {
		f.Identifier = DeriveIdentifier(KindTicket, f.Title, f.DiffOrDescription)
	}

	return NewRecord(f), nil
}

type genericTicketPayload struct {
	Identifier  string   `json:"identifier" validate:"max=200"`
	Summary     string   `json:"summary" validate:"required,max=500"`
	Description string   `json:"description" validate:"required,max=10000"`
	Labels      []string `json:"labels" validate:"max=100,dive,max=100"`
	Author      string   `json:"author" validate:"max=200"`
	Priority    string   `json:"priority" validate:"max=50"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// genericTicketAdapter accepts the service's own flat ticket shape.
type genericTicketAdapter struct{}

func (genericTicketAdapter) Kind() Kind     { return KindTicket }
func (genericTicketAdapter) Format() string { return FormatGeneric }

func (genericTicketAdapter) Adapt(raw []byte, v *Validator) (*CanonicalRecord, error) {
	p, err := decode[genericTicketPayload](itemTicket, raw)
	if err != nil {
		return nil, err
	}
	trimAll(&p.Identifier, &p.Summary, &p.Description, &p.Author, &p.Priority)

	if err = v.Struct(itemTicket, p); err != nil {
		return nil, err
	}

	return ticketFromParts(v, RecordFields{
		Identifier:        p.Identifier,
		Title:             p.Summary,
		DiffOrDescription: p.Description,
		Labels:            p.Labels,
		Author:            p.Author,
		Priority:          p.Priority,
		Timestamps:        parseTimestamps(p.CreatedAt, p.UpdatedAt),
	})
}

type jiraIssuePayload struct {
	Key    string `json:"key" validate:"max=200"`
	Fields struct {
		Summary     string          `json:"summary" validate:"required,max=500"`
		RawDesc     json.RawMessage `json:"description" validate:"-"`
		Description string          `json:"-" validate:"required,max=10000"`
		Labels      []string        `json:"labels" validate:"max=100,dive,max=100"`
		Priority    struct {
			Name string `json:"name"`
		} `json:"priority"`
		Reporter struct {
			DisplayName string `json:"displayName"`
		} `json:"reporter"`
		Components []struct {
			Name string `json:"name"`
		} `json:"components"`
		Created string `json:"created"`
		Updated string `json:"updated"`
	} `json:"fields"`
}

// jiraTicketAdapter accepts a Jira issue as returned by the REST API.
// Descriptions may be plain strings (API v2) or Atlassian Document Format (API v3).
type jiraTicketAdapter struct{}

func (jiraTicketAdapter) Kind() Kind     { return KindTicket }
func (jiraTicketAdapter) Format() string { return FormatJira }

func (jiraTicketAdapter) Adapt(raw []byte, v *Validator) (*CanonicalRecord, error) {
	p, err := decode[jiraIssuePayload](itemTicket, raw)
	if err != nil {
		return nil, err
	}
	f := &p.Fields
	f.Description = jiraText(f.RawDesc)
	trimAll(&p.Key, &f.Summary, &f.Description, &f.Priority.Name, &f.Reporter.DisplayName)

	if err = v.Struct(itemTicket, p); err != nil {
		return nil, err
	}

	labels := append([]string{}, f.Labels...)
	for _, c := range f.Components {
		if name := strings.TrimSpace(c.Name); name != "" {
			labels = append(labels, "component:"+strings.ToLower(name))
		}
	}

	return ticketFromParts(v, RecordFields{
		Identifier:        p.Key,
		Title:             f.Summary,
		DiffOrDescription: f.Description,
		Labels:            labels,
		Author:            f.Reporter.DisplayName,
		Priority:          f.Priority.Name,
		Timestamps:        parseTimestamps(f.Created, f.Updated),
	})
}

// jiraText flattens a description that is either a JSON string or an ADF document.
func jiraText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}
	var b strings.Builder
	collectADFText(doc, &b)
	return b.String()
}

func collectADFText(node interface{}, b *strings.Builder) {
	switch n := node.(type) {
	case map[string]interface{}:
		if text, ok := n["text"].(string); ok {
			b.WriteString(text)
		}
		if content, ok := n["content"].([]interface{}); ok {
			for _, child := range content {
				collectADFText(child, b)
			}
		}
		if typ, _ := n["type"].(string); typ == "paragraph" || typ == "heading" || typ == "listItem" {
			b.WriteString("\n")
		}
	case []interface{}:
		for _, child := range n {
			collectADFText(child, b)
		}
	}
}
