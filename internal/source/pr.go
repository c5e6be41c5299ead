package source

import (
	"fmt"
	"strings"
)

const itemPR = "pull request"

// prFromParts validates the shared PR invariants and builds the record.
func prFromParts(v *Validator, f RecordFields, upstreamFiles []string) (*CanonicalRecord, error) {
	if err := v.CheckSafety(f.Title, f.Body, f.DiffOrDescription); err != nil {
		return nil, err
	}

	files := append([]string{}, upstreamFiles...)
	if stats, ok := ParseDiff(f.DiffOrDescription); ok {
		files = append(files, stats.Paths()...)
	}
	f.ChangedFiles = files
	f.Kind = KindPR

	if strings.TrimSpace(f.Identifier) == "" {
		f.Identifier = DeriveIdentifier(KindPR, f.Title, f.Body, f.DiffOrDescription)
	}

	return NewRecord(f), nil
}

// blankToEmpty turns whitespace-only diffs into "" so required checks fire.
func blankToEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}

type genericPRPayload struct {
	Identifier string   `json:"identifier" validate:"max=200"`
	Title      string   `json:"title" validate:"required,max=500"`
	Body       string   `json:"body" validate:"required,max=10000"`
	Diff       string   `json:"diff" validate:"required,max=100000"`
	Labels     []string `json:"labels" validate:"max=100,dive,max=100"`
	Author     string   `json:"author" validate:"max=200"`
	Files      []string `json:"files" validate:"max=5000"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
}

// genericPRAdapter accepts the service's own flat PR shape.
type genericPRAdapter struct{}

func (genericPRAdapter) Kind() Kind     { return KindPR }
func (genericPRAdapter) Format() string { return FormatGeneric }

func (genericPRAdapter) Adapt(raw []byte, v *Validator) (*CanonicalRecord, error) {
	p, err := decode[genericPRPayload](itemPR, raw)
	if err != nil {
		return nil, err
	}
	trimAll(&p.Identifier, &p.Title, &p.Body, &p.Author)
	p.Diff = blankToEmpty(p.Diff)

	if err = v.Struct(itemPR, p); err != nil {
		return nil, err
	}

	return prFromParts(v, RecordFields{
		Identifier:        p.Identifier,
		Title:             p.Title,
		Body:              p.Body,
		DiffOrDescription: p.Diff,
		Labels:            p.Labels,
		Author:            p.Author,
		Timestamps:        parseTimestamps(p.CreatedAt, p.UpdatedAt),
	}, p.Files)
}

type gitHubLabel struct {
	Name string `json:"name" validate:"max=100"`
}

type gitHubPRPayload struct {
	Number      int `json:"number"`
	PullRequest struct {
		Number int    `json:"number"`
		Title  string `json:"title" validate:"required,max=500"`
		Body   string `json:"body" validate:"max=10000"`
		User   struct {
			Login string `json:"login"`
		} `json:"user"`
		Labels    []gitHubLabel `json:"labels" validate:"max=100,dive"`
		CreatedAt string        `json:"created_at"`
		UpdatedAt string        `json:"updated_at"`
	} `json:"pull_request"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	Diff  string   `json:"diff" validate:"required,max=100000"`
	Files []string `json:"files" validate:"max=5000"`
}

// gitHubPRAdapter accepts a GitHub pull_request webhook event with the diff attached.
type gitHubPRAdapter struct{}

func (gitHubPRAdapter) Kind() Kind     { return KindPR }
func (gitHubPRAdapter) Format() string { return FormatGitHub }

func (gitHubPRAdapter) Adapt(raw []byte, v *Validator) (*CanonicalRecord, error) {
	p, err := decode[gitHubPRPayload](itemPR, raw)
	if err != nil {
		return nil, err
	}
	pr := &p.PullRequest
	trimAll(&pr.Title, &pr.Body, &pr.User.Login, &p.Repository.FullName)
	p.Diff = blankToEmpty(p.Diff)

	if err = v.Struct(itemPR, p); err != nil {
		return nil, err
	}

	number := pr.Number
	if number == 0 {
		number = p.Number
	}
	identifier := ""
	if number > 0 {
		identifier = fmt.Sprintf("%s#%d", p.Repository.FullName, number)
	}

	labels := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, l.Name)
	}

	return prFromParts(v, RecordFields{
		Identifier:        identifier,
		Title:             pr.Title,
		Body:              pr.Body,
		DiffOrDescription: p.Diff,
		Labels:            labels,
		Author:            pr.User.Login,
		Timestamps:        parseTimestamps(pr.CreatedAt, pr.UpdatedAt),
	}, p.Files)
}

type gitLabLabel struct {
	Title string `json:"title" validate:"max=100"`
}

type gitLabMRPayload struct {
	ObjectAttributes struct {
		IID         int    `json:"iid"`
		Title       string `json:"title" validate:"required,max=500"`
		Description string `json:"description" validate:"max=10000"`
		CreatedAt   string `json:"created_at"`
		UpdatedAt   string `json:"updated_at"`
	} `json:"object_attributes"`
	User struct {
		Username string `json:"username"`
	} `json:"user"`
	Project struct {
		PathWithNamespace string `json:"path_with_namespace"`
	} `json:"project"`
	Labels []gitLabLabel `json:"labels" validate:"max=100,dive"`
	Diff   string        `json:"diff" validate:"required,max=100000"`
	Files  []string      `json:"files" validate:"max=5000"`
}

// gitLabPRAdapter accepts a GitLab merge request hook with the diff attached.
type gitLabPRAdapter struct{}

func (gitLabPRAdapter) Kind() Kind     { return KindPR }
func (gitLabPRAdapter) Format() string { return FormatGitLab }

func (gitLabPRAdapter) Adapt(raw []byte, v *Validator) (*CanonicalRecord, error) {
	p, err := decode[gitLabMRPayload](itemPR, raw)
	if err != nil {
		return nil, err
	}
	mr := &p.ObjectAttributes
	trimAll(&mr.Title, &mr.Description, &p.User.Username, &p.Project.PathWithNamespace)
	p.Diff = blankToEmpty(p.Diff)

	if err = v.Struct(itemPR, p); err != nil {
		return nil, err
	}

	identifier := ""
	if mr.IID > 0 {
		identifier = fmt.Sprintf("%s!%d", p.Project.PathWithNamespace, mr.IID)
	}

	labels := make([]string, 0, len(p.Labels))
	for _, l := range p.Labels {
		labels = append(labels, l.Title)
	}

	return prFromParts(v, RecordFields{
		Identifier:        identifier,
		Title:             mr.Title,
		Body:              mr.Description,
		DiffOrDescription: p.Diff,
		Labels:            labels,
		Author:            p.User.Username,
		Timestamps:        parseTimestamps(mr.CreatedAt, mr.UpdatedAt),
	}, p.Files)
}
