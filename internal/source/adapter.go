package source

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	appErrors "github.com/mrz1836/compliance-copilot/internal/errors"
	"github.com/mrz1836/compliance-copilot/internal/jsonutil"
	"github.com/mrz1836/compliance-copilot/internal/logging"
)

// Formats understood by the built-in adapters.
const (
	FormatGeneric = "generic"
	FormatGitHub  = "github"
	FormatGitLab  = "gitlab"
	FormatJira    = "jira"
)

// DefaultMaxInputLength caps the combined text of a submission.
const DefaultMaxInputLength = 50000

// Adapter converts one upstream payload shape into a CanonicalRecord.
// Implementations must be side-effect free and safe for concurrent use.
type Adapter interface {
	// Kind returns the source kind produced by this adapter.
	Kind() Kind

	// Format returns the upstream format name (e.g. "github").
	Format() string

	// Adapt decodes and validates raw. Every failure wraps errors.ErrValidation.
	Adapt(raw []byte, v *Validator) (*CanonicalRecord, error)
}

// Options controls input limits applied to every adapted record.
type Options struct {
	// MaxInputLength caps title + body + diff/description in characters.
	MaxInputLength int

	// StrictInput rejects content that looks like script or SQL injection.
	StrictInput bool
}

// DefaultOptions returns the limits used by the service out of the box.
func DefaultOptions() Options {
	return Options{MaxInputLength: DefaultMaxInputLength, StrictInput: true}
}

type adapterKey struct {
	kind   Kind
	format string
}

// Registry dispatches payloads to the adapter registered for a (kind, format) pair.
type Registry struct {
	adapters  map[adapterKey]Adapter
	validator *Validator
	logger    *logrus.Entry
}

// NewRegistry creates a registry holding the built-in adapters.
func NewRegistry(opts Options, logger *logrus.Entry) *Registry {
	if logger == nil {
		logger = logging.Discard()
	}
	if opts.MaxInputLength <= 0 {
		opts.MaxInputLength = DefaultMaxInputLength
	}

	r := &Registry{
		adapters:  make(map[adapterKey]Adapter),
		validator: NewValidator(opts),
		logger:    logger.WithField(logging.StandardFields.Component, logging.ComponentNames.Adapter),
	}

	for _, a := range []Adapter{
		genericPRAdapter{},
		gitHubPRAdapter{},
		gitLabPRAdapter{},
		genericTicketAdapter{},
		jiraTicketAdapter{},
	} {
		r.Register(a)
	}

	return r
}

// Register adds or replaces the adapter for a.Kind() and a.Format().
func (r *Registry) Register(a Adapter) {
	r.adapters[adapterKey{kind: a.Kind(), format: strings.ToLower(a.Format())}] = a
}

// Formats lists the registered formats per kind, sorted.
func (r *Registry) Formats() map[Kind][]string {
	out := make(map[Kind][]string)
	for key := range r.adapters {
		out[key.kind] = append(out[key.kind], key.format)
	}
	for k := range out {
		sort.Strings(out[k])
	}
	return out
}

// Adapt converts raw into a CanonicalRecord using the adapter for kind and format.
// An empty format selects the generic adapter.
func (r *Registry) Adapt(kind Kind, format string, raw []byte) (*CanonicalRecord, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatGeneric
	}

	a, ok := r.adapters[adapterKey{kind: kind, format: format}]
	if !ok {
		return nil, appErrors.ValidationError("source", fmt.Sprintf("no adapter for kind %q and format %q", kind, format))
	}

	rec, err := a.Adapt(raw, r.validator)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			logging.StandardFields.SourceKind: kind,
			logging.StandardFields.SourceName: format,
			logging.StandardFields.Error:      err.Error(),
		}).Debug("Payload rejected")
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		logging.StandardFields.SourceKind: kind,
		logging.StandardFields.SourceName: format,
		logging.StandardFields.Identifier: rec.Identifier(),
		logging.StandardFields.FileCount:  len(rec.changedFiles),
	}).Debug("Payload adapted")

	return rec, nil
}

// Validator applies struct-tag validation and the input safety policy.
type Validator struct {
	validate *validator.Validate
	opts     Options
}

// suspiciousPatterns are rejected when StrictInput is on.
//
//nolint:gochecknoglobals // compiled once, read-only
var suspiciousPatterns = []struct {
	re     *regexp.Regexp
	reason string
}{
	{regexp.MustCompile(`(?i)<script`), "potential XSS attempt detected"},
	{regexp.MustCompile(`(?i)javascript:`), "potential XSS attempt detected"},
	{regexp.MustCompile(`(?i)(union\s+select|drop\s+table)`), "potential SQL injection detected"},
}

// NewValidator creates a validator reporting field names by their JSON tag.
func NewValidator(opts Options) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return strings.ToLower(fld.Name)
		}
		return name
	})
	return &Validator{validate: v, opts: opts}
}

// Struct validates payload and converts the first failure into a validation error.
func (v *Validator) Struct(item string, payload interface{}) error {
	err := v.validate.Struct(payload)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return appErrors.ValidationError(item, err.Error())
	}

	fe := verrs[0]
	field := fieldPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		if fe.Value() == "" {
			return appErrors.EmptyFieldError(field)
		}
		return appErrors.RequiredFieldError(field)
	case "max":
		limit, _ := strconv.Atoi(fe.Param())
		return appErrors.FieldTooLongError(field, limit)
	default:
		return appErrors.InvalidFieldError(field, fmt.Sprintf("failed %q", fe.Tag()))
	}
}

// fieldPath drops the top-level struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// CheckSafety enforces the combined length limit and, in strict mode,
// rejects suspicious content.
func (v *Validator) CheckSafety(texts ...string) error {
	total := 0
	for _, t := range texts {
		total += len([]rune(t))
	}
	if total > v.opts.MaxInputLength {
		return appErrors.FieldTooLongError("input", v.opts.MaxInputLength)
	}

	if !v.opts.StrictInput {
		return nil
	}
	for _, t := range texts {
		for _, p := range suspiciousPatterns {
			if p.re.MatchString(t) {
				return appErrors.UnsafeInputError(p.reason)
			}
		}
	}
	return nil
}

// decode strictly decodes raw into T, mapping decoder failures to validation errors.
func decode[T any](item string, raw []byte) (T, error) {
	payload, err := jsonutil.UnmarshalJSON[T](raw)
	if err != nil {
		return payload, appErrors.ValidationError(item, "malformed JSON payload")
	}
	return payload, nil
}

// DeriveIdentifier returns a stable identifier for a payload that carries none.
func DeriveIdentifier(kind Kind, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(kind))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	prefix := "ticket"
	if kind == KindPR {
		prefix = "pr"
	}
	return prefix + "-" + hex.EncodeToString(h.Sum(nil))[:12]
}

// trimAll trims surrounding whitespace from every string pointer.
func trimAll(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
