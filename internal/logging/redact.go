package logging

import (
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// redactedPlaceholder replaces secrets in log output.
const redactedPlaceholder = "***REDACTED***"

// piiPattern pairs a detector with the label reported when it matches.
type piiPattern struct {
	re    *regexp.Regexp
	label string
}

// RedactionService handles sensitive data redaction for logs and prompts.
//
// Two passes are offered:
//   - RedactSensitive removes credentials from log lines while keeping enough
//     context (parameter names, header names) for debugging.
//   - MaskPII removes personal data and secrets from free text before it is
//     sent to a language-model backend.
//
// The service holds only pre-compiled patterns and is safe for concurrent use.
type RedactionService struct {
	tokenPrefixes   []*regexp.Regexp
	authHeader      *regexp.Regexp
	jwt             *regexp.Regexp
	urlPassword     *regexp.Regexp
	urlParam        *regexp.Regexp
	base64Secret    *regexp.Regexp
	envAssignment   *regexp.Regexp
	privateKey      *regexp.Regexp
	piiPatterns     []piiPattern
	sensitiveFields []string
}

// NewRedactionService creates a new redaction service with all patterns compiled.
func NewRedactionService() *RedactionService {
	return &RedactionService{
		tokenPrefixes: []*regexp.Regexp{
			regexp.MustCompile(`ghp_[a-zA-Z0-9]{4,}`),
			regexp.MustCompile(`ghs_[a-zA-Z0-9]{4,}`),
			regexp.MustCompile(`github_pat_[a-zA-Z0-9_]{4,}`),
			regexp.MustCompile(`ghr_[a-zA-Z0-9]{4,}`),
			regexp.MustCompile(`sk-(?:ant-)?[a-zA-Z0-9_-]{8,}`),
			regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
		},
		authHeader:    regexp.MustCompile(`(Bearer|Token)\s+([^\s'"]+)`),
		jwt:           regexp.MustCompile(`JWT\s+([a-zA-Z0-9_.-]{20,})`),
		urlPassword:   regexp.MustCompile(`://([^:/\s]+):([^@\s]+)@`),
		urlParam:      regexp.MustCompile(`(password|token|secret|key|api_key)=([^\s&]+)`),
		base64Secret:  regexp.MustCompile(`\b([a-zA-Z0-9+/]{40,}={0,2})`),
		envAssignment: regexp.MustCompile(`([A-Z_]*(?:TOKEN|SECRET|KEY|PASSWORD|PASS)[A-Z_]*=)([^\s]+)`),
		privateKey:    regexp.MustCompile(`-----BEGIN[A-Z\s]+PRIVATE KEY-----[\s\S]*?-----END[A-Z\s]+PRIVATE KEY-----`),
		piiPatterns: []piiPattern{
			{regexp.MustCompile(`-----BEGIN[A-Z\s]+PRIVATE KEY-----[\s\S]*?-----END[A-Z\s]+PRIVATE KEY-----`), "PRIVATE_KEY"},
			{regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "SSN"},
			{regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`), "CREDIT_CARD"},
			{regexp.MustCompile(`\b\d{9}\b`), "SSN_NO_DASH"},
			{regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*['"]?([A-Za-z0-9_-]{16,})['"]?`), "API_KEY"},
			{regexp.MustCompile(`(?i)(secret[_-]?key|secretkey)\s*[:=]\s*['"]?([A-Za-z0-9_-]{16,})['"]?`), "SECRET_KEY"},
			{regexp.MustCompile(`(?i)(access[_-]?token|accesstoken)\s*[:=]\s*['"]?([A-Za-z0-9_.-]{16,})['"]?`), "ACCESS_TOKEN"},
			{regexp.MustCompile(`(?i)bearer\s+([A-Za-z0-9_.-]{16,})`), "BEARER_TOKEN"},
			{regexp.MustCompile(`AKIA[0-9A-Z]{16}`), "AWS_ACCESS_KEY"},
			{regexp.MustCompile(`(?i)aws[_-]?secret[_-]?access[_-]?key['"]?\s*[:=]\s*['"]?([A-Za-z0-9/+=]{40})['"]?`), "AWS_SECRET_KEY"},
			{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "EMAIL"},
			{regexp.MustCompile(`\b(\+?1[-.]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`), "PHONE"},
			{regexp.MustCompile(`\b10\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`), "PRIVATE_IP"},
			{regexp.MustCompile(`\b172\.(1[6-9]|2[0-9]|3[0-1])\.\d{1,3}\.\d{1,3}\b`), "PRIVATE_IP"},
			{regexp.MustCompile(`\b192\.168\.\d{1,3}\.\d{1,3}\b`), "PRIVATE_IP"},
			{regexp.MustCompile(`(?i)(password|passwd|pwd)\s*[:=]\s*['"]?([^\s'"]{8,})['"]?`), "PASSWORD"},
		},
		sensitiveFields: []string{
			"password", "passwd", "pwd", "pass",
			"token", "secret", "api_key", "apikey", "private_key",
			"authorization", "auth", "credential", "credentials",
			"cert", "certificate", "pem",
			"oauth", "jwt", "bearer", "refresh_token", "access_token",
			"connection_string", "database_url", "dsn",
		},
	}
}

// RedactSensitive removes credentials from text using pattern matching.
//
// Redaction Strategy:
// - Known token prefixes keep the prefix (e.g. "ghp_***REDACTED***")
// - Headers and URL parameters keep their names, values are redacted
// - Private keys and long base64 blobs are replaced entirely
func (r *RedactionService) RedactSensitive(text string) string {
	if text == "" {
		return text
	}

	for _, pattern := range r.tokenPrefixes {
		text = pattern.ReplaceAllStringFunc(text, func(match string) string {
			for _, prefix := range []string{"github_pat_", "ghp_", "ghs_", "ghr_", "sk-ant-", "sk-", "AKIA"} {
				if strings.HasPrefix(match, prefix) {
					return prefix + redactedPlaceholder
				}
			}
			return redactedPlaceholder
		})
	}

	text = r.privateKey.ReplaceAllString(text, "***REDACTED_PRIVATE_KEY***")
	text = r.authHeader.ReplaceAllString(text, "$1 "+redactedPlaceholder)
	text = r.jwt.ReplaceAllString(text, "JWT "+redactedPlaceholder)
	text = r.urlPassword.ReplaceAllString(text, "://$1:"+redactedPlaceholder+"@")
	text = r.urlParam.ReplaceAllString(text, "$1="+redactedPlaceholder)
	text = r.base64Secret.ReplaceAllStringFunc(text, func(match string) string {
		if strings.Contains(match, redactedPlaceholder) {
			return match
		}
		// sha256 fingerprints are identifiers, not secrets
		if len(match) == 64 && isLowerHex(match) {
			return match
		}
		return redactedPlaceholder
	})
	text = r.envAssignment.ReplaceAllString(text, "$1"+redactedPlaceholder)

	return text
}

func isLowerHex(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// MaskPII masks personal data and secrets in free text before it leaves the process.
//
// When keepLabels is true the placeholder names what was removed
// ("[REDACTED:EMAIL]"), otherwise a bare "[REDACTED]" is used.
// The returned map counts redactions per label.
func (r *RedactionService) MaskPII(text string, keepLabels bool) (string, map[string]int) {
	counts := make(map[string]int)
	if text == "" {
		return text, counts
	}

	for _, p := range r.piiPatterns {
		matches := p.re.FindAllStringIndex(text, -1)
		if len(matches) == 0 {
			continue
		}
		counts[p.label] += len(matches)
		replacement := "[REDACTED]"
		if keepLabels {
			replacement = "[REDACTED:" + p.label + "]"
		}
		text = p.re.ReplaceAllLiteralString(text, replacement)
	}

	return text, counts
}

// IsSensitiveField checks if a field name indicates sensitive data.
func (r *RedactionService) IsSensitiveField(fieldName string) bool {
	fieldLower := strings.ToLower(fieldName)
	for _, sensitive := range r.sensitiveFields {
		if strings.Contains(fieldLower, sensitive) {
			return true
		}
	}
	return false
}

// CreateHook creates a logrus hook for automatic redaction.
func (r *RedactionService) CreateHook() logrus.Hook {
	return &RedactionHook{service: r}
}

// RedactionHook automatically redacts sensitive data in log entries.
type RedactionHook struct {
	service *RedactionService
}

// Levels returns the log levels this hook should process.
func (h *RedactionHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire redacts the message and every field value of a log entry.
func (h *RedactionHook) Fire(entry *logrus.Entry) error {
	entry.Message = h.service.RedactSensitive(entry.Message)

	for key, value := range entry.Data {
		entry.Data[key] = h.redactValue(key, value, 0)
	}

	return nil
}

// maxRedactDepth bounds recursion into nested field values.
const maxRedactDepth = 8

func (h *RedactionHook) redactValue(key string, value interface{}, depth int) interface{} {
	if depth > maxRedactDepth {
		return redactedPlaceholder
	}

	if key != "" && h.service.IsSensitiveField(key) {
		if str, ok := value.(string); ok {
			redacted := h.service.RedactSensitive(str)
			if redacted == str {
				return redactedPlaceholder
			}
			return redacted
		}
		return redactedPlaceholder
	}

	switch v := value.(type) {
	case string:
		return h.service.RedactSensitive(v)
	case error:
		return h.service.RedactSensitive(v.Error())
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for nestedKey, nestedValue := range v {
			result[nestedKey] = h.redactValue(nestedKey, nestedValue, depth+1)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = h.redactValue("", item, depth+1)
		}
		return result
	default:
		return value
	}
}

// AuditLogger records compliance-relevant events: what was analyzed, what
// level it received and what was redacted before leaving the process.
type AuditLogger struct {
	logger *logrus.Entry
}

// NewAuditLogger creates a new audit logger writing through logger.
func NewAuditLogger(logger *logrus.Entry) *AuditLogger {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &AuditLogger{
		logger: logger.WithField(StandardFields.Component, "audit"),
	}
}

// LogSummary records a generated (or cache-served) risk summary.
func (a *AuditLogger) LogSummary(identifier, fingerprint, level, backend string, cacheResult string) {
	a.logger.WithFields(logrus.Fields{
		"event":                    "risk_summary",
		StandardFields.Identifier:  identifier,
		StandardFields.Fingerprint: fingerprint,
		StandardFields.RiskLevel:   level,
		StandardFields.Backend:     backend,
		StandardFields.CacheResult: cacheResult,
		"time":                     time.Now().Unix(),
	}).Info("Risk summary served")
}

// LogRedaction records how much personal data was masked from a prompt.
func (a *AuditLogger) LogRedaction(identifier string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	fields := make(map[string]interface{}, len(counts))
	for label, n := range counts {
		fields[label] = n
	}
	a.logger.WithFields(logrus.Fields{
		"event":                   "pii_redaction",
		StandardFields.Identifier: identifier,
		"redactions":              fields,
		"time":                    time.Now().Unix(),
	}).Info("Sensitive data masked before summarization")
}
