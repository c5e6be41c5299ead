package logging

// StandardFields defines the standardized field names for structured logging
// across all components to ensure consistency and enable better log analysis.
//
//nolint:gochecknoglobals // Intentional global constants for standardized field names
var StandardFields = struct {
	// Timing and Performance
	DurationMs string
	Timestamp  string

	// Operation Context
	Component     string
	Operation     string
	CorrelationID string
	RequestID     string

	// Pipeline Identifiers
	SourceKind  string
	SourceName  string
	Identifier  string
	Fingerprint string
	RiskLevel   string
	RiskScore   string
	Backend     string
	CacheResult string
	Attempt     string

	// HTTP
	Method   string
	Path     string
	Status   string
	ClientIP string

	// Content and Size Metrics
	ContentSize string
	FileCount   string

	// Error Information
	Error     string
	ErrorType string
	ErrorCode string
}{
	DurationMs: "duration_ms",
	Timestamp:  "@timestamp",

	Component:     "component",
	Operation:     "operation",
	CorrelationID: "correlation_id",
	RequestID:     "request_id",

	SourceKind:  "source_kind",
	SourceName:  "source",
	Identifier:  "identifier",
	Fingerprint: "fingerprint",
	RiskLevel:   "risk_level",
	RiskScore:   "risk_score",
	Backend:     "backend",
	CacheResult: "cache_result",
	Attempt:     "attempt",

	Method:   "method",
	Path:     "path",
	Status:   "status",
	ClientIP: "client_ip",

	ContentSize: "content_size",
	FileCount:   "file_count",

	Error:     "error",
	ErrorType: "error_type",
	ErrorCode: "error_code",
}

// ComponentNames defines standardized component names for logging consistency
//
//nolint:gochecknoglobals // Intentional global constants for standardized component names
var ComponentNames = struct {
	API          string
	Adapter      string
	Extractor    string
	Orchestrator string
	Cache        string
	Store        string
	Config       string
	CLI          string
}{
	API:          "api",
	Adapter:      "source-adapter",
	Extractor:    "risk-extractor",
	Orchestrator: "orchestrator",
	Cache:        "result-cache",
	Store:        "summary-store",
	Config:       "config",
	CLI:          "cli",
}
