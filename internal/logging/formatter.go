package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mrz1836/compliance-copilot/internal/jsonutil"
)

// StructuredFormatter provides JSON output formatting for structured logging.
//
// This formatter ensures consistent JSON output with standardized field names
// and proper correlation ID inclusion for log aggregation systems.
type StructuredFormatter struct {
	// DisableTimestamp disables automatic timestamp generation
	DisableTimestamp bool
	// TimestampFormat sets the format for the timestamp field
	TimestampFormat string
}

// NewStructuredFormatter creates a new StructuredFormatter with default settings.
func NewStructuredFormatter() *StructuredFormatter {
	return &StructuredFormatter{
		TimestampFormat: time.RFC3339,
	}
}

// Format formats a logrus.Entry as JSON with standardized fields.
func (f *StructuredFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	data := make(logrus.Fields, len(entry.Data)+3)

	for k, v := range entry.Data {
		// errors do not marshal to anything useful
		if err, ok := v.(error); ok {
			data[k] = err.Error()
			continue
		}
		data[k] = v
	}

	data["level"] = entry.Level.String()
	data["message"] = entry.Message

	if !f.DisableTimestamp {
		timestampFormat := f.TimestampFormat
		if timestampFormat == "" {
			timestampFormat = time.RFC3339
		}
		data[StandardFields.Timestamp] = entry.Time.Format(timestampFormat)
	}

	jsonBytes, err := jsonutil.MarshalJSON(data)
	if err != nil {
		return nil, err // Error already wrapped by jsonutil
	}

	return append(jsonBytes, '\n'), nil
}

// ConfigureLogger configures a logrus.Logger instance based on LogConfig settings.
//
// This function sets up the formatter (JSON or text), the log level, and the
// redaction hook. Verbose flags override the explicit log level.
func ConfigureLogger(logger *logrus.Logger, config *LogConfig) error {
	if config == nil {
		return nil
	}

	var level logrus.Level
	var err error

	switch {
	case config.Verbose == 1:
		level = logrus.DebugLevel
	case config.Verbose > 1:
		level = logrus.TraceLevel
	case config.LogLevel != "":
		level, err = logrus.ParseLevel(config.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", config.LogLevel, err)
		}
	default:
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)

	if !config.DisableRedact {
		logger.AddHook(NewRedactionService().CreateHook())
	}

	switch config.LogFormat {
	case FormatJSON:
		logger.SetFormatter(NewStructuredFormatter())
	case "", FormatText:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  "15:04:05",
			PadLevelText:     true,
			QuoteEmptyFields: true,
		})
	default:
		return fmt.Errorf("invalid log format %q: expected %q or %q", config.LogFormat, FormatText, FormatJSON)
	}

	return nil
}

// NewLogger creates an isolated logger writing to out, configured from config.
func NewLogger(out io.Writer, config *LogConfig) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)
	if err := ConfigureLogger(logger, config); err != nil {
		return nil, err
	}
	return logger, nil
}

// WithStandardFields creates a logrus.Entry with correlation ID and component info.
func WithStandardFields(logger *logrus.Logger, config *LogConfig, component string) *logrus.Entry {
	fields := logrus.Fields{
		StandardFields.Component: component,
	}

	if config != nil && config.CorrelationID != "" {
		fields[StandardFields.CorrelationID] = config.CorrelationID
	}

	return logger.WithFields(fields)
}

// Discard returns an entry that drops everything. Handy as a default in constructors and tests.
func Discard() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}
