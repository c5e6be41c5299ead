package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	appErrors "github.com/mrz1836/compliance-copilot/internal/errors"
	"github.com/mrz1836/compliance-copilot/internal/logging"
	"github.com/mrz1836/compliance-copilot/internal/version"
)

// StatusClientClosedRequest is the non-standard status logged when the caller went away.
const StatusClientClosedRequest = 499

// Error codes returned in ErrorBody.Code.
const (
	CodeValidation       = "validation_error"
	CodeUnsupported      = "unsupported_version"
	CodeInsufficientData = "insufficient_data"
	CodeNotFound         = "not_found"
	CodeRateLimited      = "rate_limited"
	CodeBackendContract  = "backend_contract_violation"
	CodeUnavailable      = "summarization_unavailable"
	CodeTimeout          = "summarization_timeout"
	CodeClientClosed     = "client_closed_request"
	CodeInternal         = "internal_error"
)

// errRateLimited is reported when a client exceeds its request budget.
var errRateLimited = errors.New("rate limit exceeded")

// ErrorBody is the JSON error payload.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse wraps ErrorBody under an "error" key.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// errorMapping ties a failure class to its HTTP status and code.
type errorMapping struct {
	target      error
	status      int
	code        string
	description string
}

// errorCatalogue is checked in order; the first match wins.
//
//nolint:gochecknoglobals // read-only lookup table
var errorCatalogue = []errorMapping{
	{version.ErrUnsupportedVersion, http.StatusBadRequest, CodeUnsupported, "Accept-Version does not match the served API version"},
	{appErrors.ErrValidation, http.StatusBadRequest, CodeValidation, "the submission is malformed or fails input validation"},
	{appErrors.ErrInsufficientData, http.StatusUnprocessableEntity, CodeInsufficientData, "the record carries too little content to assess"},
	{appErrors.ErrNotFound, http.StatusNotFound, CodeNotFound, "no summary is stored under the given key"},
	{errRateLimited, http.StatusTooManyRequests, CodeRateLimited, "the client exceeded its request budget"},
	{appErrors.ErrBackendContract, http.StatusBadGateway, CodeBackendContract, "the summarization backend returned an unusable response"},
	{appErrors.ErrSummarizationTimeout, http.StatusGatewayTimeout, CodeTimeout, "the summarization backend did not answer in time"},
	{appErrors.ErrSummarizationUnavailable, http.StatusServiceUnavailable, CodeUnavailable, "the summarization backend failed or is not configured"},
	{context.Canceled, StatusClientClosedRequest, CodeClientClosed, "the caller aborted the request (logged only)"},
	{context.DeadlineExceeded, StatusClientClosedRequest, CodeClientClosed, "the caller's deadline passed (logged only)"},
}

// classify maps err onto an HTTP status and error code.
func classify(err error) (int, string) {
	for _, m := range errorCatalogue {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, CodeInternal
}

// writeError aborts the request with the response matching err.
func writeError(c *gin.Context, logger *logrus.Entry, err error) {
	status, code := classify(err)
	requestID := c.GetString(requestIDKey)

	log := logger.WithFields(logrus.Fields{
		logging.StandardFields.RequestID: requestID,
		logging.StandardFields.ErrorCode: code,
		logging.StandardFields.Status:    status,
	}).WithError(err)

	switch {
	case status == StatusClientClosedRequest:
		log.Info("Client closed request")
		c.AbortWithStatus(status)
		return
	case status >= http.StatusInternalServerError:
		log.Error("Request failed")
	default:
		log.Debug("Request rejected")
	}

	message := err.Error()
	if code == CodeInternal {
		message = "internal server error"
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{
		Code:      code,
		Message:   message,
		RequestID: requestID,
	}})
}

// errorDoc is one documented failure in GET /docs.
type errorDoc struct {
	Status      int    `json:"status"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

func errorDocs() []errorDoc {
	docs := make([]errorDoc, 0, len(errorCatalogue)+1)
	seen := make(map[string]bool)
	for _, m := range errorCatalogue {
		if seen[m.code] {
			continue
		}
		seen[m.code] = true
		docs = append(docs, errorDoc{Status: m.status, Code: m.code, Description: m.description})
	}
	return append(docs, errorDoc{Status: http.StatusInternalServerError, Code: CodeInternal, Description: "any other failure"})
}
