package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrz1836/compliance-copilot/internal/analyzer"
	appErrors "github.com/mrz1836/compliance-copilot/internal/errors"
	"github.com/mrz1836/compliance-copilot/internal/risk"
	"github.com/mrz1836/compliance-copilot/internal/source"
	"github.com/mrz1836/compliance-copilot/internal/version"
)

// maxBodyBytes bounds request bodies before JSON decoding.
const maxBodyBytes = 2 << 20

// SubmissionRequest is the body of POST /v1/summaries.
type SubmissionRequest struct {
	SourceKind string                  `json:"source_kind" binding:"required"`
	Source     string                  `json:"source"`
	Payload    json.RawMessage         `json:"payload" binding:"required"`
	History    *risk.HistoricalContext `json:"history"`
}

func (r *SubmissionRequest) submission() *analyzer.Submission {
	return &analyzer.Submission{
		SourceKind: r.SourceKind,
		Source:     r.Source,
		Payload:    r.Payload,
		History:    r.History,
	}
}

// BatchRequest is the body of POST /v1/summaries/batch.
type BatchRequest struct {
	Submissions []SubmissionRequest `json:"submissions" binding:"required,min=1,max=20,dive"`
}

// BatchItemResponse is one entry of a batch response.
type BatchItemResponse struct {
	Index   int           `json:"index"`
	Status  int           `json:"status"`
	Cache   string        `json:"cache,omitempty"`
	Summary *risk.Summary `json:"summary,omitempty"`
	Error   *ErrorBody    `json:"error,omitempty"`
}

// BatchResponse is the body returned by POST /v1/summaries/batch.
type BatchResponse struct {
	Results   []BatchItemResponse `json:"results"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        s.settings.AppName,
		"version":     version.Get().Short(),
		"api_version": version.APIVersion,
		"docs":        "/docs",
		"health":      "/health",
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"version":     version.Get().Short(),
		"environment": s.settings.Environment,
		"backend":     s.service.Backend(),
		"cache":       s.service.CacheStats(),
	})
}

func (s *Server) handleCreateSummary(c *gin.Context) {
	var req SubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, s.logger, appErrors.ValidationError("request body", err.Error()))
		return
	}
	s.analyze(c, req.submission())
}

// handleAnalyze returns a handler taking a raw upstream payload of kind.
// The upstream format comes from the "source" query parameter.
func (s *Server) handleAnalyze(kind source.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			writeError(c, s.logger, appErrors.ValidationError("request body", err.Error()))
			return
		}
		s.analyze(c, &analyzer.Submission{
			SourceKind: string(kind),
			Source:     c.Query("source"),
			Payload:    body,
		})
	}
}

func (s *Server) analyze(c *gin.Context, sub *analyzer.Submission) {
	res, err := s.service.Analyze(c.Request.Context(), sub)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.Header(HeaderCache, string(res.Cache))
	c.JSON(http.StatusOK, res.Summary)
}

func (s *Server) handleBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, s.logger, appErrors.ValidationError("request body", err.Error()))
		return
	}

	subs := make([]*analyzer.Submission, len(req.Submissions))
	for i := range req.Submissions {
		subs[i] = req.Submissions[i].submission()
	}

	items, err := s.service.AnalyzeBatch(c.Request.Context(), subs)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	if err := c.Request.Context().Err(); err != nil {
		writeError(c, s.logger, err)
		return
	}

	resp := BatchResponse{Results: make([]BatchItemResponse, len(items))}
	for i, item := range items {
		out := BatchItemResponse{Index: item.Index, Status: http.StatusOK}
		if item.Err != nil {
			status, code := classify(item.Err)
			out.Status = status
			out.Error = &ErrorBody{Code: code, Message: item.Err.Error()}
			if code == CodeInternal {
				out.Error.Message = "internal server error"
			}
			resp.Failed++
		} else {
			out.Summary = item.Summary
			out.Cache = string(item.Cache)
			resp.Succeeded++
		}
		resp.Results[i] = out
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetSummary(c *gin.Context) {
	summary, err := s.service.Get(c.Request.Context(), c.Param("fingerprint"))
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// handleListSummaries serves the latest summary of ?identifier= or, without it, the most recent summaries.
func (s *Server) handleListSummaries(c *gin.Context) {
	if identifier := c.Query("identifier"); identifier != "" {
		summary, err := s.service.Latest(c.Request.Context(), identifier)
		if err != nil {
			writeError(c, s.logger, err)
			return
		}
		c.JSON(http.StatusOK, summary)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeError(c, s.logger, appErrors.InvalidFieldError("limit", raw))
			return
		}
		limit = n
	}

	summaries, err := s.service.Recent(c.Request.Context(), limit)
	if err != nil {
		writeError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summaries": summaries, "count": len(summaries)})
}

// routeDoc is one documented route in GET /docs.
type routeDoc struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

func (s *Server) handleDocs(c *gin.Context) {
	routes := make([]routeDoc, 0, len(s.engine.Routes()))
	for _, r := range s.engine.Routes() {
		routes = append(routes, routeDoc{Method: r.Method, Path: r.Path, Description: routeDescriptions[r.Method+" "+r.Path]})
	}

	c.JSON(http.StatusOK, gin.H{
		"name":        s.settings.AppName,
		"api_version": version.APIVersion,
		"routes":      routes,
		"errors":      errorDocs(),
		"formats":     s.service.Formats(),
		"headers": gin.H{
			HeaderAcceptVersion: "optional semver constraint checked against api_version",
			HeaderRequestID:     "echoed or generated per request",
			HeaderCache:         "HIT, MISS or SHARED on summary responses",
			HeaderProcessTime:   "server processing time in seconds",
		},
		"max_batch_size": analyzer.MaxBatchSize,
	})
}

//nolint:gochecknoglobals // read-only route documentation
var routeDescriptions = map[string]string{
	"GET /":                          "service information",
	"GET /health":                    "liveness and backend status",
	"GET /docs":                      "this document",
	"GET /metrics":                   "Prometheus metrics",
	"POST /v1/summaries":             "analyze a submission {source_kind, source, payload, history}",
	"POST /v1/summaries/batch":       "analyze up to 20 submissions concurrently",
	"POST /v1/analyze/pr":            "analyze a pull request payload (?source=generic|github|gitlab)",
	"POST /v1/analyze/ticket":        "analyze a ticket payload (?source=generic|jira)",
	"GET /v1/summaries/:fingerprint": "fetch a summary by fingerprint",
	"GET /v1/summaries":              "latest summary for ?identifier=, or the most recent summaries (?limit=)",
}
