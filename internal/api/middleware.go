package api

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/mrz1836/compliance-copilot/internal/logging"
	"github.com/mrz1836/compliance-copilot/internal/metrics"
	"github.com/mrz1836/compliance-copilot/internal/version"
)

// Header names used by the middleware.
const (
	HeaderRequestID      = "X-Request-ID"
	HeaderProcessTime    = "X-Process-Time"
	HeaderCache          = "X-Cache"
	HeaderAcceptVersion  = "Accept-Version"
	HeaderAPIVersion     = "API-Version"
	maxRequestIDLength   = 128
	requestIDKey         = "request_id"
	rateLimiterIdleAfter = 10 * time.Minute
)

// requestID reuses a sane inbound X-Request-ID or generates one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// timedWriter stamps X-Process-Time just before the headers go out.
type timedWriter struct {
	gin.ResponseWriter

	start time.Time
}

func (w *timedWriter) stamp() {
	if !w.Written() {
		elapsed := float64(time.Since(w.start)) / float64(time.Millisecond)
		w.Header().Set(HeaderProcessTime, strconv.FormatFloat(elapsed, 'f', 2, 64))
	}
}

func (w *timedWriter) WriteHeaderNow() {
	w.stamp()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *timedWriter) Write(data []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(data)
}

func (w *timedWriter) WriteString(s string) (int, error) {
	w.stamp()
	return w.ResponseWriter.WriteString(s)
}

// accessLog logs every request and records it in the HTTP metrics.
func accessLog(logger *logrus.Entry, collectors *metrics.Collectors) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Writer = &timedWriter{ResponseWriter: c.Writer, start: start}

		c.Next()

		elapsed := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		if collectors != nil {
			collectors.ObserveHTTPRequest(route, c.Request.Method, status, elapsed)
		}

		entry := logger.WithFields(logrus.Fields{
			logging.StandardFields.RequestID:  c.GetString(requestIDKey),
			logging.StandardFields.Method:     c.Request.Method,
			logging.StandardFields.Path:       c.Request.URL.Path,
			logging.StandardFields.Status:     status,
			logging.StandardFields.DurationMs: elapsed.Milliseconds(),
			logging.StandardFields.ClientIP:   c.ClientIP(),
		})
		if cache := c.Writer.Header().Get(HeaderCache); cache != "" {
			entry = entry.WithField(logging.StandardFields.CacheResult, cache)
		}

		switch {
		case status >= http.StatusInternalServerError:
			entry.Warn("Request completed")
		case c.Request.URL.Path == "/health" || c.Request.URL.Path == "/metrics":
			entry.Debug("Request completed")
		default:
			entry.Info("Request completed")
		}
	}
}

// recovery turns a handler panic into a 500 response.
func recovery(logger *logrus.Entry) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.WithFields(logrus.Fields{
			logging.StandardFields.RequestID: c.GetString(requestIDKey),
			logging.StandardFields.Path:      c.Request.URL.Path,
			"panic":                          recovered,
		}).Error("Handler panicked")

		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: ErrorBody{
			Code:      CodeInternal,
			Message:   "internal server error",
			RequestID: c.GetString(requestIDKey),
		}})
	})
}

// cors allows browser clients from any origin.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Accept-Version, X-Request-ID")
		h.Set("Access-Control-Expose-Headers", "X-Request-ID, X-Cache, X-Process-Time, API-Version")
		h.Set("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// versionCheck rejects requests whose Accept-Version excludes the served API version.
func versionCheck(logger *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header(HeaderAPIVersion, version.APIVersion)
		if err := version.Negotiate(c.GetHeader(HeaderAcceptVersion)); err != nil {
			writeError(c, logger, err)
			return
		}
		c.Next()
	}
}

// clientLimiter is one client's token bucket.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps a token bucket per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	lastScan time.Time
	now      func() time.Time
}

func newRateLimiter(perMinute int) *rateLimiter {
	return &rateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
		now:     time.Now,
	}
}

// allow reports whether client may proceed, and if not, how long until it may.
func (r *rateLimiter) allow(client string) (bool, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.lastScan) > rateLimiterIdleAfter {
		for key, cl := range r.clients {
			if now.Sub(cl.lastSeen) > rateLimiterIdleAfter {
				delete(r.clients, key)
			}
		}
		r.lastScan = now
	}

	cl, ok := r.clients[client]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.clients[client] = cl
	}
	cl.lastSeen = now

	reservation := cl.limiter.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (r *rateLimiter) middleware(logger *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retryAfter := r.allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			writeError(c, logger, errRateLimited)
			return
		}
		c.Next()
	}
}
