package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"regexp"
	"sync/atomic"
	"time"

	applog "saldo/internal/log"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

type contextKey struct{}

var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// Middleware assigns request ids, logs each request and keeps timing metrics.
type Middleware struct {
	extractIP func(*http.Request) string
	logger    *applog.StructuredLogger

	totalRequests atomic.Int64
	totalMicros   atomic.Int64
	serverErrors  atomic.Int64
}

// Metrics tracks request metrics
type Metrics struct {
	TotalRequests       int64 `json:"total_requests"`
	AverageResponseTime int64 `json:"avg_response_us"`
	ServerErrors        int64 `json:"server_errors"`
}

func NewMiddleware(extractIP func(*http.Request) string, logger *applog.StructuredLogger) *Middleware {
	return &Middleware{extractIP: extractIP, logger: logger}
}

// Middleware returns HTTP middleware for request tracing. An inbound
// X-Request-ID is reused when it looks sane.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	withLogger := applog.RequestIDMiddleware(func(r *http.Request) string {
		return GetRequestID(r.Context())
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := r.Header.Get(HeaderRequestID)
		if !validRequestID.MatchString(requestID) {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)
		r = r.WithContext(context.WithValue(r.Context(), contextKey{}, requestID))

		var sl *applog.StructuredLogger
		if m.logger != nil {
			sl = m.logger.WithRequestID(requestID)
			sl.LogHTTPStart(r.Context(), r, clientIP)
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		withLogger.ServeHTTP(rw, r)

		duration := time.Since(start)
		m.totalRequests.Add(1)
		m.totalMicros.Add(duration.Microseconds())
		if rw.statusCode >= 500 {
			m.serverErrors.Add(1)
		}

		if sl != nil {
			sl.LogHTTPEnd(r.Context(), r, rw.statusCode, duration.Milliseconds(), clientIP)
		}
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter { return rw.ResponseWriter }

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

func (m *Middleware) GetMetrics() Metrics {
	metrics := Metrics{
		TotalRequests: m.totalRequests.Load(),
		ServerErrors:  m.serverErrors.Load(),
	}
	if metrics.TotalRequests > 0 {
		metrics.AverageResponseTime = m.totalMicros.Load() / metrics.TotalRequests
	}
	return metrics
}
