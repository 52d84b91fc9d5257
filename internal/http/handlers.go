package http

import (
	"context"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":     "ok",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"uptime":     time.Since(s.startedAt).Round(time.Second).String(),
		"requests":   s.tracer.GetMetrics(),
		"rate_limit": s.limiter.GetMetrics(),
		"security":   s.detector.GetMetrics(),
	}).Write(w)
}

// handleReady verifies the ledger storage answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{"database": "ok"}
	switch {
	case s.svc.Storage == nil:
		checks["database"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	default:
		if err := s.svc.Storage.Ping(ctx); err != nil {
			checks["database"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		}
	}

	NewJSONResponse().Status(code).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}
