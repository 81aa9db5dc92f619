// pantry/health/health.go
package health

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/dalemusser/formguard/httputil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DefaultCheckTimeout bounds each check when Handler is given no timeout.
const DefaultCheckTimeout = 2 * time.Second

// Check probes one dependency and returns nil when it is usable.
type Check func(ctx context.Context) error

// Response is the JSON body of the health endpoint.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler runs checks (in name order, each with its own timeout) and
// answers 200 {"status":"ok"} or 503 {"status":"error"} with per-check
// results. With no checks it is a plain liveness probe.
func Handler(checks map[string]Check, timeout time.Duration, logger *zap.Logger) http.Handler {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(names) == 0 {
			httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok"})
			return
		}

		resp := Response{Status: "ok", Checks: make(map[string]string, len(names))}
		status := http.StatusOK
		for _, name := range names {
			err := run(r.Context(), checks[name], timeout)
			if err == nil {
				resp.Checks[name] = "ok"
				continue
			}
			resp.Status = "error"
			status = http.StatusServiceUnavailable
			resp.Checks[name] = "error: " + err.Error()
			logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
		}
		httputil.WriteJSON(w, status, resp)
	})
}

func run(parent context.Context, check Check, timeout time.Duration) error {
	if check == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	return check(ctx)
}

// Mount serves Handler at GET /health.
func Mount(r chi.Router, checks map[string]Check, logger *zap.Logger) {
	MountAt(r, "/health", checks, logger)
}

// MountAt serves Handler at GET path.
func MountAt(r chi.Router, path string, checks map[string]Check, logger *zap.Logger) {
	r.Method(http.MethodGet, path, Handler(checks, 0, logger))
}
