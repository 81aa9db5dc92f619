// router/router.go
package router

import (
	"github.com/dalemusser/formguard/config"
	"github.com/dalemusser/formguard/logging"
	"github.com/dalemusser/formguard/metrics"
	"github.com/dalemusser/formguard/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// New returns a chi.Router with the site's base middleware:
// request ID, real IP, panic recovery, body limit, metrics, access log,
// CORS and compression (both config-driven), plus JSON 404/405 handlers.
// Routes, security headers and caching are left to the caller.
func New(coreCfg *config.CoreConfig, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Recoverer(logger))
	r.Use(middleware.LimitBodySize(coreCfg.MaxRequestBodyBytes))
	r.Use(metrics.HTTPMetrics)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.CompressFromConfig(coreCfg, logger))

	r.NotFound(middleware.NotFoundHandler(logger))
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(logger))

	return r
}
