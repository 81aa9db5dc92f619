// middleware/notfound.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/formguard/httputil"
	"go.uber.org/zap"
)

// NotFoundHandler logs and answers 404 with the JSON error envelope.
func NotFoundHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if logger != nil {
			logger.Info("not_found",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_ip", r.RemoteAddr),
			)
		}
		httputil.JSONError(w, http.StatusNotFound, "not_found", "The requested resource was not found")
	}
}

// MethodNotAllowedHandler logs and answers 405. The site only serves GET and
// HEAD; submissions go straight from the browser to the relay.
func MethodNotAllowedHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if logger != nil {
			logger.Info("method_not_allowed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_ip", r.RemoteAddr),
			)
		}
		w.Header().Set("Allow", "GET, HEAD")
		httputil.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed",
			"The requested HTTP method is not allowed for this resource")
	}
}
