// middleware/compress.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/formguard/config"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// compressibleTypes are the site's text responses. The wasm bundle is left
// out because it is served pre-compressed from disk.
var compressibleTypes = []string{
	"text/html",
	"text/css",
	"text/plain",
	"text/javascript",
	"application/javascript",
	"application/json",
	"image/svg+xml",
}

// CompressFromConfig returns chi's Compress for the site's text types, or an
// identity middleware when compression is disabled. Out-of-range levels are
// clamped with a warning.
func CompressFromConfig(coreCfg *config.CoreConfig, logger *zap.Logger) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.EnableCompression {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	level := coreCfg.CompressionLevel
	clamped := min(max(level, 1), 9)
	if clamped != level && logger != nil {
		logger.Warn("compression level clamped",
			zap.Int("requested", level), zap.Int("used", clamped))
	}
	return middleware.Compress(clamped, compressibleTypes...)
}
