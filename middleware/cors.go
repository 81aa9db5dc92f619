// middleware/cors.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/formguard/config"
	"github.com/go-chi/cors"
)

// CORSFromConfig applies go-chi/cors from the CORS section, for sites that
// load the bundle or health endpoint from another origin. Identity when
// disabled.
func CORSFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.CORS.EnableCORS {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   coreCfg.CORS.CORSAllowedOrigins,
		AllowedMethods:   coreCfg.CORS.CORSAllowedMethods,
		AllowedHeaders:   coreCfg.CORS.CORSAllowedHeaders,
		AllowCredentials: coreCfg.CORS.CORSAllowCredentials,
		MaxAge:           coreCfg.CORS.CORSMaxAge,
	})
}
