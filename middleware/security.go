// middleware/security.go
package middleware

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dalemusser/formguard/config"
)

// SecurityHeadersOptions selects the headers SecurityHeaders sends. An empty
// string (or zero HSTSMaxAge) disables the corresponding header.
type SecurityHeadersOptions struct {
	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string

	// HSTS is only sent on TLS requests.
	HSTSMaxAge            int
	HSTSIncludeSubDomains bool

	ContentSecurityPolicy string
	PermissionsPolicy     string
}

// DefaultSecurityHeadersOptions suits the contact page: no framing, no
// sniffing, and no browser features beyond what a form needs.
func DefaultSecurityHeadersOptions() SecurityHeadersOptions {
	return SecurityHeadersOptions{
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubDomains: true,
		PermissionsPolicy:     "camera=(), geolocation=(), microphone=(), payment=()",
	}
}

// ContentSecurityPolicy builds the page policy. relay is the relay origin
// ("http://localhost:9000") or a bare host, taken as https. It is allowed as
// both a fetch target (connect-src) and a form target (form-action), and
// 'wasm-unsafe-eval' lets the page instantiate the guard bundle.
func ContentSecurityPolicy(relay string) string {
	var src string
	if origin := relaySource(relay); origin != "" {
		src = " " + origin
	}
	directives := []string{
		"default-src 'self'",
		"script-src 'self' 'wasm-unsafe-eval'",
		"style-src 'self'",
		"img-src 'self' data:",
		"connect-src 'self'" + src,
		"form-action 'self'" + src,
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"object-src 'none'",
	}
	return strings.Join(directives, "; ")
}

// SecurityHeaders sets the headers selected by opts on every response.
func SecurityHeaders(opts SecurityHeadersOptions) func(next http.Handler) http.Handler {
	var hsts string
	if opts.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(opts.HSTSMaxAge)
		if opts.HSTSIncludeSubDomains {
			hsts += "; includeSubDomains"
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			setIf(h, "X-Frame-Options", opts.XFrameOptions)
			setIf(h, "X-Content-Type-Options", opts.XContentTypeOptions)
			setIf(h, "Referrer-Policy", opts.ReferrerPolicy)
			setIf(h, "Content-Security-Policy", opts.ContentSecurityPolicy)
			setIf(h, "Permissions-Policy", opts.PermissionsPolicy)
			if hsts != "" && r.TLS != nil {
				h.Set("Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func relaySource(relay string) string {
	relay = strings.TrimSpace(relay)
	if relay == "" {
		return ""
	}
	if u, err := url.Parse(relay); err == nil && u.Host != "" && (u.Scheme == "http" || u.Scheme == "https") {
		return u.Scheme + "://" + u.Host
	}
	return "https://" + relay
}

func setIf(h http.Header, key, value string) {
	if value != "" {
		h.Set(key, value)
	}
}

// SecurityHeadersFromConfig returns the default headers plus a CSP derived
// from relay (see ContentSecurityPolicy), unless config supplies its own policy. It is a no-op when
// headers are disabled or coreCfg is nil.
func SecurityHeadersFromConfig(coreCfg *config.CoreConfig, relay string) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.Security.EnableSecurityHeaders {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	opts := DefaultSecurityHeadersOptions()
	opts.ContentSecurityPolicy = ContentSecurityPolicy(relay)
	if csp := strings.TrimSpace(coreCfg.Security.ContentSecurityPolicy); csp != "" {
		opts.ContentSecurityPolicy = csp
	}
	return SecurityHeaders(opts)
}
