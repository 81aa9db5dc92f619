package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/formguard/config"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestSecurityHeaders_Defaults(t *testing.T) {
	handler := SecurityHeaders(DefaultSecurityHeadersOptions())(okHandler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	tests := []struct {
		header string
		want   string
	}{
		{"X-Frame-Options", "DENY"},
		{"X-Content-Type-Options", "nosniff"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
		{"Permissions-Policy", "camera=(), geolocation=(), microphone=(), payment=()"},
		{"Content-Security-Policy", ""},
	}
	for _, tt := range tests {
		if got := rec.Header().Get(tt.header); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.header, got, tt.want)
		}
	}

	if hsts := rec.Header().Get("Strict-Transport-Security"); hsts != "" {
		t.Errorf("HSTS should not be set for HTTP requests, got %q", hsts)
	}
}

func TestSecurityHeaders_HSTS_OnlyForTLS(t *testing.T) {
	handler := SecurityHeaders(DefaultSecurityHeadersOptions())(okHandler)

	t.Run("HTTP", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://example.com/", nil))
		if hsts := rec.Header().Get("Strict-Transport-Security"); hsts != "" {
			t.Errorf("HSTS should not be set for HTTP, got %q", hsts)
		}
	})

	t.Run("HTTPS", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "https://example.com/", nil)
		req.TLS = &tls.ConnectionState{}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		want := "max-age=31536000; includeSubDomains"
		if hsts := rec.Header().Get("Strict-Transport-Security"); hsts != want {
			t.Errorf("HSTS = %q, want %q", hsts, want)
		}
	})
}

func TestSecurityHeaders_DisabledHeaders(t *testing.T) {
	handler := SecurityHeaders(SecurityHeadersOptions{})(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	for _, h := range []string{
		"X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy",
		"Strict-Transport-Security", "Content-Security-Policy", "Permissions-Policy",
	} {
		if got := rec.Header().Get(h); got != "" {
			t.Errorf("%s should not be set, got %q", h, got)
		}
	}
}

func TestContentSecurityPolicy(t *testing.T) {
	csp := ContentSecurityPolicy("formsubmit.co")

	for _, want := range []string{
		"default-src 'self'",
		"script-src 'self' 'wasm-unsafe-eval'",
		"connect-src 'self' https://formsubmit.co",
		"form-action 'self' https://formsubmit.co",
		"frame-ancestors 'none'",
	} {
		if !strings.Contains(csp, want) {
			t.Errorf("CSP %q missing %q", csp, want)
		}
	}

	for _, empty := range []string{"", "   "} {
		if bare := ContentSecurityPolicy(empty); strings.Contains(bare, "://") || strings.Contains(bare, "'self'  ") {
			t.Errorf("CSP without relay should not allow any remote origin: %q", bare)
		}
	}
}

func TestContentSecurityPolicy_RelayScheme(t *testing.T) {
	tests := []struct {
		relay string
		want  string
	}{
		{"formsubmit.co", "https://formsubmit.co"},
		{"https://formsubmit.co", "https://formsubmit.co"},
		{"http://localhost:9000", "http://localhost:9000"},
		{"localhost:9000", "https://localhost:9000"},
	}
	for _, tt := range tests {
		csp := ContentSecurityPolicy(tt.relay)
		for _, directive := range []string{"connect-src 'self' ", "form-action 'self' "} {
			if !strings.Contains(csp, directive+tt.want+";") {
				t.Errorf("ContentSecurityPolicy(%q) = %q, want %q%s", tt.relay, csp, directive, tt.want)
			}
		}
	}
}

func TestSecurityHeadersFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *config.CoreConfig
		wantCSP  string
		wantNoop bool
	}{
		{
			name:    "derived policy",
			cfg:     &config.CoreConfig{Security: config.SecurityConfig{EnableSecurityHeaders: true}},
			wantCSP: ContentSecurityPolicy("formsubmit.co"),
		},
		{
			name: "override policy",
			cfg: &config.CoreConfig{Security: config.SecurityConfig{
				EnableSecurityHeaders: true,
				ContentSecurityPolicy: "default-src 'none'",
			}},
			wantCSP: "default-src 'none'",
		},
		{
			name:     "disabled",
			cfg:      &config.CoreConfig{},
			wantNoop: true,
		},
		{
			name:     "nil config",
			wantNoop: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := SecurityHeadersFromConfig(tt.cfg, "formsubmit.co")(okHandler)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
			if tt.wantNoop {
				if len(rec.Header()) != 0 {
					t.Errorf("expected no headers, got %v", rec.Header())
				}
				return
			}
			if got := rec.Header().Get("Content-Security-Policy"); got != tt.wantCSP {
				t.Errorf("CSP = %q, want %q", got, tt.wantCSP)
			}
		})
	}
}
