package site

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/dalemusser/formguard/config"
	"github.com/dalemusser/formguard/pantry/health"
	"go.uber.org/zap"
)

const testAction = "https://formsubmit.co/contact@example.com"

func testValues() config.AppConfigValues {
	v := config.AppConfigValues{}
	for _, k := range AppKeys() {
		v[k.Name] = k.Default
	}
	v[keyRelayAction] = testAction
	return v
}

func testBundle() fstest.MapFS {
	return fstest.MapFS{
		BundleFile:         {Data: []byte("\x00asm")},
		BundleFile + ".br": {Data: []byte("br-bundle")},
		LoaderFile:         {Data: []byte("// go loader")},
	}
}

func newTestSite(t *testing.T, bundle fstest.MapFS) (*Site, http.Handler) {
	t.Helper()
	cfg, err := ConfigFromValues(testValues())
	if err != nil {
		t.Fatalf("ConfigFromValues: %v", err)
	}
	s, err := New(cfg, bundle, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	core := &config.CoreConfig{Security: config.SecurityConfig{EnableSecurityHeaders: true}}
	return s, s.Handler(core)
}

func serve(h http.Handler, method, target string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestConfigFromValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(config.AppConfigValues)
		wantErr string
	}{
		{"valid", func(config.AppConfigValues) {}, ""},
		{"missing action", func(v config.AppConfigValues) { v[keyRelayAction] = "" }, "relay_action is required"},
		{"wrong host", func(v config.AppConfigValues) { v[keyRelayAction] = "https://mailer.example/x" }, "does not contain relay host"},
		{"not http", func(v config.AppConfigValues) { v[keyRelayAction] = "mailto:formsubmit.co" }, "http(s) URL"},
		{"no host", func(v config.AppConfigValues) { v[keyRelayAction] = "https:/formsubmit.co/x" }, "absolute http(s) URL"},
		{"plain http relay", func(v config.AppConfigValues) { v[keyRelayAction] = "http://formsubmit.co/x" }, ""},
		{"custom host", func(v config.AppConfigValues) {
			v[keyRelayHost] = "mailer.example"
			v[keyRelayAction] = "https://mailer.example/x"
		}, ""},
		{"missing wasm dir", func(v config.AppConfigValues) { v[keyWasmDir] = " " }, "wasm_dir is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := testValues()
			tt.mutate(v)
			_, err := ConfigFromValues(v)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigFromValues_Defaults(t *testing.T) {
	v := testValues()
	v[keyRelayHost] = ""
	v[keyConfirmationPage] = ""
	v[keyPrivacyNoticeHTML] = "<script>x</script>"

	cfg, err := ConfigFromValues(v)
	if err != nil {
		t.Fatalf("ConfigFromValues: %v", err)
	}
	if cfg.RelayHost != "formsubmit.co" {
		t.Errorf("RelayHost = %q", cfg.RelayHost)
	}
	if cfg.ConfirmationPage != "merci.html" {
		t.Errorf("ConfirmationPage = %q", cfg.ConfirmationPage)
	}
	if !strings.Contains(string(cfg.PrivacyNotice), "accepte") {
		t.Errorf("empty sanitized notice should fall back to the default, got %q", cfg.PrivacyNotice)
	}
	if g := cfg.GuardConfig(); g.RelayHost != "formsubmit.co" || g.ConfirmationPage != "merci.html" {
		t.Errorf("GuardConfig = %+v", g)
	}
}

func TestSanitizeNotice(t *testing.T) {
	got := string(SanitizeNotice(
		`J'accepte la <a href="https://site.example/vie-privee" onclick="steal()">politique</a>` +
			`<script>alert(1)</script><b>.</b><img src=x onerror=alert(2)>`))

	for _, want := range []string{`href="https://site.example/vie-privee"`, "nofollow", "<b>.</b>", "politique"} {
		if !strings.Contains(got, want) {
			t.Errorf("sanitized notice %q missing %q", got, want)
		}
	}
	for _, banned := range []string{"<script", "alert", "onclick", "<img", "onerror"} {
		if strings.Contains(got, banned) {
			t.Errorf("sanitized notice %q still contains %q", got, banned)
		}
	}
}

func TestContactPage(t *testing.T) {
	_, h := newTestSite(t, testBundle())

	for _, path := range []string{"/", "/contact"} {
		rec := serve(h, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s = %d", path, rec.Code)
		}
		body := rec.Body.String()
		for _, want := range []string{
			`action="` + testAction + `"`,
			`data-next="http://example.com/merci.html"`,
			`<meta name="formguard-relay-host" content="formsubmit.co">`,
			`name="_captcha" value="false"`,
			`name="_next" value="http://example.com/merci.html"`,
			`name="_subject" value="Nouveau message depuis le site"`,
			`id="nameError" class="form-error"`,
			`id="privacyError" class="form-error"`,
			`id="rateLimitMessage"`,
			`<button type="submit">Envoyer le message</button>`,
			`src="/wasm/wasm_exec.js"`,
		} {
			if !strings.Contains(body, want) {
				t.Errorf("GET %s: body missing %q", path, want)
			}
		}
		if got := rec.Header().Get("Content-Security-Policy"); !strings.Contains(got, "form-action 'self' https://formsubmit.co") {
			t.Errorf("CSP = %q", got)
		}
	}
}

func TestHandler_CSPFollowsRelayScheme(t *testing.T) {
	tests := []struct {
		action string
		origin string
	}{
		{testAction, "https://formsubmit.co"},
		{"http://formsubmit.co:9000/contact@example.com", "http://formsubmit.co:9000"},
	}
	for _, tt := range tests {
		v := testValues()
		v[keyRelayAction] = tt.action
		cfg, err := ConfigFromValues(v)
		if err != nil {
			t.Fatalf("ConfigFromValues(%q): %v", tt.action, err)
		}
		if got := cfg.RelayOrigin(); got != tt.origin {
			t.Errorf("RelayOrigin() = %q, want %q", got, tt.origin)
		}
		s, err := New(cfg, testBundle(), zap.NewNop())
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		core := &config.CoreConfig{Security: config.SecurityConfig{EnableSecurityHeaders: true}}
		rec := serve(s.Handler(core), http.MethodGet, "/contact", nil)
		csp := rec.Header().Get("Content-Security-Policy")
		for _, want := range []string{"connect-src 'self' " + tt.origin + ";", "form-action 'self' " + tt.origin + ";"} {
			if !strings.Contains(csp, want) {
				t.Errorf("action %q: CSP %q missing %q", tt.action, csp, want)
			}
		}
	}
}

func TestContactPage_NextBehindTLSProxy(t *testing.T) {
	_, h := newTestSite(t, testBundle())
	rec := serve(h, http.MethodGet, "/contact", map[string]string{"X-Forwarded-Proto": "https"})
	if !strings.Contains(rec.Body.String(), `name="_next" value="https://example.com/merci.html"`) {
		t.Error("_next should use https behind a TLS proxy")
	}
}

func TestMerciAndStatic(t *testing.T) {
	_, h := newTestSite(t, testBundle())

	rec := serve(h, http.MethodGet, "/merci.html", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Merci") {
		t.Errorf("GET /merci.html = %d", rec.Code)
	}

	rec = serve(h, http.MethodGet, "/static/site.css", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), ".form-error") {
		t.Errorf("GET /static/site.css = %d", rec.Code)
	}
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=3600" {
		t.Errorf("static Cache-Control = %q", got)
	}

	rec = serve(h, http.MethodPost, "/contact", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /contact = %d, want 405", rec.Code)
	}
}

func TestBundleRoute(t *testing.T) {
	_, h := newTestSite(t, testBundle())

	rec := serve(h, http.MethodGet, "/wasm/formguard.wasm", map[string]string{"Accept-Encoding": "br"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Encoding"); got != "br" {
		t.Errorf("Content-Encoding = %q, want br", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/wasm" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Body.String(); got != "br-bundle" {
		t.Errorf("body = %q", got)
	}

	rec = serve(h, http.MethodGet, "/wasm/wasm_exec.js", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "// go loader" {
		t.Errorf("loader = %d %q", rec.Code, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		bundle fstest.MapFS
		code   int
		status string
	}{
		{"bundle present", testBundle(), http.StatusOK, "ok"},
		{"bundle missing", fstest.MapFS{LoaderFile: {Data: []byte("x")}}, http.StatusServiceUnavailable, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, h := newTestSite(t, tt.bundle)
			rec := serve(h, http.MethodGet, "/health", nil)
			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d", rec.Code, tt.code)
			}
			var resp health.Response
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.status {
				t.Errorf("status field = %q, want %q", resp.Status, tt.status)
			}
		})
	}
}

func TestRequireBundle(t *testing.T) {
	s, _ := newTestSite(t, fstest.MapFS{})
	if err := s.RequireBundle(t.Context()); !errors.Is(err, ErrBundleMissing) {
		t.Errorf("err = %v, want ErrBundleMissing", err)
	}

	s, _ = newTestSite(t, testBundle())
	if err := s.RequireBundle(t.Context()); err != nil {
		t.Errorf("err = %v", err)
	}
}

func TestConfirmationPath(t *testing.T) {
	tests := []struct {
		page     string
		wantPath string
		wantNext string
	}{
		{"merci.html", "merci.html", "http://example.com/merci.html"},
		{"/thanks/index.html", "thanks/index.html", "http://example.com/thanks/index.html"},
		{"https://other.example/ok", "merci.html", "https://other.example/ok"},
	}
	for _, tt := range tests {
		v := testValues()
		v[keyConfirmationPage] = tt.page
		cfg, err := ConfigFromValues(v)
		if err != nil {
			t.Fatal(err)
		}
		s, err := New(cfg, testBundle(), nil)
		if err != nil {
			t.Fatal(err)
		}
		if got := s.confirmationPath(); got != tt.wantPath {
			t.Errorf("confirmationPath(%q) = %q, want %q", tt.page, got, tt.wantPath)
		}
		req := httptest.NewRequest(http.MethodGet, "/contact", nil)
		if got := s.nextURL(req); got != tt.wantNext {
			t.Errorf("nextURL(%q) = %q, want %q", tt.page, got, tt.wantNext)
		}
	}
}
