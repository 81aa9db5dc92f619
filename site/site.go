// site/site.go

// Package site serves the contact page the guard bundle runs on: the
// rendered form, the confirmation page, static assets and the wasm bundle.
package site

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/dalemusser/formguard/config"
	"github.com/dalemusser/formguard/guard"
	"github.com/dalemusser/formguard/metrics"
	"github.com/dalemusser/formguard/middleware"
	"github.com/dalemusser/formguard/pantry/fileserver"
	"github.com/dalemusser/formguard/pantry/health"
	"github.com/dalemusser/formguard/pantry/version"
	"github.com/dalemusser/formguard/router"
	"github.com/dalemusser/formguard/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Bundle files expected in Config.WasmDir.
const (
	BundleFile = "formguard.wasm"
	LoaderFile = "wasm_exec.js"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// ContactPage is the data the contact template renders.
type ContactPage struct {
	Title         string
	Action        string
	RelayHost     string
	Next          string
	Subject       string
	Captcha       bool
	PrivacyNotice template.HTML
	SubmitLabel   string
}

// Site renders pages and serves assets for one Config.
type Site struct {
	cfg    Config
	guard  guard.Config
	pages  *templates.Engine
	bundle fs.FS
	logger *zap.Logger
}

// New compiles the embedded templates. bundle is the directory holding the
// compiled wasm; nil opens cfg.WasmDir.
func New(cfg Config, bundle fs.FS, logger *zap.Logger) (*Site, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if bundle == nil {
		bundle = os.DirFS(cfg.WasmDir)
	}
	pages, err := templates.New(templateFS, "templates/shared/*.gohtml", "templates/pages/*.gohtml", logger)
	if err != nil {
		return nil, fmt.Errorf("site templates: %w", err)
	}
	return &Site{cfg: cfg, guard: cfg.GuardConfig(), pages: pages, bundle: bundle, logger: logger}, nil
}

// Routes mounts the page, asset and bundle routes on r.
func (s *Site) Routes(r chi.Router) {
	r.Get("/", s.contact)
	r.Get("/contact", s.contact)
	r.Get("/"+s.confirmationPath(), s.merci)

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", fileserver.Handler("/static", static, fileserver.Options{
		CacheControl:         s.cfg.StaticCacheControl,
		DisablePrecompressed: true,
	}))
	r.Handle("/wasm/*", fileserver.Handler("/wasm", s.bundle, fileserver.Options{
		CacheControl: s.cfg.StaticCacheControl,
		OnServe: func(name, encoding string) {
			if name == BundleFile {
				metrics.BundleServed(encoding)
			}
		},
	}))
}

// Checks reports whether the bundle and its loader are present.
func (s *Site) Checks() map[string]health.Check {
	file := func(name string) health.Check {
		return func(context.Context) error {
			if !fileserver.Exists(s.bundle, name) {
				return fmt.Errorf("%s not found in %s", name, s.cfg.WasmDir)
			}
			return nil
		}
	}
	return map[string]health.Check{
		"bundle": file(BundleFile),
		"loader": file(LoaderFile),
	}
}

// Handler assembles the full site handler: base router, security headers
// allowing the relay host, site routes, /health, /version and /metrics.
func (s *Site) Handler(core *config.CoreConfig) http.Handler {
	r := router.New(core, s.logger)
	r.Use(middleware.SecurityHeadersFromConfig(core, s.cfg.RelayOrigin()))
	s.Routes(r)
	health.Mount(r, s.Checks(), s.logger)
	version.Mount(r)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}

// Warn logs missing bundle files without failing startup, so the page can be
// served while the bundle is being built.
func (s *Site) Warn(ctx context.Context) {
	for name, check := range s.Checks() {
		if err := check(ctx); err != nil {
			s.logger.Warn("bundle file missing; the form will post without the guard",
				zap.String("check", name), zap.Error(err))
		}
	}
}

func (s *Site) contact(w http.ResponseWriter, r *http.Request) {
	data := ContactPage{
		Title:         "Contact",
		Action:        s.cfg.RelayAction,
		RelayHost:     s.cfg.RelayHost,
		Next:          s.nextURL(r),
		Subject:       s.cfg.MailSubject,
		Captcha:       s.cfg.Captcha,
		PrivacyNotice: s.cfg.PrivacyNotice,
		SubmitLabel:   s.guard.SubmitLabel,
	}
	w.Header().Set("Cache-Control", "no-cache")
	s.pages.Render(w, "contact", data)
	metrics.PageRendered("contact")
}

func (s *Site) merci(w http.ResponseWriter, r *http.Request) {
	s.pages.Render(w, "merci", struct{ Title string }{Title: "Merci"})
	metrics.PageRendered("merci")
}

// confirmationPath is the local path served for the confirmation page.
// An absolute ConfirmationPage points elsewhere and is served at merci.html.
func (s *Site) confirmationPath() string {
	u, err := url.Parse(s.cfg.ConfirmationPage)
	if err != nil || u.IsAbs() || u.Path == "" {
		return guard.DefaultConfig().ConfirmationPage
	}
	p := strings.TrimLeft(u.Path, "/")
	if p == "" {
		return guard.DefaultConfig().ConfirmationPage
	}
	return p
}

// nextURL is where the relay redirects after its own confirmation step:
// the configured page resolved against the request's origin.
func (s *Site) nextURL(r *http.Request) string {
	page, err := url.Parse(s.cfg.ConfirmationPage)
	if err != nil {
		page = &url.URL{Path: guard.DefaultConfig().ConfirmationPage}
	}
	if page.IsAbs() {
		return page.String()
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	origin := &url.URL{Scheme: scheme, Host: r.Host, Path: "/"}
	return origin.ResolveReference(page).String()
}

// ErrBundleMissing is returned by RequireBundle.
var ErrBundleMissing = errors.New("site: wasm bundle missing")

// RequireBundle fails when the bundle is absent; used in prod where serving
// the page without the guard is a deployment error.
func (s *Site) RequireBundle(ctx context.Context) error {
	for name, check := range s.Checks() {
		if err := check(ctx); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrBundleMissing, name, err)
		}
	}
	return nil
}
