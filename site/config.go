// site/config.go
package site

import (
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/dalemusser/formguard/config"
	"github.com/dalemusser/formguard/guard"
	"github.com/microcosm-cc/bluemonday"
)

// Config is the site's own configuration, loaded through config.Load with
// AppKeys.
type Config struct {
	RelayAction        string
	RelayHost          string
	ConfirmationPage   string
	MailSubject        string
	Captcha            bool
	PrivacyNotice      template.HTML
	WasmDir            string
	StaticCacheControl string
}

const (
	keyRelayAction        = "relay_action"
	keyRelayHost          = "relay_host"
	keyConfirmationPage   = "confirmation_page"
	keyMailSubject        = "mail_subject"
	keyCaptcha            = "captcha"
	keyPrivacyNoticeHTML  = "privacy_notice_html"
	keyWasmDir            = "wasm_dir"
	keyStaticCacheControl = "static_cache_control"
)

const defaultPrivacyNotice = "J'accepte que mes données soient utilisées pour répondre à ma demande."

// AppKeys lists the site keys for config.Load.
func AppKeys() []config.AppKey {
	def := guard.DefaultConfig()
	return []config.AppKey{
		{Name: keyRelayAction, Default: "", Desc: "Form action URL on the relay, e.g. https://formsubmit.co/you@example.com"},
		{Name: keyRelayHost, Default: def.RelayHost, Desc: "Host the guard looks for in the form action"},
		{Name: keyConfirmationPage, Default: def.ConfirmationPage, Desc: "Page (or absolute URL) shown after a successful send"},
		{Name: keyMailSubject, Default: "Nouveau message depuis le site", Desc: "Subject of the relayed e-mail"},
		{Name: keyCaptcha, Default: false, Desc: "Let the relay show its own captcha"},
		{Name: keyPrivacyNoticeHTML, Default: defaultPrivacyNotice, Desc: "Label of the privacy checkbox (HTML, sanitized)"},
		{Name: keyWasmDir, Default: "web/wasm", Desc: "Directory holding formguard.wasm and wasm_exec.js"},
		{Name: keyStaticCacheControl, Default: "public, max-age=3600", Desc: "Cache-Control for static assets and the bundle"},
	}
}

// noticePolicy keeps inline formatting and links in the privacy notice.
var noticePolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "strong", "i", "em", "br", "span")
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}()

// SanitizeNotice strips everything but inline formatting and links.
func SanitizeNotice(raw string) template.HTML {
	// Output of a bluemonday policy is safe to mark as HTML.
	return template.HTML(noticePolicy.Sanitize(raw))
}

// ConfigFromValues builds and validates a Config.
func ConfigFromValues(v config.AppConfigValues) (Config, error) {
	cfg := Config{
		RelayAction:        strings.TrimSpace(v.String(keyRelayAction)),
		RelayHost:          strings.TrimSpace(v.String(keyRelayHost)),
		ConfirmationPage:   strings.TrimSpace(v.String(keyConfirmationPage)),
		MailSubject:        v.String(keyMailSubject),
		Captcha:            v.Bool(keyCaptcha),
		PrivacyNotice:      SanitizeNotice(v.String(keyPrivacyNoticeHTML)),
		WasmDir:            strings.TrimSpace(v.String(keyWasmDir)),
		StaticCacheControl: v.String(keyStaticCacheControl),
	}
	def := guard.DefaultConfig()
	if cfg.RelayHost == "" {
		cfg.RelayHost = def.RelayHost
	}
	if cfg.ConfirmationPage == "" {
		cfg.ConfirmationPage = def.ConfirmationPage
	}
	if cfg.PrivacyNotice == "" {
		cfg.PrivacyNotice = SanitizeNotice(defaultPrivacyNotice)
	}
	return cfg, cfg.Validate()
}

// Validate checks that the form action points at the relay. Without that
// the guard stays inactive on the page.
func (c Config) Validate() error {
	var errs []error
	if c.RelayAction == "" {
		errs = append(errs, fmt.Errorf("%s is required", keyRelayAction))
	} else {
		u, err := url.Parse(c.RelayAction)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", keyRelayAction, err))
		case (u.Scheme != "https" && u.Scheme != "http") || u.Host == "":
			errs = append(errs, fmt.Errorf("%s must be an absolute http(s) URL", keyRelayAction))
		case !strings.Contains(c.RelayAction, c.RelayHost):
			errs = append(errs, fmt.Errorf("%s %q does not contain relay host %q", keyRelayAction, c.RelayAction, c.RelayHost))
		}
	}
	if c.WasmDir == "" {
		errs = append(errs, fmt.Errorf("%s is required", keyWasmDir))
	}
	return errors.Join(errs...)
}

// RelayOrigin is the scheme and host the form posts to. The page policy
// allows it for both fetch and form submission.
func (c Config) RelayOrigin() string {
	u, err := url.Parse(c.RelayAction)
	if err != nil || u.Host == "" {
		return c.RelayHost
	}
	return u.Scheme + "://" + u.Host
}

// GuardConfig returns the guard configuration the page is rendered for.
func (c Config) GuardConfig() guard.Config {
	g := guard.DefaultConfig()
	g.RelayHost = c.RelayHost
	g.ConfirmationPage = c.ConfirmationPage
	return g
}
