// guard/guard.go
package guard

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// ErrNotRelayForm is returned by Init when the form does not post to the
// relay host. Callers treat it as "leave the page alone".
var ErrNotRelayForm = errors.New("guard: form action does not target the relay host")

// State is the submit orchestrator's position.
type State int

const (
	StateIdle State = iota
	StateChecking
	StateSubmitting
	StateSuccess
	StateFailure
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChecking:
		return "checking"
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	case StateFailure:
		return "failure"
	}
	return "unknown"
}

// Outcome tells the caller how a submit event ended.
type Outcome int

const (
	OutcomeRateLimited Outcome = iota
	OutcomeInvalid
	OutcomeBot
	OutcomeSent
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeBot:
		return "bot"
	case OutcomeSent:
		return "sent"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Guard wires the sanitizer, validator and limiter to one form.
type Guard struct {
	cfg       Config
	surface   Surface
	sender    Sender
	limiter   *Limiter
	validator *Validator
	logger    *zap.Logger

	mu    sync.Mutex
	state State
}

// Option configures a Guard.
type Option func(*Guard)

// WithLogger sets the logger. Bot detections and send failures go there.
func WithLogger(l *zap.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithLimiter shares or pre-seeds the rate limiter.
func WithLimiter(l *Limiter) Option {
	return func(g *Guard) {
		if l != nil {
			g.limiter = l
		}
	}
}

// New creates a guard for one form.
func New(cfg Config, surface Surface, sender Sender, opts ...Option) *Guard {
	cfg = cfg.withDefaults()
	g := &Guard{
		cfg:     cfg,
		surface: surface,
		sender:  sender,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.limiter == nil {
		g.limiter = NewLimiter(cfg.Window)
	}
	g.validator = NewValidator(cfg, g.logger)
	return g
}

// Config returns the effective configuration.
func (g *Guard) Config() Config { return g.cfg }

// Limiter returns the guard's rate limiter.
func (g *Guard) Limiter() *Limiter { return g.limiter }

// State returns the current orchestrator state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Guard) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}

// Init checks that the form posts to the relay and injects the honeypot if
// the page does not already carry one.
func (g *Guard) Init() error {
	if !strings.Contains(g.surface.Action(), g.cfg.RelayHost) {
		return ErrNotRelayForm
	}
	if _, ok := g.surface.Honeypot(); !ok {
		g.surface.InjectHoneypot()
	}
	return nil
}

// HandleBlur sanitizes the field in place when it is one of the blur
// fields. Other ids are ignored.
func (g *Guard) HandleBlur(id string) {
	if !g.cfg.sanitizesOnBlur(id) {
		return
	}
	g.surface.SetValue(id, Sanitize(g.surface.Value(id)))
}

// Validate runs one validation pass against the surface.
func (g *Guard) Validate() Result {
	return g.validator.Validate(g.surface)
}

// compose rewrites the free-text fields to NFC on the surface, so the text
// validated is the text sent.
func (g *Guard) compose() {
	for _, id := range textFields {
		raw := g.surface.Value(id)
		if c := norm.NFC.String(raw); c != raw {
			g.surface.SetValue(id, c)
		}
	}
}

// CheckRateLimit runs the rate check and updates the rate-limit message.
func (g *Guard) CheckRateLimit() bool {
	allowed, remaining := g.limiter.Check()
	if !allowed {
		g.surface.ShowRateLimit(g.cfg.Messages.Get(MsgRateLimited, map[string]int{"seconds": remaining}))
		return false
	}
	g.surface.HideRateLimit()
	return true
}

// HandleSubmit runs one submit event to completion. The caller must already
// have suppressed the browser's default submission.
//
// The call blocks while the request is in flight.
func (g *Guard) HandleSubmit(ctx context.Context) Outcome {
	g.setState(StateChecking)

	if !g.CheckRateLimit() {
		g.setState(StateIdle)
		return OutcomeRateLimited
	}

	g.compose()
	res := g.Validate()
	if !res.Valid {
		g.setState(StateIdle)
		if res.Bot {
			return OutcomeBot
		}
		return OutcomeInvalid
	}

	payload := SanitizeEntries(g.surface.Entries(), g.cfg.IsReserved)

	g.surface.DisableSubmit(g.cfg.SendingLabel)
	g.limiter.Record()
	g.setState(StateSubmitting)

	action := g.surface.Action()
	if err := g.sender.Send(ctx, action, payload); err != nil {
		g.setState(StateFailure)
		g.logger.Error("form submission failed",
			zap.String("action", action),
			zap.Error(err),
		)
		g.surface.Alert(g.cfg.Messages.Get(MsgSendFailed, nil))
		g.surface.EnableSubmit(g.cfg.SubmitLabel)
		g.setState(StateIdle)
		return OutcomeFailed
	}

	g.setState(StateSuccess)
	g.logger.Debug("form submitted", zap.String("action", action), zap.Int("fields", len(payload)))
	g.surface.Navigate(g.cfg.ConfirmationPage)
	return OutcomeSent
}
