//go:build js && wasm

package dom

import (
	"context"
	"syscall/js"

	"github.com/dalemusser/formguard/guard"
	"go.uber.org/zap"
)

// NextAttr on the form overrides the confirmation page.
const NextAttr = "data-next"

// RelayHostMeta names the <meta> element whose content overrides the relay
// host, so one bundle serves sites using different relays.
const RelayHostMeta = "formguard-relay-host"

// PageConfig returns guard.DefaultConfig adjusted by the page's
// RelayHostMeta element, if any.
func PageConfig() guard.Config {
	cfg := guard.DefaultConfig()
	meta := js.Global().Get("document").Call("querySelector", `meta[name="`+RelayHostMeta+`"]`)
	if present(meta) {
		if host := meta.Call("getAttribute", "content"); host.Type() == js.TypeString && host.String() != "" {
			cfg.RelayHost = host.String()
		}
	}
	return cfg
}

// Binding holds the listeners attached to one form.
type Binding struct {
	Guard *guard.Guard

	form    js.Value
	submit  js.Func
	blur    map[string]js.Func
	targets map[string]js.Value
}

// Start looks for a form posting to cfg.RelayHost and hardens it: honeypot,
// blur sanitization and the submit interceptor. When the page has no such
// form it returns guard.ErrNotRelayForm and touches nothing.
func Start(cfg guard.Config, sender guard.Sender, logger *zap.Logger) (*Binding, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RelayHost == "" {
		cfg.RelayHost = guard.DefaultConfig().RelayHost
	}

	doc := js.Global().Get("document")
	form := doc.Call("querySelector", `form[action*="`+cfg.RelayHost+`"]`)
	if !present(form) {
		return nil, guard.ErrNotRelayForm
	}
	if next := form.Call("getAttribute", NextAttr); next.Type() == js.TypeString && next.String() != "" {
		cfg.ConfirmationPage = next.String()
	}

	g := guard.New(cfg, NewSurface(doc, form), sender, guard.WithLogger(logger))
	if err := g.Init(); err != nil {
		return nil, err
	}

	b := &Binding{
		Guard:   g,
		form:    form,
		blur:    map[string]js.Func{},
		targets: map[string]js.Value{},
	}

	for _, id := range g.Config().BlurFields {
		el := doc.Call("getElementById", id)
		if !present(el) {
			continue
		}
		id := id
		fn := js.FuncOf(func(js.Value, []js.Value) any {
			g.HandleBlur(id)
			return nil
		})
		el.Call("addEventListener", "blur", fn)
		b.blur[id] = fn
		b.targets[id] = el
	}

	b.submit = js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) > 0 {
			args[0].Call("preventDefault")
		}
		// Blocking calls are not allowed inside a js callback.
		go func() {
			outcome := g.HandleSubmit(context.Background())
			logger.Debug("submit handled", zap.Stringer("outcome", outcome))
		}()
		return nil
	})
	form.Call("addEventListener", "submit", b.submit)

	logger.Info("form guard attached", zap.String("relay_host", cfg.RelayHost))
	return b, nil
}

// Stop removes the listeners and releases their callbacks.
func (b *Binding) Stop() {
	for id, fn := range b.blur {
		b.targets[id].Call("removeEventListener", "blur", fn)
		fn.Release()
	}
	b.form.Call("removeEventListener", "submit", b.submit)
	b.submit.Release()
}
