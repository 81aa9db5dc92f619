// Package guard hardens a static contact form that posts to a third-party
// form relay: it sanitizes input, validates fields, traps bots with a
// honeypot field and enforces a per-page submission window.
//
// The guard never touches a browser directly. It drives a Surface (the form
// as seen by the user) and a Sender (the outbound request), so the same
// logic runs against a live DOM under js/wasm and against fakes in tests:
//
//	g := guard.New(guard.DefaultConfig(), surface, relay.New(), guard.WithLogger(logger))
//	if err := g.Init(); err != nil {
//	    return // not a relay form; leave the page alone
//	}
//	// on blur:   g.HandleBlur("name")
//	// on submit: g.HandleSubmit(ctx)
package guard
