//go:build js && wasm

// Command formguard-wasm is the browser side of the contact form guard.
//
// Build with:
//
//	GOOS=js GOARCH=wasm go build -o web/wasm/formguard.wasm ./cmd/formguard-wasm
package main

import (
	"errors"
	"syscall/js"

	"github.com/dalemusser/formguard/dom"
	"github.com/dalemusser/formguard/guard"
	"github.com/dalemusser/formguard/logging"
	"github.com/dalemusser/formguard/relay"
	"go.uber.org/zap"
)

func main() {
	logger := logging.BrowserLogger("info")
	defer logger.Sync()

	start := func() {
		sender := relay.New(relay.WithMultipart(), relay.WithLogger(logger))
		if _, err := dom.Start(dom.PageConfig(), sender, logger); err != nil {
			if errors.Is(err, guard.ErrNotRelayForm) {
				return
			}
			logger.Error("form guard failed to start", zap.Error(err))
		}
	}

	doc := js.Global().Get("document")
	if doc.Get("readyState").String() == "loading" {
		var onReady js.Func
		onReady = js.FuncOf(func(js.Value, []js.Value) any {
			start()
			onReady.Release()
			return nil
		})
		doc.Call("addEventListener", "DOMContentLoaded", onReady)
	} else {
		start()
	}

	select {}
}
