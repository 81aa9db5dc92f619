// Command formguard serves the contact page, its confirmation page and the
// form guard wasm bundle.
package main

import (
	"context"
	"os"

	"github.com/dalemusser/formguard/app"
	"github.com/dalemusser/formguard/internal/bootstrap"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		os.Exit(1)
	}
}
