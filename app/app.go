// app/app.go
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/formguard/config"
	"github.com/dalemusser/formguard/httputil"
	"github.com/dalemusser/formguard/logging"
	"github.com/dalemusser/formguard/metrics"
	"github.com/dalemusser/formguard/pantry/version"
	"github.com/dalemusser/formguard/server"
	"go.uber.org/zap"
)

// Hooks are the steps a site binary supplies to Run. C is the site's own
// config type.
type Hooks[C any] struct {
	// Name appears in startup logs.
	Name string

	// LoadConfig returns the core config and the site config, usually by
	// calling config.Load.
	LoadConfig func(logger *zap.Logger) (*config.CoreConfig, C, error)

	// Prepare runs once before the handler is built, e.g. to check that
	// the wasm bundle exists. Optional.
	Prepare func(ctx context.Context, core *config.CoreConfig, appCfg C, logger *zap.Logger) error

	// BuildHandler returns the complete handler: router, middleware, routes.
	BuildHandler func(core *config.CoreConfig, appCfg C, logger *zap.Logger) (http.Handler, error)
}

// Run loads config, builds the final logger, registers metrics, runs
// Prepare, builds the handler and serves until SIGINT/SIGTERM or ctx ends.
// Any startup failure is logged and returned; the caller decides the exit
// code.
func Run[C any](ctx context.Context, hooks Hooks[C]) error {
	bootstrap := logging.BootstrapLogger()
	defer func() { _ = bootstrap.Sync() }()
	bootstrap.Info("bootstrap logger initialized", zap.String("app", hooks.Name))

	if hooks.LoadConfig == nil || hooks.BuildHandler == nil {
		return fmt.Errorf("app %s: LoadConfig and BuildHandler are required", hooks.Name)
	}

	coreCfg, appCfg, err := hooks.LoadConfig(bootstrap)
	if err != nil {
		bootstrap.Error("config load failed", zap.Error(err))
		return fmt.Errorf("load config: %w", err)
	}
	bootstrap.Info("config loaded",
		zap.String("env", coreCfg.Env),
		zap.String("log_level", coreCfg.LogLevel),
	)

	logger, err := logging.BuildLogger(coreCfg.LogLevel, coreCfg.Env)
	if err != nil {
		bootstrap.Error("logger build failed", zap.Error(err))
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("logger initialized", zap.String("app", hooks.Name), zap.String("version", version.String()))
	logger.Debug("core config", zap.String("config", coreCfg.Dump()))

	httputil.SetJSONLogger(logger)
	metrics.RegisterDefault(logger)

	ctx, cancel := server.WithShutdownSignals(ctx, logger)
	defer cancel()

	if hooks.Prepare != nil {
		if err := hooks.Prepare(ctx, coreCfg, appCfg, logger); err != nil {
			logger.Error("prepare failed", zap.Error(err))
			return fmt.Errorf("prepare: %w", err)
		}
	}

	handler, err := hooks.BuildHandler(coreCfg, appCfg, logger)
	if err != nil {
		logger.Error("handler build failed", zap.Error(err))
		return fmt.Errorf("build handler: %w", err)
	}

	if err := server.ListenAndServeWithContext(ctx, coreCfg, handler, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
