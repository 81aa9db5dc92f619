// internal/bootstrap/hooks.go
package bootstrap

import (
	"context"
	"net/http"
	"os"

	"github.com/dalemusser/formguard/app"
	"github.com/dalemusser/formguard/config"
	"github.com/dalemusser/formguard/site"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// AppConfig is the formguard site configuration.
type AppConfig = site.Config

// LoadConfig loads the core config plus the site keys from flags, env
// (FORMGUARD_*), config files and defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	return loadConfig(logger, pflag.CommandLine, os.Args[1:])
}

func loadConfig(logger *zap.Logger, fs *pflag.FlagSet, args []string) (*config.CoreConfig, AppConfig, error) {
	core, values, err := config.Load(logger, fs, args, site.AppKeys())
	if err != nil {
		return nil, AppConfig{}, err
	}
	appCfg, err := site.ConfigFromValues(values)
	if err != nil {
		return nil, AppConfig{}, err
	}
	return core, appCfg, nil
}

// Prepare checks the wasm bundle. In prod a missing bundle stops startup;
// elsewhere it is only logged.
func Prepare(ctx context.Context, core *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	s, err := site.New(appCfg, nil, logger)
	if err != nil {
		return err
	}
	if core.Env == "prod" {
		return s.RequireBundle(ctx)
	}
	s.Warn(ctx)
	return nil
}

// BuildHandler returns the site handler.
func BuildHandler(core *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (http.Handler, error) {
	s, err := site.New(appCfg, nil, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("site ready",
		zap.String("relay_action", appCfg.RelayAction),
		zap.String("wasm_dir", appCfg.WasmDir))
	return s.Handler(core), nil
}

// Hooks wires the site into app.Run.
var Hooks = app.Hooks[AppConfig]{
	Name:         "formguard",
	LoadConfig:   LoadConfig,
	Prepare:      Prepare,
	BuildHandler: BuildHandler,
}
