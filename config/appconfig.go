// config/appconfig.go
package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// AppKey declares a site-specific configuration key. Keys are read from the
// same config file, FORMGUARD_ environment and flag set as the core keys.
type AppKey struct {
	// Name is used as-is for config files and flags, and uppercased with the
	// FORMGUARD_ prefix for env vars (relay_action -> FORMGUARD_RELAY_ACTION).
	Name string

	// Default is one of string, int, int64, bool, []string.
	Default any

	Desc string
}

// AppConfigValues holds the loaded app values keyed by AppKey.Name.
type AppConfigValues map[string]any

// String returns a string value or "" if not found/wrong type.
func (a AppConfigValues) String(key string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return ""
}

// Int handles both int and int64 (TOML decodes integers as int64).
func (a AppConfigValues) Int(key string) int {
	switch v := a[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

// Bool returns a bool value or false if not found/wrong type.
func (a AppConfigValues) Bool(key string) bool {
	switch v := a[key].(type) {
	case bool:
		return v
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		return s == "true" || s == "1" || s == "yes"
	}
	return false
}

// StringSlice returns a []string value or nil if not found/wrong type.
func (a AppConfigValues) StringSlice(key string) []string {
	if v, ok := a[key].([]string); ok {
		return v
	}
	return nil
}

// Duration accepts "90s"-style strings or numeric seconds. Missing or invalid
// values yield def.
func (a AppConfigValues) Duration(key string, def time.Duration) time.Duration {
	raw := a[key]
	if raw == nil {
		return def
	}
	dur, err := parseDurationFlexible(raw, def)
	if err != nil {
		return def
	}
	return dur
}

// loadAppConfig resolves keys with the core precedence:
// flags > env > config files > defaults.
// v already holds merged config files; fs must already be parsed.
func loadAppConfig(logger *zap.Logger, v *viper.Viper, fs *pflag.FlagSet, keys []AppKey) AppConfigValues {
	if len(keys) == 0 {
		return make(AppConfigValues)
	}

	appV := viper.New()
	appV.SetEnvPrefix(EnvPrefix)
	appV.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	appV.AutomaticEnv()

	for _, key := range keys {
		appV.SetDefault(key.Name, key.Default)
		_ = appV.BindEnv(key.Name)

		if v.InConfig(key.Name) {
			appV.Set(key.Name, v.Get(key.Name))
		}
		if f := fs.Lookup(key.Name); f != nil && f.Changed {
			_ = appV.BindPFlag(key.Name, f)
		}
	}

	result := make(AppConfigValues, len(keys))
	for _, key := range keys {
		switch key.Default.(type) {
		case []string:
			result[key.Name] = toStringSlice(appV.Get(key.Name))
		case bool:
			result[key.Name] = appV.GetBool(key.Name)
		case int:
			result[key.Name] = appV.GetInt(key.Name)
		case int64:
			result[key.Name] = appV.GetInt64(key.Name)
		default:
			result[key.Name] = appV.Get(key.Name)
		}
	}

	if logger != nil {
		fields := make([]zap.Field, 0, len(keys))
		for _, key := range keys {
			nameLower := strings.ToLower(key.Name)
			if strings.Contains(nameLower, "key") ||
				strings.Contains(nameLower, "secret") ||
				strings.Contains(nameLower, "password") ||
				strings.Contains(nameLower, "token") {
				fields = append(fields, zap.String(key.Name, "[REDACTED]"))
			} else {
				fields = append(fields, zap.Any(key.Name, result[key.Name]))
			}
		}
		logger.Info("app config loaded", fields...)
	}

	return result
}

// toStringSlice accepts a JSON array string, a comma separated string, or a
// decoded list.
func toStringSlice(raw any) []string {
	switch t := raw.(type) {
	case []string:
		return t
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, fmt.Sprint(e))
		}
		return out
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		if strings.HasPrefix(s, "[") {
			var arr []string
			if err := json.Unmarshal([]byte(s), &arr); err == nil {
				return arr
			}
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return nil
}

// registerAppFlags defines a flag per key on fs. Must run before fs.Parse.
func registerAppFlags(fs *pflag.FlagSet, keys []AppKey) error {
	for _, key := range keys {
		if fs.Lookup(key.Name) != nil {
			return fmt.Errorf("config key %q conflicts with existing flag", key.Name)
		}

		switch d := key.Default.(type) {
		case string:
			fs.String(key.Name, d, key.Desc)
		case int:
			fs.Int(key.Name, d, key.Desc)
		case int64:
			fs.Int64(key.Name, d, key.Desc)
		case bool:
			fs.Bool(key.Name, d, key.Desc)
		case []string:
			fs.String(key.Name, "", key.Desc+" (JSON array)")
		default:
			return fmt.Errorf("config key %q has unsupported default type %T", key.Name, key.Default)
		}
	}
	return nil
}
