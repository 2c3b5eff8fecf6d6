package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Daxiongmao87/termaite-go/internal/shared/jsonx"
)

// Overrides carries CLI flag values that take precedence over file and
// environment sources (spec.md §6's operation-mode/model/endpoint
// surface).
type Overrides struct {
	Endpoint      string
	Model         string
	OperationMode string
	Timeout       time.Duration
	ConfigPath    string
}

// candidatePaths returns config file locations in descending precedence
// (the first one that exists is used), matching cmd/cobra_cli.go's
// viper.AddConfigPath search order.
func candidatePaths(explicit string) []string {
	if explicit != "" {
		return []string{explicit}
	}

	var paths []string
	if env := os.Getenv("TERMAITE_CONFIG"); env != "" {
		paths = append(paths, env)
	}
	for _, ext := range []string{"json", "yaml", "yml", "toml"} {
		paths = append(paths, filepath.Join(".", fmt.Sprintf(".termaite.%s", ext)))
	}
	if home, err := os.UserHomeDir(); err == nil {
		for _, ext := range []string{"json", "yaml", "yml", "toml"} {
			paths = append(paths, filepath.Join(home, ".termaite", fmt.Sprintf("config.%s", ext)))
		}
	}
	return paths
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Load resolves a Config from built-in defaults, an optional file, the
// TERMAITE_ environment namespace, and explicit overrides, in that
// ascending order of precedence.
func Load(overrides Overrides) (*Config, error) {
	defaults := Defaults()
	doc, err := defaultsToDocument(defaults)
	if err != nil {
		return nil, err
	}
	// defaultsToDocument round-trips through Config's JSON tags, so
	// command_timeout comes out as Go's native time.Duration
	// representation (nanoseconds). Every other layer (file, env,
	// overrides) speaks plain seconds per spec.md §3; normalize here
	// so the whole pipeline is seconds until the final conversion.
	if ns, ok := toInt(doc["command_timeout"]); ok {
		doc["command_timeout"] = ns / int(time.Second)
	}

	if overrides.ConfigPath != "" {
		if info, statErr := os.Stat(overrides.ConfigPath); statErr != nil || info.IsDir() {
			return nil, fmt.Errorf("config file %s not found", overrides.ConfigPath)
		}
	}

	path := firstExisting(candidatePaths(overrides.ConfigPath))
	format := ""
	if path != "" {
		format, err = detectFormat(path)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		fileDoc, err := decodeDocument(format, data)
		if err != nil {
			return nil, err
		}
		mergeInto(doc, fileDoc)
	}

	applyEnv(doc)
	applyOverrides(doc, overrides)

	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	cfg, err := documentToConfig(doc)
	if err != nil {
		return nil, err
	}
	cfg.path = path
	cfg.format = format
	if cfg.format == "" {
		cfg.format = "json"
	}
	return cfg, nil
}

// mergeInto overlays src onto dst, key by key (shallow for maps like
// allowed_commands/blacklisted_commands/prompts, which are wholesale
// replaced when present in src).
func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}

// applyEnv overlays TERMAITE_-prefixed environment variables using
// viper's env-binding conventions, matching the teacher's viper setup
// in cmd/cobra_cli.go.
func applyEnv(doc map[string]any) {
	v := viper.New()
	v.SetEnvPrefix("TERMAITE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	keys := []string{"endpoint", "api_key", "model", "operation_mode", "command_timeout", "allow_clarifying_questions", "response_path"}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
	for _, key := range keys {
		if val := v.GetString(key); val != "" {
			doc[key] = coerceEnvValue(key, val)
		}
	}
}

func coerceEnvValue(key, val string) any {
	switch key {
	case "command_timeout":
		if secs, err := strconv.Atoi(val); err == nil {
			return secs
		}
	case "allow_clarifying_questions":
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return val
}

func applyOverrides(doc map[string]any, o Overrides) {
	if o.Endpoint != "" {
		doc["endpoint"] = o.Endpoint
	}
	if o.Model != "" {
		doc["model"] = o.Model
	}
	if o.OperationMode != "" {
		doc["operation_mode"] = o.OperationMode
	}
	if o.Timeout > 0 {
		doc["command_timeout"] = int(o.Timeout.Seconds())
	}
}

func defaultsToDocument(defaults Config) (map[string]any, error) {
	data, err := jsonx.Marshal(defaults)
	if err != nil {
		return nil, fmt.Errorf("encode defaults: %w", err)
	}
	doc := map[string]any{}
	if err := jsonx.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode defaults: %w", err)
	}
	return doc, nil
}

func documentToConfig(doc map[string]any) (*Config, error) {
	// command_timeout is stored in the document as plain seconds
	// (an integer), not a time.Duration string; convert before the
	// final decode into Config.
	normalized := map[string]any{}
	for k, v := range doc {
		normalized[k] = v
	}
	if secs, ok := normalized["command_timeout"]; ok {
		if n, ok := toInt(secs); ok {
			normalized["command_timeout"] = n * int(time.Second)
		}
	}

	data, err := jsonx.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("encode merged document: %w", err)
	}
	var cfg Config
	if err := jsonx.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode merged document: %w", err)
	}
	if cfg.Allowed == nil {
		cfg.Allowed = map[string]string{}
	}
	if cfg.Blacklisted == nil {
		cfg.Blacklisted = map[string]string{}
	}
	return &cfg, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		if parsed, err := strconv.Atoi(n); err == nil {
			return parsed, true
		}
	}
	return 0, false
}
