package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Daxiongmao87/termaite-go/internal/shared/jsonx"
	"gopkg.in/yaml.v3"
)

// detectFormat maps a file extension to one of "json", "yaml", "toml".
func detectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	case ".toml":
		return "toml", nil
	default:
		return "", fmt.Errorf("unrecognized config extension for %q", path)
	}
}

// decodeDocument parses data (in the given format) into a generic map,
// used as the merge target before decoding into Config.
func decodeDocument(format string, data []byte) (map[string]any, error) {
	doc := map[string]any{}
	if len(data) == 0 {
		return doc, nil
	}

	switch format {
	case "json":
		if err := jsonx.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse json config: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml config: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse toml config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
	return doc, nil
}

// encodeDocument serializes doc back into the given format, for
// persisting allowlist/config mutations in the original encoding.
func encodeDocument(format string, doc map[string]any) ([]byte, error) {
	switch format {
	case "json":
		return jsonx.MarshalIndent(doc, "", "  ")
	case "yaml":
		return yaml.Marshal(doc)
	case "toml":
		var sb strings.Builder
		enc := toml.NewEncoder(&sb)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode toml config: %w", err)
		}
		return []byte(sb.String()), nil
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
}
