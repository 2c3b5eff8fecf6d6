package config

import "gopkg.in/yaml.v3"

// Show renders cfg as YAML for operator inspection (the "config show"
// CLI subcommand), with the API key redacted.
func Show(cfg *Config) (string, error) {
	redacted := *cfg
	if redacted.APIKey != "" {
		redacted.APIKey = "***redacted***"
	}

	data, err := yaml.Marshal(redacted)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
