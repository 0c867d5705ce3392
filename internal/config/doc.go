// Package config handles configuration loading for chatbcg.
//
// # Overview
//
// Configuration is loaded from a YAML (or TOML) file with environment
// variable expansion. Every field has a default, so a missing file is
// not an error.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from CHATBCG_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/chatbcg/config.yaml
//  3. ~/.config/chatbcg/config.yaml
//
// Files ending in .toml are decoded as TOML, anything else as YAML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	backend:
//	  url: "${CHATBCG_BACKEND}"
//
// BACKEND_URL, when set, overrides backend.url.
//
// # Configuration Sections
//
//	backend:
//	  url: "http://localhost:8000"
//	  timeout: "2m"           # empty means no client-side timeout
//
//	upload:
//	  max_size_mb: 10
//	  allowed_extensions: [".pdf", ".doc", ".docx", ".txt"]
//
//	logging:
//	  level: "info"           # debug, info, warn, error
//	  format: "text"          # text, json
//	  file: ""                # empty: stderr (the TUI picks a state file)
//
//	ui:
//	  alt_screen: true
//	  show_sources: false
//
// # Usage
//
//	cfg, err := config.Load(config.Path())
//	if err != nil {
//	    return fmt.Errorf("loading config: %w", err)
//	}
package config
