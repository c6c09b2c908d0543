// Package config handles configuration loading for parley.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from PARLEY_CONFIG environment variable
//  2. ./config.yaml (current directory)
//  3. ~/.config/parley/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	history:
//	  path: "${PARLEY_HISTORY_PATH}"
//
// Syntax: ${VAR_NAME}
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	feed:
//	  dedupe_window: "5m"
//
// Supported units: ns, us, ms, s, m, h
//
// # Configuration Sections
//
// Message history:
//
//	history:
//	  path: "/var/lib/parley/history.db"
//
// Reconciliation policies:
//
//	engine:
//	  delta_overwrite: "last_write_wins"  # or first_write_wins
//	  orphan_replies: "show"              # or hide
//
// Event feed tuning:
//
//	feed:
//	  dedupe_window: "5m"
//	  dedupe_max_size: 4096
//	  buffer_size: 64
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() validates:
//
//   - History path presence
//   - Engine policy values
//   - Duration format validity
//   - Non-negative feed sizes
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load("/etc/parley/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
