// Package config loads runtime configuration for the storefront CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (comments allowed) given with --config.
//  3. STOREFRONT_CLIENT_* environment variables.
//  4. Command-line flags, applied by the cli package on top of Load.
//
// # JSON schema
//
//	{
//	  // API base URL
//	  "server_url": "http://127.0.0.1:3001",
//	  "token_file": ".storefront/token",
//	  "timeout": "10s"
//	}
package config
