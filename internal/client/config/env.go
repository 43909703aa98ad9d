package config

import (
	"os"
	"time"
)

const envPrefix = "STOREFRONT_CLIENT_"

// parseEnv overlays STOREFRONT_CLIENT_* variables. A malformed timeout
// panics.
func parseEnv(cfg *Config) {
	if v, ok := os.LookupEnv(envPrefix + "SERVER_URL"); ok {
		cfg.ServerURL = v
	}
	if v, ok := os.LookupEnv(envPrefix + "TOKEN_FILE"); ok {
		cfg.TokenFile = v
	}
	if v, ok := os.LookupEnv(envPrefix + "TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		cfg.Timeout = d
	}
}
