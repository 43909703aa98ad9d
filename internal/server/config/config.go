// Package config handles configuration for the server component: defaults,
// a JSON file overlay, environment variables and command-line flags, applied
// in that order.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"
)

// Config holds runtime settings for the storefront server.
//
// Fields:
//   - HTTPAddr: bind address for the HTTP API.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects in-memory storage.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Re-read on SIGHUP.
//   - AccessTokenValidityDuration: session token lifetime.
//   - PolicyFile: optional YAML route policy; empty uses the built-in table.
//   - RateLimitRPS / RateLimitBurst: per-client limit on /register and /login.
//   - TrustedProxies: CIDRs or addresses of reverse proxies whose
//     X-Forwarded-For is believed. Empty keys clients on the socket peer.
//   - SMTP*: outgoing mail for /mail.
//   - Payment*: gateway merchant code, signing secret and URLs.
//   - S3*: object storage for product images.
type Config struct {
	HTTPAddr                    string
	DatabaseDSN                 string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	PolicyFile                  string
	LogLevel                    string
	CORSAllowedOrigin           string

	RateLimitRPS   float64
	RateLimitBurst int
	TrustedProxies []string

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPSecurity string

	PaymentTmnCode    string
	PaymentHashSecret string
	PaymentURL        string
	PaymentReturnURL  string

	S3RootUser     string
	S3RootPassword string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey must be overridden outside local development.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":3001"
	c.DatabaseDSN = ""
	c.SecretKey = "dev-only-secret"
	c.AccessTokenValidityDuration = 1 * time.Hour
	c.LogLevel = "info"
	c.CORSAllowedOrigin = "*"
	c.RateLimitRPS = 5
	c.RateLimitBurst = 10
	c.SMTPPort = "587"
	c.SMTPSecurity = "starttls"
	c.PaymentURL = "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"
	c.PaymentReturnURL = "http://localhost:5173/payment/return"
	c.S3Region = "us-east-1"
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http address is empty"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is empty"))
	}
	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, fmt.Errorf("access token validity must be positive, got %s", c.AccessTokenValidityDuration))
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		errs = append(errs, errors.New("rate limit must not be negative"))
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address is taken as a
// single-host prefix.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
		}
		a = a.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(a, a.BitLen()))
	}
	return prefixes, nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment (including .env) and finally
// command-line flags. It panics on unreadable input.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	loadDotEnv()
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

// Reload is LoadConfig for a running process: failures come back as errors.
func Reload() (cfg *Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			cfg, err = nil, fmt.Errorf("config reload: %v", r)
		}
	}()
	cfg = LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
