package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "STOREFRONT_"

var (
	dotEnvMu sync.Mutex
	// externalEnv holds the .env keys that were already set in the process
	// environment when .env was first read. nil until then.
	externalEnv map[string]bool
)

// loadDotEnv reads .env from the working directory if there is one.
// Variables set outside .env win. Keys that came from .env are rewritten on
// every call, so an edited .env takes effect on reload.
func loadDotEnv() {
	values, err := godotenv.Read()
	if err != nil {
		return
	}

	dotEnvMu.Lock()
	defer dotEnvMu.Unlock()

	if externalEnv == nil {
		externalEnv = make(map[string]bool, len(values))
		for k := range values {
			if _, ok := os.LookupEnv(k); ok {
				externalEnv[k] = true
			}
		}
	}
	for k, v := range values {
		if !externalEnv[k] {
			_ = os.Setenv(k, v)
		}
	}
}

// parseEnv overlays STOREFRONT_* variables. PORT is honoured as a shorthand
// for STOREFRONT_HTTP_ADDR=":$PORT". Malformed numbers and durations panic.
func parseEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		config.HTTPAddr = ":" + port
	}

	strs := map[string]*string{
		"HTTP_ADDR":           &config.HTTPAddr,
		"DATABASE_DSN":        &config.DatabaseDSN,
		"SECRET_KEY":          &config.SecretKey,
		"POLICY_FILE":         &config.PolicyFile,
		"LOG_LEVEL":           &config.LogLevel,
		"CORS_ALLOWED_ORIGIN": &config.CORSAllowedOrigin,
		"SMTP_HOST":           &config.SMTPHost,
		"SMTP_PORT":           &config.SMTPPort,
		"SMTP_USER":           &config.SMTPUser,
		"SMTP_PASSWORD":       &config.SMTPPassword,
		"SMTP_FROM":           &config.SMTPFrom,
		"SMTP_SECURITY":       &config.SMTPSecurity,
		"PAYMENT_TMN_CODE":    &config.PaymentTmnCode,
		"PAYMENT_HASH_SECRET": &config.PaymentHashSecret,
		"PAYMENT_URL":         &config.PaymentURL,
		"PAYMENT_RETURN_URL":  &config.PaymentReturnURL,
		"S3_ROOT_USER":        &config.S3RootUser,
		"S3_ROOT_PASSWORD":    &config.S3RootPassword,
		"S3_BUCKET":           &config.S3Bucket,
		"S3_REGION":           &config.S3Region,
		"S3_BASE_ENDPOINT":    &config.S3BaseEndpoint,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(envPrefix + "TRUSTED_PROXIES"); ok {
		config.TrustedProxies = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				config.TrustedProxies = append(config.TrustedProxies, p)
			}
		}
	}

	if v := os.Getenv(envPrefix + "ACCESS_TOKEN_VALIDITY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		config.AccessTokenValidityDuration = d
	}
	if v := os.Getenv(envPrefix + "RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(err)
		}
		config.RateLimitRPS = f
	}
	if v := os.Getenv(envPrefix + "RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		config.RateLimitBurst = n
	}
}
