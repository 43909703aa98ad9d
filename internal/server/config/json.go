package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/storefront/internal/flagx"
	"github.com/dmitrijs2005/storefront/internal/timex"
	"github.com/tidwall/jsonc"
)

// JsonConfig is the on-disk form of Config. Durations accept "1h" or
// integer nanoseconds. Comments and trailing commas are allowed.
type JsonConfig struct {
	HTTPAddr                    string         `json:"http_addr"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	PolicyFile                  string         `json:"policy_file"`
	LogLevel                    string         `json:"log_level"`
	CORSAllowedOrigin           string         `json:"cors_allowed_origin"`
	RateLimitRPS                float64        `json:"rate_limit_rps"`
	RateLimitBurst              int            `json:"rate_limit_burst"`
	TrustedProxies              []string       `json:"trusted_proxies"`
	SMTPHost                    string         `json:"smtp_host"`
	SMTPPort                    string         `json:"smtp_port"`
	SMTPUser                    string         `json:"smtp_user"`
	SMTPPassword                string         `json:"smtp_password"`
	SMTPFrom                    string         `json:"smtp_from"`
	SMTPSecurity                string         `json:"smtp_security"`
	PaymentTmnCode              string         `json:"payment_tmn_code"`
	PaymentHashSecret           string         `json:"payment_hash_secret"`
	PaymentURL                  string         `json:"payment_url"`
	PaymentReturnURL            string         `json:"payment_return_url"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
}

// parseJson overlays values from the file named by -c/-config. Fields
// missing from the file keep their current value. Unreadable or invalid
// files panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(jsonc.ToJSON(file), c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	}
	setString(&config.PolicyFile, c.PolicyFile)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.CORSAllowedOrigin, c.CORSAllowedOrigin)
	if c.RateLimitRPS != 0 {
		config.RateLimitRPS = c.RateLimitRPS
	}
	if c.RateLimitBurst != 0 {
		config.RateLimitBurst = c.RateLimitBurst
	}
	if len(c.TrustedProxies) > 0 {
		config.TrustedProxies = c.TrustedProxies
	}
	setString(&config.SMTPHost, c.SMTPHost)
	setString(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SMTPFrom, c.SMTPFrom)
	setString(&config.SMTPSecurity, c.SMTPSecurity)
	setString(&config.PaymentTmnCode, c.PaymentTmnCode)
	setString(&config.PaymentHashSecret, c.PaymentHashSecret)
	setString(&config.PaymentURL, c.PaymentURL)
	setString(&config.PaymentReturnURL, c.PaymentReturnURL)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
