package config

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":3001", c.HTTPAddr)
	assert.Equal(t, "", c.DatabaseDSN)
	assert.Equal(t, "dev-only-secret", c.SecretKey)
	assert.Equal(t, 1*time.Hour, c.AccessTokenValidityDuration)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, 5.0, c.RateLimitRPS)
	assert.Equal(t, 10, c.RateLimitBurst)
	assert.Equal(t, "us-east-1", c.S3Region)
	assert.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	var c Config
	c.LoadDefaults()
	c.SecretKey = ""
	c.AccessTokenValidityDuration = 0
	c.RateLimitBurst = -1

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret key is empty")
	assert.Contains(t, err.Error(), "access token validity must be positive")
	assert.Contains(t, err.Error(), "rate limit must not be negative")
}

func TestTrustedProxyPrefixes(t *testing.T) {
	var c Config
	c.LoadDefaults()

	prefixes, err := c.TrustedProxyPrefixes()
	require.NoError(t, err)
	assert.Empty(t, prefixes)

	c.TrustedProxies = []string{"10.0.0.0/8", " 192.168.1.7 ", "", "2001:db8::/32", "10.1.2.3/16"}
	prefixes, err = c.TrustedProxyPrefixes()
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.168.1.7/32"),
		netip.MustParsePrefix("2001:db8::/32"),
		netip.MustParsePrefix("10.1.0.0/16"),
	}, prefixes)
	assert.NoError(t, c.Validate())

	c.TrustedProxies = []string{"not-an-ip"}
	err = c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `trusted proxy "not-an-ip"`)
}

func TestLoadConfig_LayerPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"http_addr": ":7000",
		"secret_key": "from-json",
		"policy_file": "json.yaml"
	}`), 0o600))

	t.Setenv("STOREFRONT_SECRET_KEY", "from-env")
	t.Setenv("STOREFRONT_POLICY_FILE", "env.yaml")
	os.Args = []string{"server", "-c", path, "-P", "flag.yaml"}

	c := LoadConfig()
	require.NotNil(t, c)

	assert.Equal(t, ":7000", c.HTTPAddr, "json over defaults")
	assert.Equal(t, "from-env", c.SecretKey, "env over json")
	assert.Equal(t, "flag.yaml", c.PolicyFile, "flags over env")
	assert.Equal(t, 1*time.Hour, c.AccessTokenValidityDuration, "untouched default")
}

func TestReload_ReturnsErrors(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"server", "-c", filepath.Join(t.TempDir(), "missing.json")}
	_, err := Reload()
	assert.ErrorContains(t, err, "config reload")

	os.Args = []string{"server", "-s", ""}
	t.Setenv("STOREFRONT_SECRET_KEY", "")
	_, err = Reload()
	assert.ErrorContains(t, err, "secret key is empty")

	os.Args = []string{"server", "-s", "rotated"}
	c, err := Reload()
	require.NoError(t, err)
	assert.Equal(t, "rotated", c.SecretKey)
}
