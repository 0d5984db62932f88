package marketdata

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func init() {
	RegisterProvider("fake", func(name string, cfg *ProviderConfig) (Provider, error) {
		return nil, nil
	})
}

const sampleConfig = `
default: primary
providers:
  primary:
    type: fake
    base_url: https://api.example.com/marketdata/v1
    timeout: 12s
    max_retries: 4
  backup:
    type: fake
`

func TestLoadConfigFromReader(t *testing.T) {
	cfg, err := LoadConfigFromReader(strings.NewReader(sampleConfig))
	require.NoError(t, err)
	require.Equal(t, "primary", cfg.Default)
	require.Len(t, cfg.Providers, 2)
	require.Equal(t, 12*time.Second, cfg.Providers["primary"].Timeout)
	require.Equal(t, 4, cfg.Providers["primary"].MaxRetries)
}

func TestConfigRejectsUnknownType(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader(`
providers:
  broken:
    type: not-registered
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported type")
}

func TestConfigRejectsMissingDefault(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader(`
default: nope
providers:
  primary:
    type: fake
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "default provider")
}

func TestConfigRejectsEmptyProviders(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader(`providers: {}`))
	require.Error(t, err)
}

func TestConfigRejectsBadTimeout(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader(`
providers:
  primary:
    type: fake
    timeout: banana
`))
	require.Error(t, err)
}

func TestConfigExpandsEnv(t *testing.T) {
	t.Setenv("TA_TEST_BASE", "https://env.example.com")
	cfg, err := LoadConfigFromReader(strings.NewReader(`
providers:
  primary:
    type: fake
    base_url: ${TA_TEST_BASE}
`))
	require.NoError(t, err)
	require.Equal(t, "https://env.example.com", cfg.Providers["primary"].BaseURL)
}
