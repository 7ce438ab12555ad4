// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const validConfig = `{
	"owner_address": "0x1111111111111111111111111111111111111111",
	"pairings": [
		{
			"address": "0x2222222222222222222222222222222222222222",
			"mint_cost": "1000000000000000000",
			"graduation_threshold": "50000000000000000000",
			"enabled": true
		}
	],
	"fee_reduction": {
		"governance_address": "0x3333333333333333333333333333333333333333",
		"min_threshold": "100000000000000000000",
		"max_threshold": "1000000000000000000000",
		"min_multiplier_bps": 10000,
		"max_multiplier_bps": 2000
	},
	"agent_allowlist": ["0x4444444444444444444444444444444444444444"]
}`

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "0x1111111111111111111111111111111111111111", cfg.OwnerAddress)
	assert.Len(t, cfg.Pairings, 1)
	assert.True(t, cfg.Pairings[0].Enabled)
	assert.Equal(t, uint64(2000), cfg.FeeReduction.MaxMultiplierBps)

	// Defaults fill the unspecified fields.
	assert.Equal(t, DefaultEventBufferSize, cfg.EventBufferSize)
	assert.Equal(t, uint64(DefaultActivationDelay), cfg.ActivationDelayBlocks)
	assert.Equal(t, uint64(DefaultTradingFeeBps), cfg.TradingFeeBps)
	assert.Equal(t, "launchpadd.log", cfg.LogFile)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "bad owner address",
			body: `{"owner_address": "not-an-address", "pairings": [{"address": "0x2222222222222222222222222222222222222222", "graduation_threshold": "1", "enabled": true}]}`,
		},
		{
			name: "no pairings",
			body: `{"owner_address": "0x1111111111111111111111111111111111111111", "pairings": []}`,
		},
		{
			name: "bad pairing threshold",
			body: `{"owner_address": "0x1111111111111111111111111111111111111111", "pairings": [{"address": "0x2222222222222222222222222222222222222222", "graduation_threshold": "not-a-number", "enabled": true}]}`,
		},
		{
			name: "excessive trading fee",
			body: `{"owner_address": "0x1111111111111111111111111111111111111111", "trading_fee_bps": 1500, "pairings": [{"address": "0x2222222222222222222222222222222222222222", "graduation_threshold": "1", "enabled": true}]}`,
		},
		{
			name: "inverted discount thresholds",
			body: `{"owner_address": "0x1111111111111111111111111111111111111111", "pairings": [{"address": "0x2222222222222222222222222222222222222222", "graduation_threshold": "1", "enabled": true}], "fee_reduction": {"governance_address": "0x3333333333333333333333333333333333333333", "min_threshold": "10", "max_threshold": "5"}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount("123456789012345678901234567890")
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678901234567890", amount.String())

	_, err = ParseAmount("")
	assert.Error(t, err)
	_, err = ParseAmount("-5")
	assert.Error(t, err)
	_, err = ParseAmount("0x10")
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("LAUNCHPAD_POSTGRES_URL", "postgres://env-host/launchpad")

	cfg, err := LoadConfig(writeConfig(t, validConfig))
	require.NoError(t, err)
	assert.Equal(t, "postgres://env-host/launchpad", cfg.PostgresURL)
}
