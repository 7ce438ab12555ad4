// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// PairingEntry configures one deposit currency the engine accepts.
type PairingEntry struct {
	Address             string `mapstructure:"address"`
	MintCost            string `mapstructure:"mint_cost"`
	GraduationThreshold string `mapstructure:"graduation_threshold"`
	Enabled             bool   `mapstructure:"enabled"`
}

// FeeReduction configures the governance-holder discount curve.
type FeeReduction struct {
	GovernanceAddress string `mapstructure:"governance_address"`
	MinThreshold      string `mapstructure:"min_threshold"`
	MaxThreshold      string `mapstructure:"max_threshold"`
	MinMultiplierBps  uint64 `mapstructure:"min_multiplier_bps"`
	MaxMultiplierBps  uint64 `mapstructure:"max_multiplier_bps"`
}

type Config struct {
	OwnerAddress          string         `mapstructure:"owner_address"`
	PostgresURL           string         `mapstructure:"postgres_url"`
	MetricsAddr           string         `mapstructure:"metrics_addr"`
	EventBufferSize       int            `mapstructure:"event_buffer_size"`
	BlockIntervalMS       int            `mapstructure:"block_interval_ms"`
	ActivationDelayBlocks uint64         `mapstructure:"activation_delay_blocks"`
	VirtualPairingReserve string         `mapstructure:"virtual_pairing_reserve"`
	TradingFeeBps         uint64         `mapstructure:"trading_fee_bps"`
	CreatorShareBps       uint64         `mapstructure:"creator_share_bps"`
	FeeReduction          FeeReduction   `mapstructure:"fee_reduction"`
	Pairings              []PairingEntry `mapstructure:"pairings"`
	AgentAllowlist        []string       `mapstructure:"agent_allowlist"`
	DebugLogging          bool           `mapstructure:"debug_logging"`
	LogFile               string         `mapstructure:"log_file"`
}

const (
	DefaultEventBufferSize = 256
	DefaultBlockIntervalMS = 1000
	DefaultActivationDelay = 100
	DefaultTradingFeeBps   = 100
	DefaultCreatorShareBps = 5000
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"event_buffer_size":       DefaultEventBufferSize,
		"block_interval_ms":       DefaultBlockIntervalMS,
		"activation_delay_blocks": DefaultActivationDelay,
		"trading_fee_bps":         DefaultTradingFeeBps,
		"creator_share_bps":       DefaultCreatorShareBps,
		"log_file":                "launchpadd.log",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvironmentVariables(v, &cfg)

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if !common.IsHexAddress(cfg.OwnerAddress) {
		return errors.New("invalid owner_address")
	}
	if cfg.EventBufferSize <= 0 {
		return errors.New("invalid event_buffer_size")
	}
	if cfg.BlockIntervalMS <= 0 {
		return errors.New("invalid block_interval_ms")
	}
	if cfg.ActivationDelayBlocks == 0 {
		return errors.New("invalid activation_delay_blocks")
	}
	if cfg.TradingFeeBps > 1000 {
		return errors.New("trading_fee_bps exceeds 1000")
	}
	if cfg.CreatorShareBps > 10000 {
		return errors.New("creator_share_bps exceeds 10000")
	}
	if len(cfg.Pairings) == 0 {
		return errors.New("pairings is empty")
	}
	for i, p := range cfg.Pairings {
		if !common.IsHexAddress(p.Address) {
			return fmt.Errorf("pairings[%d]: invalid address", i)
		}
		if _, err := ParseAmount(p.GraduationThreshold); err != nil {
			return fmt.Errorf("pairings[%d]: invalid graduation_threshold", i)
		}
		if p.MintCost != "" {
			if _, err := ParseAmount(p.MintCost); err != nil {
				return fmt.Errorf("pairings[%d]: invalid mint_cost", i)
			}
		}
	}
	for i, a := range cfg.AgentAllowlist {
		if !common.IsHexAddress(a) {
			return fmt.Errorf("agent_allowlist[%d]: invalid address", i)
		}
	}
	if cfg.FeeReduction.MinThreshold != "" || cfg.FeeReduction.MaxThreshold != "" {
		if !common.IsHexAddress(cfg.FeeReduction.GovernanceAddress) {
			return errors.New("fee_reduction: invalid governance_address")
		}
		minT, err := ParseAmount(cfg.FeeReduction.MinThreshold)
		if err != nil {
			return errors.New("fee_reduction: invalid min_threshold")
		}
		maxT, err := ParseAmount(cfg.FeeReduction.MaxThreshold)
		if err != nil {
			return errors.New("fee_reduction: invalid max_threshold")
		}
		if minT.Cmp(maxT) >= 0 {
			return errors.New("fee_reduction: min_threshold must be below max_threshold")
		}
		if cfg.FeeReduction.MinMultiplierBps > 10000 ||
			cfg.FeeReduction.MaxMultiplierBps > cfg.FeeReduction.MinMultiplierBps {
			return errors.New("fee_reduction: invalid multipliers")
		}
	}
	return nil
}

// ParseAmount parses a decimal base-unit amount.
func ParseAmount(s string) (*big.Int, error) {
	if s == "" {
		return nil, errors.New("empty amount")
	}
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return amount, nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) {
	v.AutomaticEnv()
	v.SetEnvPrefix("LAUNCHPAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if envURL := v.GetString("POSTGRES_URL"); envURL != "" {
		cfg.PostgresURL = envURL
	}
	if envOwner := v.GetString("OWNER_ADDRESS"); envOwner != "" {
		cfg.OwnerAddress = envOwner
	}
}
