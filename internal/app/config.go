package app

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// MarketConfig holds the per-market conversion policy. TargetCurrency is
// what volumes get re-expressed in (USD, or the market's native stablecoin);
// BridgeCurrencies is the ordered trial list for two-hop conversions.
type MarketConfig struct {
	TargetCurrency   string   `mapstructure:"targetCurrency"`
	BridgeCurrencies []string `mapstructure:"bridgeCurrencies"`
}

type Config struct {
	InputRoot       string                  `mapstructure:"inputRoot"`
	OutputRoot      string                  `mapstructure:"outputRoot"`
	ReferenceSource string                  `mapstructure:"referenceSource"`
	ReadWorkers     int                     `mapstructure:"readWorkers"`
	ResolveWorkers  int                     `mapstructure:"resolveWorkers"`
	SmartRounding   bool                    `mapstructure:"smartRounding"`
	Markets         map[string]MarketConfig `mapstructure:"markets"`
}

// defaultBridgeCurrencies is the trial order when a market configures none:
// the dominant stablecoin first, then BTC, then the remaining majors. Order
// matters - the resolver takes the first bridge that completes a path.
var defaultBridgeCurrencies = []string{"USDT", "BTC", "USDC", "BUSD", "TUSD", "DAI"}

// Market returns the market's config, falling back to USD conversion over
// the default bridge list for markets the config file does not mention.
func (c *Config) Market(name string) MarketConfig {
	mc, ok := c.Markets[strings.ToLower(name)]
	if !ok {
		mc = MarketConfig{}
	}
	if mc.TargetCurrency == "" {
		mc.TargetCurrency = "USD"
	}
	if len(mc.BridgeCurrencies) == 0 {
		mc.BridgeCurrencies = defaultBridgeCurrencies
	}
	mc.TargetCurrency = strings.ToUpper(mc.TargetCurrency)
	for i, b := range mc.BridgeCurrencies {
		mc.BridgeCurrencies[i] = strings.ToUpper(b)
	}
	return mc
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetDefault("inputRoot", "data/crypto")
	v.SetDefault("outputRoot", "data/crypto")
	v.SetDefault("referenceSource", "data/symbol-properties.csv")
	v.SetDefault("readWorkers", 8)
	v.SetDefault("resolveWorkers", 4)
	v.SetDefault("smartRounding", true)

	if err := v.ReadInConfig(); err != nil {
		// a missing config file is fine - defaults plus flags cover it
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}
