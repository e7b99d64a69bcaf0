package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// CurrencyConfig maps lowercase ISO currency codes to their minor-unit
// exponent (USD -> 2, JPY -> 0, KWD -> 3). Checkout price conversion refuses
// any price with more precision than the exponent allows.
type CurrencyConfig struct {
	DefaultCurrency string         `mapstructure:"defaultCurrency"`
	MinorUnits      map[string]int `mapstructure:"minorUnits"`
}

func DefaultCurrencyConfig() CurrencyConfig {
	return CurrencyConfig{
		DefaultCurrency: "usd",
		MinorUnits: map[string]int{
			"usd": 2,
			"eur": 2,
			"gbp": 2,
			"jpy": 0,
			"kwd": 3,
		},
	}
}

// CurrencyConfigHolder serves the current currency table and hot-reloads it
// when the backing file changes.
type CurrencyConfigHolder struct {
	current atomic.Value // holds CurrencyConfig
}

func NewCurrencyConfigHolder() (*CurrencyConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("currency")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/vendo/config")
	v.AddConfigPath("/etc/vendo")
	v.AddConfigPath(".")

	v.SetEnvPrefix("VENDO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultCurrencyConfig()
		v.SetDefault("currency.defaultCurrency", defaults.DefaultCurrency)
		v.SetDefault("currency.minorUnits", defaults.MinorUnits)
	}

	var cfg CurrencyConfig
	if err := v.UnmarshalKey("currency", &cfg); err != nil {
		return nil, err
	}
	if err := validateCurrencyConfig(cfg); err != nil {
		return nil, err
	}

	holder := &CurrencyConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated CurrencyConfig
		if err := v.UnmarshalKey("currency", &updated); err != nil {
			log.Printf("[currency-config] reload failed: %v", err)
			return
		}
		if err := validateCurrencyConfig(updated); err != nil {
			log.Printf("[currency-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[currency-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticCurrencyConfigHolder builds a holder around a fixed config with no
// file watching.
func NewStaticCurrencyConfigHolder(cfg CurrencyConfig) (*CurrencyConfigHolder, error) {
	if err := validateCurrencyConfig(cfg); err != nil {
		return nil, err
	}
	holder := &CurrencyConfigHolder{}
	holder.current.Store(cfg)
	return holder, nil
}

func (h *CurrencyConfigHolder) Get() CurrencyConfig {
	return h.current.Load().(CurrencyConfig)
}

// MinorUnitExponent returns the exponent for a currency code, or false when
// the currency is not configured.
func (h *CurrencyConfigHolder) MinorUnitExponent(currency string) (int, bool) {
	cfg := h.Get()
	exp, ok := cfg.MinorUnits[strings.ToLower(strings.TrimSpace(currency))]
	return exp, ok
}

func validateCurrencyConfig(cfg CurrencyConfig) error {
	if strings.TrimSpace(cfg.DefaultCurrency) == "" {
		return errors.New("currency.defaultCurrency cannot be empty")
	}
	if len(cfg.MinorUnits) == 0 {
		return errors.New("currency.minorUnits cannot be empty")
	}
	if _, ok := cfg.MinorUnits[strings.ToLower(cfg.DefaultCurrency)]; !ok {
		return errors.New("currency.defaultCurrency has no minorUnits entry")
	}
	for code, exp := range cfg.MinorUnits {
		if exp < 0 || exp > 4 {
			return errors.New("currency.minorUnits." + code + " out of range")
		}
	}
	return nil
}
