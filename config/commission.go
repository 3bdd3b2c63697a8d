package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"bazaar/internal/domain"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// TierBand maps a cumulative purchase threshold to a discount percentage.
// Bands are ordered by threshold; the resolver picks the highest threshold
// not exceeding the buyer's total.
type TierBand struct {
	Threshold decimal.Decimal `json:"threshold"`
	Percent   decimal.Decimal `json:"percent"`
}

// CommissionConfig is the injected, versioned schedule used by the commission
// calculator and the discount tier resolver. It is never read from globals:
// services hold the Holder and snapshot a config per call.
type CommissionConfig struct {
	Version           int               `json:"version"`
	GatewayFeePercent decimal.Decimal   `json:"gateway_fee_percent"`
	LevelRates        []decimal.Decimal `json:"level_rates"` // level 1 first, at most 8
	DiscountTiers     []TierBand        `json:"discount_tiers"`
	UnlockThreshold   decimal.Decimal   `json:"unlock_threshold"`
}

func DefaultCommissionConfig() CommissionConfig {
	return CommissionConfig{
		Version:           1,
		GatewayFeePercent: decimal.NewFromInt(3),
		LevelRates: []decimal.Decimal{
			decimal.NewFromInt(10),
			decimal.NewFromInt(5),
			decimal.NewFromInt(2),
		},
		DiscountTiers: []TierBand{
			{Threshold: decimal.NewFromInt(1000), Percent: decimal.NewFromInt(15)},
			{Threshold: decimal.NewFromInt(2500), Percent: decimal.NewFromInt(20)},
			{Threshold: decimal.NewFromInt(5000), Percent: decimal.NewFromInt(25)},
			{Threshold: decimal.NewFromInt(10000), Percent: decimal.NewFromInt(30)},
		},
		UnlockThreshold: decimal.NewFromInt(5000),
	}
}

var (
	ErrTooManyLevels   = errors.New("at most 8 commission levels may be configured")
	ErrNegativeRate    = errors.New("commission rates must be non-negative")
	ErrInvalidFee      = errors.New("gateway fee percent must be between 0 and 100")
	ErrUnorderedTiers  = errors.New("discount tiers must have strictly increasing thresholds")
)

func ValidateCommissionConfig(cfg CommissionConfig) error {
	if len(cfg.LevelRates) > domain.MaxReferralDepth {
		return ErrTooManyLevels
	}
	for _, r := range cfg.LevelRates {
		if r.IsNegative() {
			return ErrNegativeRate
		}
	}
	if cfg.GatewayFeePercent.IsNegative() || cfg.GatewayFeePercent.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidFee
	}
	for i := 1; i < len(cfg.DiscountTiers); i++ {
		if !cfg.DiscountTiers[i].Threshold.GreaterThan(cfg.DiscountTiers[i-1].Threshold) {
			return ErrUnorderedTiers
		}
	}
	return nil
}

// CommissionConfigHolder swaps whole configs atomically so in-flight requests
// keep the snapshot they started with.
type CommissionConfigHolder struct {
	current atomic.Value // holds CommissionConfig
}

// NewCommissionConfigHolder loads commission.yml (if present) over the
// defaults and watches the file for changes.
func NewCommissionConfigHolder(log *zap.Logger) (*CommissionConfigHolder, error) {
	v := viper.New()
	v.SetConfigName("commission")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/bazaar")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BAZAAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	cfg := DefaultCommissionConfig()
	if fileFound {
		parsed, err := commissionConfigFromViper(v)
		if err != nil {
			return nil, err
		}
		cfg = parsed
	}
	if err := ValidateCommissionConfig(cfg); err != nil {
		return nil, err
	}

	holder := &CommissionConfigHolder{}
	holder.current.Store(cfg)

	if fileFound {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := commissionConfigFromViper(v)
			if err != nil {
				log.Warn("commission config reload failed", zap.Error(err))
				return
			}
			if err := holder.Update(updated); err != nil {
				log.Warn("invalid commission config ignored", zap.Error(err))
				return
			}
			log.Info("commission config reloaded", zap.String("file", e.Name))
		})
	}
	return holder, nil
}

// ApplyStored overlays admin-persisted schedule rows on the current config so
// settings changed through the admin API survive restarts. get is a key
// lookup; a missing key leaves the corresponding field alone.
func (h *CommissionConfigHolder) ApplyStored(get func(key string) (string, error)) error {
	cfg := h.Load()
	changed := false
	if raw, err := get(domain.SettingGatewayFeePercent); err == nil {
		fee, err := decimal.NewFromString(raw)
		if err != nil {
			return err
		}
		cfg.GatewayFeePercent = fee
		changed = true
	}
	if raw, err := get(domain.SettingCommissionRates); err == nil {
		rates, err := parseRateList(raw)
		if err != nil {
			return err
		}
		cfg.LevelRates = rates
		changed = true
	}
	if raw, err := get(domain.SettingDiscountTiers); err == nil {
		tiers, err := parseTierList(raw)
		if err != nil {
			return err
		}
		cfg.DiscountTiers = tiers
		changed = true
	}
	if raw, err := get(domain.SettingUnlockThreshold); err == nil {
		threshold, err := decimal.NewFromString(raw)
		if err != nil {
			return err
		}
		cfg.UnlockThreshold = threshold
		changed = true
	}
	if !changed {
		return nil
	}
	return h.Update(cfg)
}

func parseRateList(raw string) ([]decimal.Decimal, error) {
	parts := strings.Split(raw, ",")
	rates := make([]decimal.Decimal, 0, len(parts))
	for _, s := range parts {
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		rates = append(rates, d)
	}
	return rates, nil
}

func parseTierList(raw string) ([]TierBand, error) {
	parts := strings.Split(raw, ",")
	tiers := make([]TierBand, 0, len(parts))
	for _, s := range parts {
		kv := strings.SplitN(strings.TrimSpace(s), ":", 2)
		if len(kv) != 2 {
			return nil, errors.New("discount tier must be threshold:percent")
		}
		threshold, err := decimal.NewFromString(kv[0])
		if err != nil {
			return nil, err
		}
		percent, err := decimal.NewFromString(kv[1])
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, TierBand{Threshold: threshold, Percent: percent})
	}
	return tiers, nil
}

// NewStaticCommissionConfigHolder wraps a fixed config (used in tests).
func NewStaticCommissionConfigHolder(cfg CommissionConfig) *CommissionConfigHolder {
	holder := &CommissionConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

// Load returns the current config snapshot.
func (h *CommissionConfigHolder) Load() CommissionConfig {
	return h.current.Load().(CommissionConfig)
}

// Update validates and swaps in a new schedule, bumping the version.
func (h *CommissionConfigHolder) Update(cfg CommissionConfig) error {
	if err := ValidateCommissionConfig(cfg); err != nil {
		return err
	}
	cfg.Version = h.Load().Version + 1
	h.current.Store(cfg)
	return nil
}

func commissionConfigFromViper(v *viper.Viper) (CommissionConfig, error) {
	cfg := DefaultCommissionConfig()
	if v.IsSet("commission.gateway_fee_percent") {
		cfg.GatewayFeePercent = decimal.NewFromFloat(v.GetFloat64("commission.gateway_fee_percent"))
	}
	if v.IsSet("commission.level_rates") {
		raw := v.GetStringSlice("commission.level_rates")
		rates := make([]decimal.Decimal, 0, len(raw))
		for _, s := range raw {
			d, err := decimal.NewFromString(strings.TrimSpace(s))
			if err != nil {
				return cfg, err
			}
			rates = append(rates, d)
		}
		cfg.LevelRates = rates
	}
	if v.IsSet("commission.unlock_threshold") {
		cfg.UnlockThreshold = decimal.NewFromFloat(v.GetFloat64("commission.unlock_threshold"))
	}
	if v.IsSet("commission.discount_tiers") {
		raw := v.GetStringSlice("commission.discount_tiers") // "threshold:percent"
		tiers := make([]TierBand, 0, len(raw))
		for _, s := range raw {
			parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
			if len(parts) != 2 {
				return cfg, errors.New("discount tier must be threshold:percent")
			}
			threshold, err := decimal.NewFromString(parts[0])
			if err != nil {
				return cfg, err
			}
			percent, err := decimal.NewFromString(parts[1])
			if err != nil {
				return cfg, err
			}
			tiers = append(tiers, TierBand{Threshold: threshold, Percent: percent})
		}
		cfg.DiscountTiers = tiers
	}
	return cfg, nil
}
