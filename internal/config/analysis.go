package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Aggregation modes for the monthly summary.
const (
	ModeWeighted   = "weighted"
	ModeUnweighted = "unweighted"
)

// AnalysisConfig holds the tunables of the consumption analysis.
type AnalysisConfig struct {
	// AggregationMode selects the monthly rate: "weighted"
	// (sum volume / sum hours) or "unweighted" (mean of interval rates).
	AggregationMode string `mapstructure:"aggregationMode"`
	// AlertThresholdPct is the absolute percent deviation from the
	// historical baseline beyond which an equipment-month is flagged.
	AlertThresholdPct float64 `mapstructure:"alertThresholdPct"`
	// ZoneSentinel labels equipment missing from the classification table.
	ZoneSentinel string `mapstructure:"zoneSentinel"`
	// ActivityTopN bounds both activity rankings (most consuming, most
	// efficient).
	ActivityTopN int `mapstructure:"activityTopN"`
}

func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		AggregationMode:   ModeWeighted,
		AlertThresholdPct: 10,
		ZoneSentinel:      "UNCLASSIFIED",
		ActivityTopN:      5,
	}
}

// AnalysisConfigHolder serves the current analysis config and hot-reloads
// it when the file changes.
type AnalysisConfigHolder struct {
	current atomic.Value // holds AnalysisConfig
}

func NewAnalysisConfigHolder() (*AnalysisConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("analysis")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/fuelrate")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FUELRATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultAnalysisConfig()
		v.SetDefault("analysis.aggregationMode", defaults.AggregationMode)
		v.SetDefault("analysis.alertThresholdPct", defaults.AlertThresholdPct)
		v.SetDefault("analysis.zoneSentinel", defaults.ZoneSentinel)
		v.SetDefault("analysis.activityTopN", defaults.ActivityTopN)
	}

	var cfg AnalysisConfig
	if err := v.UnmarshalKey("analysis", &cfg); err != nil {
		return nil, err
	}
	if err := validateAnalysisConfig(cfg); err != nil {
		return nil, err
	}

	holder := &AnalysisConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated AnalysisConfig
		if err := v.UnmarshalKey("analysis", &updated); err != nil {
			log.Printf("[analysis-config] reload failed: %v", err)
			return
		}
		if err := validateAnalysisConfig(updated); err != nil {
			log.Printf("[analysis-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[analysis-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticAnalysisConfigHolder serves a fixed config without file
// watching; tests use it.
func NewStaticAnalysisConfigHolder(cfg AnalysisConfig) *AnalysisConfigHolder {
	holder := &AnalysisConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *AnalysisConfigHolder) Get() AnalysisConfig {
	return h.current.Load().(AnalysisConfig)
}

func validateAnalysisConfig(cfg AnalysisConfig) error {
	switch cfg.AggregationMode {
	case ModeWeighted, ModeUnweighted:
	default:
		return errors.New("analysis.aggregationMode must be weighted or unweighted")
	}
	if cfg.AlertThresholdPct <= 0 {
		return errors.New("analysis.alertThresholdPct must be positive")
	}
	if cfg.ZoneSentinel == "" {
		return errors.New("analysis.zoneSentinel cannot be empty")
	}
	if cfg.ActivityTopN <= 0 {
		return errors.New("analysis.activityTopN must be positive")
	}
	return nil
}
