// Package config builds the processor configuration from viper state:
// built-in defaults overlaid with config-file values and environment
// variables. A malformed overlay falls back to defaults with a warning
// rather than aborting the run.
package config

import (
	"statement-extraction-service/internal/models"
	"statement-extraction-service/internal/process"
	"statement-extraction-service/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// CreateProcessorConfig assembles the full stage configuration
func CreateProcessorConfig() (*process.Config, error) {
	cfg := process.DefaultConfig()

	applyOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		logger.GetGlobalLogger().WithComponent("config").WithError(err).
			Warn("Configuration overrides are invalid; falling back to defaults")
		return process.DefaultConfig(), nil
	}
	return cfg, nil
}

// applyOverrides copies recognized viper keys onto the default stage
// configurations. Thresholds shared between the quality pipeline and the
// validation rules stay in sync.
func applyOverrides(cfg *process.Config) {
	if v := viper.GetInt("min-narrative-length"); v > 0 {
		cfg.Engine.MinNarrativeLength = v
	}
	if v := viper.GetFloat64("min-amount"); v > 0 {
		amount := decimal.NewFromFloat(v)
		cfg.Quality.MinAmount = amount
		cfg.Rules.MinAmount = amount
	}
	if v := viper.GetFloat64("max-amount"); v > 0 {
		amount := decimal.NewFromFloat(v)
		cfg.Quality.MaxAmount = amount
		cfg.Rules.MaxAmount = amount
	}
	if v := viper.GetStringSlice("date-formats"); len(v) > 0 {
		cfg.Engine.DateFormats = v
	}
	if v := viper.GetStringSlice("transaction-patterns"); len(v) > 0 {
		cfg.Engine.TransactionPatterns = v
	}
	if viper.IsSet("currencies") {
		var currencies []models.Currency
		if err := viper.UnmarshalKey("currencies", &currencies); err != nil {
			logger.GetGlobalLogger().WithComponent("config").WithError(err).
				Warn("Ignoring malformed currencies override")
		} else if len(currencies) > 0 {
			cfg.Engine.Currencies = currencies
		}
	}
	if v := viper.GetStringSlice("suspicious-patterns"); len(v) > 0 {
		cfg.Rules.SuspiciousPatterns = v
	}
	if v := viper.GetInt("max-daily-transactions"); v > 0 {
		cfg.Rules.MaxDailyTransactions = v
	}
	if v := viper.GetStringSlice("required-fields"); len(v) > 0 {
		cfg.Rules.RequiredFields = v
	}
	if v := viper.GetInt("date-range.min-year"); v > 0 {
		cfg.Rules.DateRange.MinYear = v
	}
	if v := viper.GetInt("date-range.max-year"); v > 0 {
		cfg.Rules.DateRange.MaxYear = v
	}
}
