// Package config loads the JSON-tagged configuration tree for one
// backtest run, with environment-variable overrides layered on top.
//
// Grounded on the teacher's config/config.go: same load-from-file +
// env-override shape (trimmed to this spec's domain), same
// getEnvOrDefault/getEnvIntOrDefault helpers.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config is the full configuration tree for one backtest run.
type Config struct {
	Backtest BacktestConfig `json:"backtest"`
	Logging  LoggingConfig  `json:"logging"`
}

// BacktestConfig holds the run inputs enumerated in spec.md §6.5.
type BacktestConfig struct {
	Symbol             string  `json:"symbol"`
	BaseTimeframe      string  `json:"base_timeframe"`       // e.g. "M1"
	StartMoney         string  `json:"start_money"`          // decimal string
	Since              string  `json:"since"`                // RFC3339
	Until              string  `json:"until"`                // RFC3339
	MakerFee           string  `json:"maker_fee"`             // decimal in [0,1)
	TakerFee           string  `json:"taker_fee"`             // decimal in [0,1)
	PrefetchOption     string  `json:"prefetch_option"`       // PREFETCH_UNTIL (default), PREFETCH_SINCE, PREFETCH_NONE
	MinFiatPrecision   int32   `json:"min_fiat_precision"`
	MinCryptoPrecision int32   `json:"min_crypto_precision"`
	ProfitLossAlgorithm string `json:"profit_loss_algorithm"` // FIFO (default), LIFO, AVCO
}

// LoggingConfig configures the zerolog sink, matching the teacher's
// LoggingConfig field-for-field.
type LoggingConfig struct {
	Level       string `json:"level"`        // DEBUG, INFO, WARN, ERROR
	Output      string `json:"output"`       // stdout, stderr, or file path
	JSONFormat  bool   `json:"json_format"`  // Output as JSON
	IncludeFile bool   `json:"include_file"` // Include file and line number
}

// Load reads config.json if present, then layers environment variable
// overrides on top, mirroring the teacher's Load().
func Load() (*Config, error) {
	cfg, err := loadFromFile("config.json")
	if err != nil {
		cfg = defaultConfig()
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Backtest: BacktestConfig{
			BaseTimeframe:       "M1",
			StartMoney:          "10000",
			MakerFee:            "0.001",
			TakerFee:            "0.001",
			PrefetchOption:      "PREFETCH_UNTIL",
			MinFiatPrecision:    2,
			MinCryptoPrecision:  8,
			ProfitLossAlgorithm: "FIFO",
		},
		Logging: LoggingConfig{
			Level:      "INFO",
			Output:     "stdout",
			JSONFormat: true,
		},
	}
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	cfg := defaultConfig()
	if err := json.Unmarshal(file, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Backtest.Symbol = getEnvOrDefault("BACKTEST_SYMBOL", cfg.Backtest.Symbol)
	cfg.Backtest.BaseTimeframe = getEnvOrDefault("BACKTEST_BASE_TIMEFRAME", cfg.Backtest.BaseTimeframe)
	cfg.Backtest.StartMoney = getEnvOrDefault("BACKTEST_START_MONEY", cfg.Backtest.StartMoney)
	cfg.Backtest.Since = getEnvOrDefault("BACKTEST_SINCE", cfg.Backtest.Since)
	cfg.Backtest.Until = getEnvOrDefault("BACKTEST_UNTIL", cfg.Backtest.Until)
	cfg.Backtest.MakerFee = getEnvOrDefault("BACKTEST_MAKER_FEE", cfg.Backtest.MakerFee)
	cfg.Backtest.TakerFee = getEnvOrDefault("BACKTEST_TAKER_FEE", cfg.Backtest.TakerFee)
	cfg.Backtest.PrefetchOption = getEnvOrDefault("BACKTEST_PREFETCH_OPTION", cfg.Backtest.PrefetchOption)
	cfg.Backtest.ProfitLossAlgorithm = getEnvOrDefault("BACKTEST_PNL_ALGORITHM", cfg.Backtest.ProfitLossAlgorithm)
	cfg.Backtest.MinFiatPrecision = int32(getEnvIntOrDefault("BACKTEST_MIN_FIAT_PRECISION", int(cfg.Backtest.MinFiatPrecision)))
	cfg.Backtest.MinCryptoPrecision = int32(getEnvIntOrDefault("BACKTEST_MIN_CRYPTO_PRECISION", int(cfg.Backtest.MinCryptoPrecision)))

	cfg.Logging.Level = getEnvOrDefault("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Output = getEnvOrDefault("LOG_OUTPUT", cfg.Logging.Output)
	cfg.Logging.JSONFormat = getEnvOrDefault("LOG_JSON", boolString(cfg.Logging.JSONFormat)) == "true"
	cfg.Logging.IncludeFile = getEnvOrDefault("LOG_INCLUDE_FILE", boolString(cfg.Logging.IncludeFile)) == "true"
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// Validate checks the enumerated invariants from spec.md §6.5/§7:
// fees in [0,1), since < until, a recognized prefetch option.
func (c *Config) Validate() error {
	since, err := time.Parse(time.RFC3339, c.Backtest.Since)
	if err != nil {
		return fmt.Errorf("config: invalid since: %w", err)
	}
	until, err := time.Parse(time.RFC3339, c.Backtest.Until)
	if err != nil {
		return fmt.Errorf("config: invalid until: %w", err)
	}
	if !until.After(since) {
		return fmt.Errorf("config: until (%s) must be after since (%s)", until, since)
	}
	if err := validateFeeString("maker_fee", c.Backtest.MakerFee); err != nil {
		return err
	}
	if err := validateFeeString("taker_fee", c.Backtest.TakerFee); err != nil {
		return err
	}
	switch c.Backtest.PrefetchOption {
	case "PREFETCH_UNTIL", "PREFETCH_SINCE", "PREFETCH_NONE":
	default:
		return fmt.Errorf("config: unrecognized prefetch_option %q", c.Backtest.PrefetchOption)
	}
	switch c.Backtest.ProfitLossAlgorithm {
	case "FIFO", "LIFO", "AVCO":
	default:
		return fmt.Errorf("config: unrecognized profit_loss_algorithm %q", c.Backtest.ProfitLossAlgorithm)
	}
	return nil
}

func validateFeeString(field, value string) error {
	fee, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Errorf("config: invalid %s %q: %w", field, value, err)
	}
	if fee.IsNegative() || fee.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("config: %s must be in [0,1), got %s", field, fee)
	}
	return nil
}

// SinceTime parses Backtest.Since as RFC3339; callers invoke Validate first.
func (c *Config) SinceTime() (time.Time, error) {
	return time.Parse(time.RFC3339, c.Backtest.Since)
}

// UntilTime parses Backtest.Until as RFC3339.
func (c *Config) UntilTime() (time.Time, error) {
	return time.Parse(time.RFC3339, c.Backtest.Until)
}

// StartMoneyDecimal parses Backtest.StartMoney.
func (c *Config) StartMoneyDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(c.Backtest.StartMoney)
}

// MakerFeeDecimal parses Backtest.MakerFee.
func (c *Config) MakerFeeDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(c.Backtest.MakerFee)
}

// TakerFeeDecimal parses Backtest.TakerFee.
func (c *Config) TakerFeeDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(c.Backtest.TakerFee)
}

// GenerateSampleConfig writes a runnable sample config.json, mirroring
// the teacher's GenerateSampleConfig.
func GenerateSampleConfig(filename string) error {
	cfg := defaultConfig()
	cfg.Backtest.Symbol = "BTCUSDT"
	cfg.Backtest.Since = time.Now().AddDate(0, -1, 0).UTC().Format(time.RFC3339)
	cfg.Backtest.Until = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}
