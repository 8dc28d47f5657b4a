package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Matcher MatcherConfig `yaml:"matcher" mapstructure:"matcher"`
	Trend   TrendConfig   `yaml:"trend" mapstructure:"trend"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the history store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite | postgres
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SourceFormat describes how one source encodes prices and ratings, plus
// how its adapter is reached.
type SourceFormat struct {
	Currency          string  `yaml:"currency" mapstructure:"currency"`
	DecimalSeparator  string  `yaml:"decimal_separator" mapstructure:"decimal_separator"`
	ThousandSeparator string  `yaml:"thousand_separator" mapstructure:"thousand_separator"`
	RatingScale       float64 `yaml:"rating_scale" mapstructure:"rating_scale"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec        float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	FixturePath       string  `yaml:"fixture_path" mapstructure:"fixture_path"`
}

// SourcesConfig configures the adapter fan-out and per-source parsing.
type SourcesConfig struct {
	// Formats maps source identifier to its price/rating format table.
	Formats map[string]SourceFormat `yaml:"formats" mapstructure:"formats"`
	// Rates maps a source currency to its reference-currency multiplier.
	Rates map[string]float64 `yaml:"rates" mapstructure:"rates"`
	// ReferenceCurrency is the currency all prices normalize into.
	ReferenceCurrency string `yaml:"reference_currency" mapstructure:"reference_currency"`
	// TimeoutSecs bounds each adapter call; a slower source counts as
	// returning zero listings for the query.
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	// SynonymsPath optionally points at a YAML attribute synonym table
	// merged over the built-in defaults.
	SynonymsPath string `yaml:"synonyms_path" mapstructure:"synonyms_path"`
}

// Timeout returns the per-adapter timeout as a duration.
func (s SourcesConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// MatcherConfig holds the cross-source matching tunables.
type MatcherConfig struct {
	// SimilarityThreshold is the Jaccard token-set similarity above which
	// two titles are considered the same item.
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	// PriceBandWidth is the relative width of one price band (0.10 = 10%).
	PriceBandWidth float64 `yaml:"price_band_width" mapstructure:"price_band_width"`
}

// TrendConfig configures trend analytics defaults.
type TrendConfig struct {
	HistogramBuckets  int     `yaml:"histogram_buckets" mapstructure:"histogram_buckets"`
	DropThresholdPct  float64 `yaml:"drop_threshold_pct" mapstructure:"drop_threshold_pct"`
	TopQueriesDefault int     `yaml:"top_queries_default" mapstructure:"top_queries_default"`
}

// ServerConfig configures the JSON API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PRICELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "pricelens.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("sources.reference_currency", "USD")
	v.SetDefault("sources.timeout_secs", 10)
	v.SetDefault("sources.rates", map[string]float64{
		"USD": 1.0,
		"INR": 0.012,
		"EUR": 1.08,
		"GBP": 1.27,
	})
	v.SetDefault("sources.formats", defaultFormats())
	v.SetDefault("matcher.similarity_threshold", 0.6)
	v.SetDefault("matcher.price_band_width", 0.10)
	v.SetDefault("trend.histogram_buckets", 10)
	v.SetDefault("trend.drop_threshold_pct", 5.0)
	v.SetDefault("trend.top_queries_default", 5)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// defaultFormats lists the known marketplace price/rating formats.
func defaultFormats() map[string]map[string]any {
	return map[string]map[string]any{
		"amazon": {
			"currency":           "INR",
			"decimal_separator":  ".",
			"thousand_separator": ",",
			"rating_scale":       5.0,
		},
		"flipkart": {
			"currency":           "INR",
			"decimal_separator":  ".",
			"thousand_separator": ",",
			"rating_scale":       5.0,
		},
		"myntra": {
			"currency":           "INR",
			"decimal_separator":  ".",
			"thousand_separator": ",",
			"rating_scale":       5.0,
		},
		"snapdeal": {
			"currency":           "INR",
			"decimal_separator":  ".",
			"thousand_separator": ",",
			"rating_scale":       10.0,
		},
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
