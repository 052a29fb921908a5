package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gardenscape/plant-import/internal/cost"
)

// Config holds the full application configuration.
type Config struct {
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Perenual     PerenualConfig     `yaml:"perenual" mapstructure:"perenual"`
	GBIF         CatalogueConfig    `yaml:"gbif" mapstructure:"gbif"`
	INaturalist  CatalogueConfig    `yaml:"inaturalist" mapstructure:"inaturalist"`
	Validator    ValidatorConfig    `yaml:"validator" mapstructure:"validator"`
	Perplexity   PerplexityConfig   `yaml:"perplexity" mapstructure:"perplexity"`
	Anthropic    AnthropicConfig    `yaml:"anthropic" mapstructure:"anthropic"`
	Runware      RunwareConfig      `yaml:"runware" mapstructure:"runware"`
	Images       ImagesConfig       `yaml:"images" mapstructure:"images"`
	Enrich       EnrichConfig       `yaml:"enrich" mapstructure:"enrich"`
	Nomenclature NomenclatureConfig `yaml:"nomenclature" mapstructure:"nomenclature"`
	Pricing      cost.Rates         `yaml:"pricing" mapstructure:"pricing"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// PerenualConfig holds Perenual API settings.
type PerenualConfig struct {
	Key      string  `yaml:"key" mapstructure:"key"`
	BaseURL  string  `yaml:"base_url" mapstructure:"base_url"`
	RPS      float64 `yaml:"rps" mapstructure:"rps"`
	MaxPages int     `yaml:"max_pages" mapstructure:"max_pages"`
	FanOut   int     `yaml:"fan_out" mapstructure:"fan_out"`
}

// CatalogueConfig holds settings for the keyless GBIF and iNaturalist APIs.
type CatalogueConfig struct {
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	RPS     float64 `yaml:"rps" mapstructure:"rps"`
	Rank    string  `yaml:"rank" mapstructure:"rank"`
}

// ValidatorConfig selects the LLM behind the validator stage.
type ValidatorConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Provider string `yaml:"provider" mapstructure:"provider"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// RunwareConfig holds Runware API settings.
type RunwareConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// ImagesConfig configures seasonal image generation.
type ImagesConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	Width       int    `yaml:"width" mapstructure:"width"`
	Height      int    `yaml:"height" mapstructure:"height"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// EnrichConfig configures the enrichment orchestrator.
type EnrichConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// NomenclatureConfig points at an optional rules file overriding the
// embedded table.
type NomenclatureConfig struct {
	RulesPath string `yaml:"rules_path" mapstructure:"rules_path"`
}

// ServerConfig configures the admin HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// envAliases binds config keys to the conventional unprefixed variables.
var envAliases = map[string]string{
	"perenual.key":       "PERENUAL_API_KEY",
	"perplexity.key":     "PERPLEXITY_API_KEY",
	"anthropic.key":      "ANTHROPIC_API_KEY",
	"runware.key":        "RUNWARE_API_KEY",
	"store.database_url": "DATABASE_URL",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GARDENSCAPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		prefixed := "GARDENSCAPE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", key)
		}
	}

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "file:plants.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("perenual.base_url", "https://perenual.com")
	v.SetDefault("perenual.rps", 2)
	v.SetDefault("perenual.max_pages", 20)
	v.SetDefault("perenual.fan_out", 5)
	v.SetDefault("gbif.base_url", "https://api.gbif.org")
	v.SetDefault("gbif.rps", 5)
	v.SetDefault("gbif.rank", "SPECIES")
	v.SetDefault("inaturalist.base_url", "https://api.inaturalist.org")
	v.SetDefault("inaturalist.rps", 1)
	v.SetDefault("inaturalist.rank", "species")
	v.SetDefault("validator.enabled", true)
	v.SetDefault("validator.provider", "perplexity")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("runware.base_url", "https://api.runware.ai")
	v.SetDefault("runware.model", "runware:100@1")
	v.SetDefault("images.dir", "generated-images")
	v.SetDefault("images.width", 1024)
	v.SetDefault("images.height", 1024)
	v.SetDefault("images.concurrency", 2)
	v.SetDefault("enrich.cache_ttl", "1h")

	rates := cost.DefaultRates()
	anthropicRates := make(map[string]any, len(rates.Anthropic))
	for model, r := range rates.Anthropic {
		anthropicRates[model] = map[string]any{"input": r.Input, "output": r.Output}
	}
	v.SetDefault("pricing.anthropic", anthropicRates)
	v.SetDefault("pricing.perplexity.per_query", rates.Perplexity.PerQuery)
	v.SetDefault("pricing.perplexity.per_mtok", rates.Perplexity.PerMTok)
	v.SetDefault("pricing.runware.per_image", rates.Runware.PerImage)

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

// Validate checks that the settings command needs are present.
func (c *Config) Validate(command string) error {
	var errs []string
	require := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, msg)
		}
	}

	needsStore := func() {
		switch c.Store.Driver {
		case "sqlite", "postgres":
		default:
			errs = append(errs, "store.driver must be sqlite or postgres")
		}
		require(c.Store.DatabaseURL != "", "store.database_url is required")
		if c.Store.Driver == "postgres" {
			require(c.Store.MaxConns > 0, "store.max_conns must be > 0")
		}
	}
	needsValidator := func() {
		if !c.Validator.Enabled {
			return
		}
		switch c.Validator.Provider {
		case "perplexity":
			require(c.Perplexity.Key != "", "perplexity.key is required (PERPLEXITY_API_KEY)")
		case "anthropic":
			require(c.Anthropic.Key != "", "anthropic.key is required (ANTHROPIC_API_KEY)")
		default:
			errs = append(errs, "validator.provider must be perplexity or anthropic")
		}
	}

	switch command {
	case "import":
		needsStore()
		needsValidator()
	case "enrich":
		needsValidator()
	case "search", "normalize":
	case "images":
		require(c.Runware.Key != "", "runware.key is required (RUNWARE_API_KEY)")
		require(c.Images.Dir != "", "images.dir is required")
	case "plants", "runs", "migrate":
		needsStore()
	case "serve":
		needsStore()
		needsValidator()
		require(c.Server.Port > 0, "server.port must be > 0")
	default:
		return eris.Errorf("config: unknown mode %q", command)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
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
