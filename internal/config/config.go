package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tunitech/specrecon/internal/ingest"
	"github.com/tunitech/specrecon/internal/waterfall"
)

// Config holds the full application configuration.
type Config struct {
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Match   MatchConfig   `yaml:"match" mapstructure:"match"`
	Index   IndexConfig   `yaml:"index" mapstructure:"index"`
	Curated CuratedConfig `yaml:"curated" mapstructure:"curated"`
	Fill    FillConfig    `yaml:"fill" mapstructure:"fill"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SourcesConfig lists the storefront exports of a run and the order in
// which their spec indices win on key collisions.
type SourcesConfig struct {
	Inputs     []ingest.Source `yaml:"inputs" mapstructure:"inputs"`
	Precedence []string        `yaml:"precedence" mapstructure:"precedence"`
}

// MatchConfig tunes the similarity matcher.
type MatchConfig struct {
	Threshold   float64 `yaml:"threshold" mapstructure:"threshold"`
	MinMargin   float64 `yaml:"min_margin" mapstructure:"min_margin"`
	NumberGuard bool    `yaml:"number_guard" mapstructure:"number_guard"`
}

// IndexConfig tunes the per-source spec index build.
type IndexConfig struct {
	MinKeyLength int `yaml:"min_key_length" mapstructure:"min_key_length"`
	Concurrency  int `yaml:"concurrency" mapstructure:"concurrency"`
}

// CuratedConfig points at an alternative curated table. Empty uses the
// embedded one.
type CuratedConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// FillConfig selects the enabled waterfall stages.
type FillConfig struct {
	Tiers []string `yaml:"tiers" mapstructure:"tiers"`
}

// OutputConfig configures the reconciled table and coverage report.
type OutputConfig struct {
	Path         string `yaml:"path" mapstructure:"path"`
	Format       string `yaml:"format" mapstructure:"format"`
	CoveragePath string `yaml:"coverage_path" mapstructure:"coverage_path"`
	Provenance   bool   `yaml:"provenance" mapstructure:"provenance"`
}

// StoreConfig configures the database backend. Driver "none" disables
// persistence.
type StoreConfig struct {
	Driver          string `yaml:"driver" mapstructure:"driver"`
	DSN             string `yaml:"dsn" mapstructure:"dsn"`
	DatabaseURL     string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns        int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns        int32  `yaml:"min_conns" mapstructure:"min_conns"`
	ConnectAttempts int    `yaml:"connect_attempts" mapstructure:"connect_attempts"`
}

// ServerConfig configures the read-only HTTP API.
type ServerConfig struct {
	Port      int     `yaml:"port" mapstructure:"port"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst int     `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultPrecedence is the source order used when none is configured.
var DefaultPrecedence = []string{"tunisianet", "mytek", "spacenet", "bestphone"}

// Load reads configuration from ./config.yaml and the environment.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom reads configuration from path, or from ./config.yaml when path
// is empty. A missing ./config.yaml is not an error; a missing explicit
// path is.
func LoadFrom(path string) (*Config, error) {
	loadDotenv(".env", ".env.local")

	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("SPECRECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("sources.precedence", DefaultPrecedence)
	v.SetDefault("match.threshold", 0.75)
	v.SetDefault("match.min_margin", 0.0)
	v.SetDefault("match.number_guard", true)
	v.SetDefault("index.min_key_length", 5)
	v.SetDefault("index.concurrency", 4)
	v.SetDefault("fill.tiers", []string{"match", "curated", "brand_stats", "global_stats"})
	v.SetDefault("output.path", "reconciled.csv")
	v.SetDefault("output.coverage_path", "coverage.json")
	v.SetDefault("output.provenance", false)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "specrecon.db")
	v.SetDefault("store.connect_attempts", 3)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 20)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional unless explicit)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func loadDotenv(files ...string) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			zap.L().Warn("config: skip env file", zap.String("file", f), zap.Error(err))
		}
	}
}

// Validate checks value ranges for the given command mode: "reconcile",
// "serve" or "migrate". All problems are reported together.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres", "none":
	default:
		errs = append(errs, fmt.Sprintf("unknown store.driver %q", c.Store.Driver))
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required for postgres")
	}

	switch mode {
	case "reconcile":
		errs = append(errs, c.validateReconcile()...)
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server.port must be > 0 and <= 65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, fmt.Sprintf("server.rate_limit must be >= 0, got %v", c.Server.RateLimit))
		}
		if c.Store.Driver == "none" {
			errs = append(errs, "serve needs a store; store.driver is none")
		}
	case "migrate":
		if c.Store.Driver == "none" {
			errs = append(errs, "migrate needs a store; store.driver is none")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateReconcile() []string {
	var errs []string
	if c.Match.Threshold <= 0 || c.Match.Threshold > 1 {
		errs = append(errs, fmt.Sprintf("match.threshold must be in (0, 1], got %v", c.Match.Threshold))
	}
	if c.Match.MinMargin < 0 || c.Match.MinMargin >= 1 {
		errs = append(errs, fmt.Sprintf("match.min_margin must be in [0, 1), got %v", c.Match.MinMargin))
	}
	if c.Index.MinKeyLength < 1 {
		errs = append(errs, fmt.Sprintf("index.min_key_length must be >= 1, got %d", c.Index.MinKeyLength))
	}
	if _, err := waterfall.ParseStages(c.Fill.Tiers); err != nil {
		errs = append(errs, "fill.tiers: "+err.Error())
	}
	switch strings.ToLower(c.Output.Format) {
	case "", "csv", "xlsx":
	default:
		errs = append(errs, fmt.Sprintf("unknown output.format %q", c.Output.Format))
	}
	if len(c.Sources.Inputs) == 0 {
		errs = append(errs, "sources.inputs is empty")
	}
	seen := make(map[string]bool, len(c.Sources.Inputs))
	for i, src := range c.Sources.Inputs {
		if src.Name == "" || src.Path == "" {
			errs = append(errs, fmt.Sprintf("sources.inputs[%d] needs a name and a path", i))
			continue
		}
		key := strings.ToLower(src.Name)
		if seen[key] {
			errs = append(errs, fmt.Sprintf("duplicate source %q", src.Name))
		}
		seen[key] = true
	}
	return errs
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
