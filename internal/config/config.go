// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Database() DatabaseConfig
	Morphology() MorphologyConfig
	Engine() EngineConfig
	Prepositions() PrepositionConfig
	Paronym() ParonymConfig
	Batch() BatchConfig

	// Engine Setters
	SetEngineSeed(seed uint64)
	SetEngineMode(mode string)
	SetEngineErrorRate(rate float64)

	// Batch Setters
	SetBatchConcurrency(n int)
	SetBatchInputDir(dir string)
	SetBatchOutputDir(dir string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	DatabaseCfg    DatabaseConfig    `mapstructure:"database" yaml:"database"`
	MorphologyCfg  MorphologyConfig  `mapstructure:"morphology" yaml:"morphology"`
	EngineCfg      EngineConfig      `mapstructure:"engine" yaml:"engine"`
	PrepositionCfg PrepositionConfig `mapstructure:"prepositions" yaml:"prepositions"`
	ParonymCfg     ParonymConfig     `mapstructure:"paronym" yaml:"paronym"`
	BatchCfg       BatchConfig       `mapstructure:"batch" yaml:"batch"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig            { return c.LoggerCfg }
func (c *Config) Database() DatabaseConfig        { return c.DatabaseCfg }
func (c *Config) Morphology() MorphologyConfig    { return c.MorphologyCfg }
func (c *Config) Engine() EngineConfig            { return c.EngineCfg }
func (c *Config) Prepositions() PrepositionConfig { return c.PrepositionCfg }
func (c *Config) Paronym() ParonymConfig          { return c.ParonymCfg }
func (c *Config) Batch() BatchConfig              { return c.BatchCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetEngineSeed(seed uint64)       { c.EngineCfg.Seed = seed }
func (c *Config) SetEngineMode(mode string)       { c.EngineCfg.Mode = mode }
func (c *Config) SetEngineErrorRate(rate float64) { c.EngineCfg.ErrorRate = rate }
func (c *Config) SetBatchConcurrency(n int)       { c.BatchCfg.Concurrency = n }
func (c *Config) SetBatchInputDir(dir string)     { c.BatchCfg.InputDir = dir }
func (c *Config) SetBatchOutputDir(dir string)    { c.BatchCfg.OutputDir = dir }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig selects and locates the preposition usage store.
type DatabaseConfig struct {
	Driver     string `mapstructure:"driver" yaml:"driver"`
	URL        string `mapstructure:"url" yaml:"url"`
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

// MorphologyConfig configures the client of the morphological analysis service.
type MorphologyConfig struct {
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RateLimit   float64       `mapstructure:"rate_limit" yaml:"rate_limit"`
	Burst       int           `mapstructure:"burst" yaml:"burst"`
	MaxElapsed  time.Duration `mapstructure:"max_elapsed" yaml:"max_elapsed"`
	MaxInterval time.Duration `mapstructure:"max_interval" yaml:"max_interval"`
}

// Generation modes understood by the engine.
const (
	ModeComposite   = "composite"
	ModeMorph       = "morph"
	ModeManyMorph   = "many-morph"
	ModeTypo        = "typo"
	ModeConsonant   = "consonant"
	ModeParonym     = "paronym"
	ModePreposition = "preposition"
)

// Modes lists every valid engine mode.
var Modes = []string{ModeComposite, ModeMorph, ModeManyMorph, ModeTypo, ModeConsonant, ModeParonym, ModePreposition}

// EngineConfig configures error injection.
type EngineConfig struct {
	// Seed makes runs reproducible; zero draws from the auto-seeded global source.
	Seed                uint64  `mapstructure:"seed" yaml:"seed"`
	Mode                string  `mapstructure:"mode" yaml:"mode"`
	ErrorRate           float64 `mapstructure:"error_rate" yaml:"error_rate"`
	MaxMutationAttempts int     `mapstructure:"max_mutation_attempts" yaml:"max_mutation_attempts"`
	MorphDensity        int     `mapstructure:"morph_density" yaml:"morph_density"`
	MorphProbability    float64 `mapstructure:"morph_probability" yaml:"morph_probability"`
	TypoProbability     float64 `mapstructure:"typo_probability" yaml:"typo_probability"`
	ParonymProbability  float64 `mapstructure:"paronym_probability" yaml:"paronym_probability"`
	TypoModeProbability float64 `mapstructure:"typo_mode_probability" yaml:"typo_mode_probability"`
}

// PrepositionConfig configures the preposition substitution sampler.
type PrepositionConfig struct {
	MinShare float64 `mapstructure:"min_share" yaml:"min_share"`
}

// ParonymConfig configures the paronym table and its tooling.
type ParonymConfig struct {
	TablePath             string  `mapstructure:"table_path" yaml:"table_path"`
	ScrapeBaseURL         string  `mapstructure:"scrape_base_url" yaml:"scrape_base_url"`
	ScrapeRateLimit       float64 `mapstructure:"scrape_rate_limit" yaml:"scrape_rate_limit"`
	SimilarityConcurrency int     `mapstructure:"similarity_concurrency" yaml:"similarity_concurrency"`
}

// BatchConfig configures corpus generation over a directory of sentence files.
type BatchConfig struct {
	InputDir    string `mapstructure:"input_dir" yaml:"input_dir"`
	OutputDir   string `mapstructure:"output_dir" yaml:"output_dir"`
	Concurrency int    `mapstructure:"concurrency" yaml:"concurrency"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Defaults are static; failing here is a programming error.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "errsynth")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Database --
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.url", "postgres://postgres@localhost:5432/errsynth?sslmode=disable")
	v.SetDefault("database.sqlite_path", "~/.errsynth/phrases.db")

	// -- Morphology Service --
	v.SetDefault("morphology.base_url", "http://localhost:8000")
	v.SetDefault("morphology.timeout", "10s")
	v.SetDefault("morphology.rate_limit", 50.0)
	v.SetDefault("morphology.burst", 10)
	v.SetDefault("morphology.max_elapsed", "30s")
	v.SetDefault("morphology.max_interval", "5s")

	// -- Engine --
	v.SetDefault("engine.seed", 0)
	v.SetDefault("engine.mode", ModeComposite)
	v.SetDefault("engine.error_rate", 0.0)
	v.SetDefault("engine.max_mutation_attempts", 20)
	v.SetDefault("engine.morph_density", 5)
	v.SetDefault("engine.morph_probability", 1.0)
	v.SetDefault("engine.typo_probability", 0.3)
	v.SetDefault("engine.paronym_probability", 0.4)
	v.SetDefault("engine.typo_mode_probability", 0.85)

	// -- Prepositions --
	v.SetDefault("prepositions.min_share", 0.00155)

	// -- Paronyms --
	v.SetDefault("paronym.table_path", "paronyms.json")
	v.SetDefault("paronym.scrape_base_url", "https://paronymonline.ru")
	v.SetDefault("paronym.scrape_rate_limit", 2.0)
	v.SetDefault("paronym.similarity_concurrency", 10)

	// -- Batch --
	v.SetDefault("batch.input_dir", "sentences")
	v.SetDefault("batch.output_dir", "corpus")
	v.SetDefault("batch.concurrency", 2)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// The connection string usually carries a password; keep it out of files.
	_ = v.BindEnv("database.url", "ERRSYNTH_DATABASE_URL", "DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves a leading ~ in every filesystem path.
func (c *Config) expandPaths() error {
	paths := []*string{
		&c.LoggerCfg.LogFile,
		&c.DatabaseCfg.SQLitePath,
		&c.ParonymCfg.TablePath,
		&c.BatchCfg.InputDir,
		&c.BatchCfg.OutputDir,
	}
	for _, p := range paths {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.DatabaseCfg.Validate(); err != nil {
		return fmt.Errorf("database configuration invalid: %w", err)
	}
	if c.MorphologyCfg.BaseURL == "" {
		return fmt.Errorf("morphology.base_url is a required configuration field")
	}
	if c.MorphologyCfg.RateLimit < 0 {
		return fmt.Errorf("morphology.rate_limit must not be negative")
	}
	if err := c.EngineCfg.Validate(); err != nil {
		return fmt.Errorf("engine configuration invalid: %w", err)
	}
	if c.BatchCfg.Concurrency <= 0 {
		return fmt.Errorf("batch.concurrency must be a positive integer")
	}
	if c.ParonymCfg.SimilarityConcurrency <= 0 {
		return fmt.Errorf("paronym.similarity_concurrency must be a positive integer")
	}
	if c.PrepositionCfg.MinShare < 0 {
		return fmt.Errorf("prepositions.min_share must not be negative")
	}
	return nil
}

// Validate checks the database driver selection.
func (d *DatabaseConfig) Validate() error {
	switch strings.ToLower(d.Driver) {
	case DriverPostgres:
		if d.URL == "" {
			return fmt.Errorf("url is required for the postgres driver")
		}
	case DriverSQLite:
		if d.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported driver %q (want %s or %s)", d.Driver, DriverPostgres, DriverSQLite)
	}
	return nil
}

// Validate checks the engine settings.
func (e *EngineConfig) Validate() error {
	if !validMode(e.Mode) {
		return fmt.Errorf("unknown mode %q (want one of %s)", e.Mode, strings.Join(Modes, ", "))
	}
	if e.ErrorRate < 0 {
		return fmt.Errorf("error_rate must not be negative")
	}
	if e.MaxMutationAttempts <= 0 {
		return fmt.Errorf("max_mutation_attempts must be greater than 0")
	}
	if e.MorphDensity <= 0 {
		return fmt.Errorf("morph_density must be greater than 0")
	}
	probabilities := map[string]float64{
		"morph_probability":     e.MorphProbability,
		"typo_probability":      e.TypoProbability,
		"paronym_probability":   e.ParonymProbability,
		"typo_mode_probability": e.TypoModeProbability,
	}
	for name, p := range probabilities {
		if p < 0 || p > 1 {
			return fmt.Errorf("%s must be between 0.0 and 1.0", name)
		}
	}
	return nil
}

func validMode(mode string) bool {
	for _, m := range Modes {
		if m == mode {
			return true
		}
	}
	return false
}
