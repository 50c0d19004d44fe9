// File: internal/config/config.go
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config is the root configuration for a locfix run. It is produced by
// NewConfigFromViper and treated as read-only afterwards.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	State   StateConfig   `mapstructure:"state" yaml:"state"`
	Healing HealingConfig `mapstructure:"healing" yaml:"healing"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Report  ReportConfig  `mapstructure:"report" yaml:"report"`
}

// LoggingConfig controls the global zap logger.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
	AddSource  bool   `mapstructure:"add_source" yaml:"add_source"`
}

// StateConfig locates the persisted healing state: the golden reference
// table, the training corpus and the ranker model. All three live under
// Dir; a leading "~" is expanded to the user's home directory.
type StateConfig struct {
	Dir         string `mapstructure:"dir" yaml:"dir"`
	GoldensFile string `mapstructure:"goldens_file" yaml:"goldens_file"`
	CorpusFile  string `mapstructure:"corpus_file" yaml:"corpus_file"`
	ModelFile   string `mapstructure:"model_file" yaml:"model_file"`
}

// GoldensPath returns the full path of the golden reference file.
func (s StateConfig) GoldensPath() string { return filepath.Join(s.Dir, s.GoldensFile) }

// CorpusPath returns the full path of the training corpus file.
func (s StateConfig) CorpusPath() string { return filepath.Join(s.Dir, s.CorpusFile) }

// ModelPath returns the full path of the ranker model file.
func (s StateConfig) ModelPath() string { return filepath.Join(s.Dir, s.ModelFile) }

// HealingConfig tunes the resolution engine.
type HealingConfig struct {
	// MinTrainingSamples is the corpus size at which the learned ranker
	// starts training. Below it the heuristic ranking is used.
	MinTrainingSamples int `mapstructure:"min_training_samples" yaml:"min_training_samples"`
	// SynthesisFallback makes a failed verification fall through to the
	// next synthesis rule instead of failing the resolution outright.
	SynthesisFallback bool `mapstructure:"synthesis_fallback" yaml:"synthesis_fallback"`
	// ForestSize is the number of trees grown on each retrain.
	ForestSize int `mapstructure:"forest_size" yaml:"forest_size"`
}

// BrowserConfig controls the chromedp-backed page driver.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	OperationTimeout  time.Duration `mapstructure:"operation_timeout" yaml:"operation_timeout"`
}

// ReportConfig controls the post-run healing report.
type ReportConfig struct {
	// Format of the report, "junit" or "json".
	Format string `mapstructure:"format" yaml:"format"`
	// Path of the report file. Empty disables the report.
	Path string `mapstructure:"path" yaml:"path"`
}

// SetDefaults registers the default value of every configuration key on
// the given viper instance.
func SetDefaults(v *viper.Viper) {
	// -- Logging --
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age", 30)
	v.SetDefault("logging.compress", true)
	v.SetDefault("logging.add_source", false)

	// -- State --
	v.SetDefault("state.dir", "~/.locfix")
	v.SetDefault("state.goldens_file", "goldens.json")
	v.SetDefault("state.corpus_file", "corpus.bin")
	v.SetDefault("state.model_file", "model.bin")

	// -- Healing --
	v.SetDefault("healing.min_training_samples", 5)
	v.SetDefault("healing.synthesis_fallback", false)
	v.SetDefault("healing.forest_size", 100)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.user_agent", "")
	v.SetDefault("browser.navigation_timeout", "90s")
	v.SetDefault("browser.operation_timeout", "30s")

	// -- Report --
	v.SetDefault("report.format", "junit")
	v.SetDefault("report.path", "")
}

// NewConfigFromViper unmarshals and validates the configuration, and
// expands the state directory to an absolute location.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	dir, err := homedir.Expand(cfg.State.Dir)
	if err != nil {
		return nil, fmt.Errorf("expanding state.dir: %w", err)
	}
	cfg.State.Dir = dir

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration produced by the registered defaults.
// Mostly useful for tests and for embedding the engine as a library.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := NewConfigFromViper(v)
	if err != nil {
		// The defaults themselves must always validate.
		panic(fmt.Sprintf("config: defaults failed validation: %v", err))
	}
	return cfg
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.State.Dir == "" {
		return fmt.Errorf("state.dir must not be empty")
	}
	if c.State.GoldensFile == "" || c.State.CorpusFile == "" || c.State.ModelFile == "" {
		return fmt.Errorf("state file names must not be empty")
	}
	if c.Healing.MinTrainingSamples < 1 {
		return fmt.Errorf("healing.min_training_samples must be a positive integer")
	}
	if c.Healing.ForestSize < 1 {
		return fmt.Errorf("healing.forest_size must be a positive integer")
	}
	if c.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be a positive duration")
	}
	if c.Browser.OperationTimeout <= 0 {
		return fmt.Errorf("browser.operation_timeout must be a positive duration")
	}
	switch c.Report.Format {
	case "junit", "json":
	default:
		return fmt.Errorf("report.format must be \"junit\" or \"json\", got %q", c.Report.Format)
	}
	return nil
}
