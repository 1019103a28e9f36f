package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a loader that looks for .callminer/config.yml under rootDir.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// NewFileLoader creates a loader for an explicit config file.
func NewFileLoader(configFile string) Loader {
	return &loader{configFile: configFile}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CALLMINER_*)
// 2. Config file (.callminer/config.yml or .callminer/config.yaml, or an explicit file)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, ".callminer"))
	}

	v.SetEnvPrefix("CALLMINER")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., CALLMINER_EXTRACTION_MAX_DEPTH)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("paths.respect_gitignore")

	v.BindEnv("extraction.max_depth")
	v.BindEnv("extraction.token_scope")
	v.BindEnv("extraction.strip_comments")
	v.BindEnv("extraction.jobs")

	v.BindEnv("output.tokens_file")
	v.BindEnv("output.calls_file")
	v.BindEnv("output.ledger")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("paths.code", defaults.Paths.Code)
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)
	v.SetDefault("paths.respect_gitignore", defaults.Paths.RespectGitignore)

	v.SetDefault("extraction.max_depth", defaults.Extraction.MaxDepth)
	v.SetDefault("extraction.token_scope", defaults.Extraction.TokenScope)
	v.SetDefault("extraction.strip_comments", defaults.Extraction.StripComments)
	v.SetDefault("extraction.jobs", defaults.Extraction.Jobs)

	v.SetDefault("output.tokens_file", defaults.Output.TokensFile)
	v.SetDefault("output.calls_file", defaults.Output.CallsFile)
	v.SetDefault("output.ledger", defaults.Output.Ledger)
}

// LoadConfigFromDir loads configuration from a specific root directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
