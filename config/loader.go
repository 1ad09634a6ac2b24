package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "pdm"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "PDM"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader with its own viper instance.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// Load loads configuration from the first pdm.* file found in the search paths,
// environment variables and defaults. A missing file is not an error.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return l.unmarshal()
}

// LoadWithFile loads configuration from a specific file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}
	return l.unmarshal()
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) unmarshal() (*Config, error) {
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, "pdm"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "pdm"))
	}
}

// setupEnvironmentVariables configures environment variable handling.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	// model.max_modes -> PDM_MODEL_MAX_MODES
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults sets default values for all configuration options.
// Every key needs a default, otherwise AutomaticEnv can't see it during Unmarshal.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)

	l.v.SetDefault("model.landmarks", defaults.Model.Landmarks)
	l.v.SetDefault("model.retained_variance", defaults.Model.RetainedVariance)
	l.v.SetDefault("model.max_modes", defaults.Model.MaxModes)
	l.v.SetDefault("model.refine_iterations", defaults.Model.RefineIterations)
	l.v.SetDefault("model.refine_tolerance", defaults.Model.RefineTolerance)
	l.v.SetDefault("model.report_outliers", defaults.Model.ReportOutliers)

	l.v.SetDefault("fitting.max_iterations", defaults.Fitting.MaxIterations)
	l.v.SetDefault("fitting.tolerance", defaults.Fitting.Tolerance)
	l.v.SetDefault("fitting.mode_limit", defaults.Fitting.ModeLimit)
	l.v.SetDefault("fitting.workers", defaults.Fitting.Workers)
	l.v.SetDefault("fitting.smooth", defaults.Fitting.Smooth)
	l.v.SetDefault("fitting.dt", defaults.Fitting.Dt)
	l.v.SetDefault("fitting.std_dev_a", defaults.Fitting.StdDevA)
	l.v.SetDefault("fitting.std_dev_m", defaults.Fitting.StdDevM)
}
