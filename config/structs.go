package config

// Config represents the complete configuration for building and fitting point distribution models.
// It can be loaded from a configuration file, environment variables (PDM_ prefix) and defaults.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`

	// Model building settings
	Model ModelConfig `mapstructure:"model" yaml:"model" json:"model"`

	// Fitting loop settings
	Fitting FittingConfig `mapstructure:"fitting" yaml:"fitting" json:"fitting"`
}

// ModelConfig contains statistical model builder settings.
type ModelConfig struct {
	// Expected landmarks per contour (40 for tooth outlines)
	Landmarks        int     `mapstructure:"landmarks" yaml:"landmarks" json:"landmarks"`
	RetainedVariance float64 `mapstructure:"retained_variance" yaml:"retained_variance" json:"retained_variance"`
	MaxModes         int     `mapstructure:"max_modes" yaml:"max_modes" json:"max_modes"`
	RefineIterations int     `mapstructure:"refine_iterations" yaml:"refine_iterations" json:"refine_iterations"`
	RefineTolerance  float64 `mapstructure:"refine_tolerance" yaml:"refine_tolerance" json:"refine_tolerance"`
	ReportOutliers   int     `mapstructure:"report_outliers" yaml:"report_outliers" json:"report_outliers"`
}

// FittingConfig contains model fitting settings.
type FittingConfig struct {
	MaxIterations int     `mapstructure:"max_iterations" yaml:"max_iterations" json:"max_iterations"`
	Tolerance     float64 `mapstructure:"tolerance" yaml:"tolerance" json:"tolerance"`
	ModeLimit     float64 `mapstructure:"mode_limit" yaml:"mode_limit" json:"mode_limit"`
	Workers       int     `mapstructure:"workers" yaml:"workers" json:"workers"`

	// Kalman smoothing of the instance center
	Smooth  bool    `mapstructure:"smooth" yaml:"smooth" json:"smooth"`
	Dt      float64 `mapstructure:"dt" yaml:"dt" json:"dt"`
	StdDevA float64 `mapstructure:"std_dev_a" yaml:"std_dev_a" json:"std_dev_a"`
	StdDevM float64 `mapstructure:"std_dev_m" yaml:"std_dev_m" json:"std_dev_m"`
}
