package config

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/LdDl/pdm-go/pdm"
	"gopkg.in/yaml.v3"
)

// DefaultConfig returns a configuration with default values.
func DefaultConfig() Config {
	builder := pdm.DefaultBuilderOptions()
	fitter := pdm.DefaultFitterOptions()
	return Config{
		LogLevel: "info",
		Model: ModelConfig{
			Landmarks:        40,
			RetainedVariance: builder.RetainedVariance,
			MaxModes:         builder.MaxModes,
			RefineIterations: builder.RefineIterations,
			RefineTolerance:  builder.RefineTolerance,
			ReportOutliers:   builder.ReportOutliers,
		},
		Fitting: FittingConfig{
			MaxIterations: fitter.MaxIterations,
			Tolerance:     fitter.Tolerance,
			ModeLimit:     fitter.ModeLimit,
			Workers:       runtime.NumCPU(),
			Smooth:        fitter.Smooth,
			Dt:            fitter.Dt,
			StdDevA:       fitter.StdDevA,
			StdDevM:       fitter.StdDevM,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if c.Model.Landmarks < pdm.MinLandmarks {
		return fmt.Errorf("invalid model landmarks: %d (must be at least %d)", c.Model.Landmarks, pdm.MinLandmarks)
	}
	if c.Model.RetainedVariance <= 0 || c.Model.RetainedVariance > 1 {
		return fmt.Errorf("invalid model.retained_variance: %f (must be in (0, 1])", c.Model.RetainedVariance)
	}
	if c.Model.MaxModes < 0 {
		return fmt.Errorf("invalid model.max_modes: %d (must not be negative)", c.Model.MaxModes)
	}
	if c.Model.RefineIterations < 0 {
		return fmt.Errorf("invalid model.refine_iterations: %d (must not be negative)", c.Model.RefineIterations)
	}
	if c.Model.RefineTolerance < 0 {
		return fmt.Errorf("invalid model.refine_tolerance: %f (must not be negative)", c.Model.RefineTolerance)
	}

	if c.Fitting.MaxIterations <= 0 {
		return fmt.Errorf("invalid fitting.max_iterations: %d (must be positive)", c.Fitting.MaxIterations)
	}
	if c.Fitting.Tolerance < 0 {
		return fmt.Errorf("invalid fitting.tolerance: %f (must not be negative)", c.Fitting.Tolerance)
	}
	if c.Fitting.Workers <= 0 {
		return fmt.Errorf("invalid fitting.workers: %d (must be positive)", c.Fitting.Workers)
	}
	if c.Fitting.Smooth && c.Fitting.Dt <= 0 {
		return fmt.Errorf("invalid fitting.dt: %f (must be positive when smoothing)", c.Fitting.Dt)
	}

	return nil
}

// BuilderOptions converts model settings to pdm builder options.
func (m ModelConfig) BuilderOptions() pdm.BuilderOptions {
	return pdm.BuilderOptions{
		RetainedVariance: m.RetainedVariance,
		MaxModes:         m.MaxModes,
		RefineIterations: m.RefineIterations,
		RefineTolerance:  m.RefineTolerance,
		ReportOutliers:   m.ReportOutliers,
	}
}

// FitterOptions converts fitting settings to pdm fitter options.
func (f FittingConfig) FitterOptions() pdm.FitterOptions {
	return pdm.FitterOptions{
		MaxIterations: f.MaxIterations,
		Tolerance:     f.Tolerance,
		ModeLimit:     f.ModeLimit,
		Smooth:        f.Smooth,
		Dt:            f.Dt,
		StdDevA:       f.StdDevA,
		StdDevM:       f.StdDevM,
	}
}

// SlogLevel maps LogLevel to slog.Level. Unknown values map to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WriteFile stores the configuration as YAML.
func WriteFile(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing config file %s: %w", path, err)
	}
	return nil
}

// Helper functions

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
