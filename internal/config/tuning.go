// Package config loads the optional JSON tuning file for gridprop. Fields
// are pointers so partial configs are safe: anything omitted falls back to
// the hard defaults baked into the Get* accessors.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/strata-data/gridprop/internal/monitoring"
)

// EnvConfigPath names the environment variable holding the tuning file
// path. Unset means hard defaults.
const EnvConfigPath = "GRIDPROP_TUNING"

// TuningConfig carries the tunable knobs for the snapshot store and the
// quicklook plots.
type TuningConfig struct {
	// Snapshot store params
	StoreBusyRetries *int    `json:"store_busy_retries,omitempty"`
	StoreBusyBackoff *string `json:"store_busy_backoff,omitempty"` // duration string like "50ms"
	SnapshotKeep     *int    `json:"snapshot_keep,omitempty"`

	// Plot params
	PlotWidthInches  *float64 `json:"plot_width_inches,omitempty"`
	PlotHeightInches *float64 `json:"plot_height_inches,omitempty"`
	HistogramBins    *int     `json:"histogram_bins,omitempty"`
	HTMLPointBudget  *int     `json:"html_point_budget,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must
// have a .json extension and be under the max file size. Fields omitted
// from the JSON retain their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadDefault returns the config named by the GRIDPROP_TUNING environment
// variable, or an empty config (hard defaults) when the variable is unset.
// A file that fails to load is logged and ignored rather than fatal.
func LoadDefault() *TuningConfig {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		return EmptyTuningConfig()
	}
	cfg, err := LoadTuningConfig(path)
	if err != nil {
		monitoring.Logf("gridprop: ignoring tuning config %s: %v", path, err)
		return EmptyTuningConfig()
	}
	return cfg
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.StoreBusyRetries != nil && *c.StoreBusyRetries < 1 {
		return fmt.Errorf("store_busy_retries must be at least 1, got %d", *c.StoreBusyRetries)
	}
	if c.StoreBusyBackoff != nil && *c.StoreBusyBackoff != "" {
		if _, err := time.ParseDuration(*c.StoreBusyBackoff); err != nil {
			return fmt.Errorf("invalid store_busy_backoff '%s': %w", *c.StoreBusyBackoff, err)
		}
	}
	if c.SnapshotKeep != nil && *c.SnapshotKeep < 0 {
		return fmt.Errorf("snapshot_keep must be non-negative, got %d", *c.SnapshotKeep)
	}
	if c.PlotWidthInches != nil && *c.PlotWidthInches <= 0 {
		return fmt.Errorf("plot_width_inches must be positive, got %f", *c.PlotWidthInches)
	}
	if c.PlotHeightInches != nil && *c.PlotHeightInches <= 0 {
		return fmt.Errorf("plot_height_inches must be positive, got %f", *c.PlotHeightInches)
	}
	if c.HistogramBins != nil && *c.HistogramBins < 1 {
		return fmt.Errorf("histogram_bins must be at least 1, got %d", *c.HistogramBins)
	}
	if c.HTMLPointBudget != nil && *c.HTMLPointBudget < 1 {
		return fmt.Errorf("html_point_budget must be at least 1, got %d", *c.HTMLPointBudget)
	}
	return nil
}

// GetStoreBusyRetries returns the store_busy_retries value or the default.
func (c *TuningConfig) GetStoreBusyRetries() int {
	if c.StoreBusyRetries == nil {
		return 5 // default
	}
	return *c.StoreBusyRetries
}

// GetStoreBusyBackoff parses and returns the StoreBusyBackoff as a time.Duration.
func (c *TuningConfig) GetStoreBusyBackoff() time.Duration {
	if c.StoreBusyBackoff == nil || *c.StoreBusyBackoff == "" {
		return 50 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.StoreBusyBackoff)
	if err != nil {
		return 50 * time.Millisecond // default on parse error
	}
	return d
}

// GetSnapshotKeep returns the snapshot_keep value or the default.
func (c *TuningConfig) GetSnapshotKeep() int {
	if c.SnapshotKeep == nil {
		return 10 // default
	}
	return *c.SnapshotKeep
}

// GetPlotWidthInches returns the plot_width_inches value or the default.
func (c *TuningConfig) GetPlotWidthInches() float64 {
	if c.PlotWidthInches == nil {
		return 10.0
	}
	return *c.PlotWidthInches
}

// GetPlotHeightInches returns the plot_height_inches value or the default.
func (c *TuningConfig) GetPlotHeightInches() float64 {
	if c.PlotHeightInches == nil {
		return 7.0
	}
	return *c.PlotHeightInches
}

// GetHistogramBins returns the histogram_bins value or the default.
func (c *TuningConfig) GetHistogramBins() int {
	if c.HistogramBins == nil {
		return 40
	}
	return *c.HistogramBins
}

// GetHTMLPointBudget returns the html_point_budget value or the default.
func (c *TuningConfig) GetHTMLPointBudget() int {
	if c.HTMLPointBudget == nil {
		return 20000
	}
	return *c.HTMLPointBudget
}
