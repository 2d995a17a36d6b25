// Package integration provides deployment presets for the hermes launcher.
// A preset bundles the settings that usually change together between
// environments (store backend, metrics, log verbosity and format) into a
// named profile, so an operator picks one with --preset instead of setting
// each flag.
//
// Usage:
//
//	p := integration.DevPreset()        // throwaway in-memory store
//	p := integration.ProductionPreset() // bolt store, metrics, json logs
package integration

import "fmt"

// Store backends understood by the launcher.
const (
	StoreBolt   = "bolt"
	StoreMemory = "memory"
)

// PresetConfig captures the parameters that vary across preset profiles.
// Network rules are not part of a preset: they are chosen with --network.
type PresetConfig struct {
	Name          string // human-readable identifier ("dev", "production")
	StoreBackend  string // "bolt" or "memory"
	EnableMetrics bool   // expose prometheus metrics over HTTP
	LogVerbosity  int    // 0=fatal,1=error,2=warn,3=info,4=debug,5=trace
	LogFormat     string // "text" or "json"
	LogColor      bool
}

// DefaultPreset is what the launcher uses when no preset is named.
func DefaultPreset() PresetConfig {
	return PresetConfig{
		Name:          "default",
		StoreBackend:  StoreBolt,
		EnableMetrics: false,
		LogVerbosity:  3,
		LogFormat:     "text",
		LogColor:      true,
	}
}

// DevPreset keeps everything in memory and logs at debug level. State is
// lost when the process exits, which suits trying out a plan file against
// the fake network.
func DevPreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "dev"
	cfg.StoreBackend = StoreMemory
	cfg.EnableMetrics = true
	cfg.LogVerbosity = 4
	return cfg
}

// ProductionPreset persists to bolt, exposes metrics and emits json logs
// for collection.
func ProductionPreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "production"
	cfg.StoreBackend = StoreBolt
	cfg.EnableMetrics = true
	cfg.LogFormat = "json"
	cfg.LogColor = false
	return cfg
}

// GetPresetByName looks up a preset by its identifier.
func GetPresetByName(name string) (PresetConfig, error) {
	switch name {
	case "dev":
		return DevPreset(), nil
	case "production":
		return ProductionPreset(), nil
	case "default":
		return DefaultPreset(), nil
	default:
		return PresetConfig{}, fmt.Errorf("unknown preset: %q (valid: dev, production, default)", name)
	}
}

// ApplyPreset merges preset into target. Empty strings and a negative
// verbosity leave the target untouched; booleans are always applied.
func ApplyPreset(target *PresetConfig, preset PresetConfig) {
	if preset.StoreBackend != "" {
		target.StoreBackend = preset.StoreBackend
	}
	if preset.LogVerbosity >= 0 {
		target.LogVerbosity = preset.LogVerbosity
	}
	if preset.LogFormat != "" {
		target.LogFormat = preset.LogFormat
	}
	target.EnableMetrics = preset.EnableMetrics
	target.LogColor = preset.LogColor
	if preset.Name != "" {
		target.Name = preset.Name
	}
}

// Validate reports settings the launcher cannot act on.
func (p PresetConfig) Validate() error {
	switch p.StoreBackend {
	case StoreBolt, StoreMemory:
	default:
		return fmt.Errorf("preset %q: unknown store backend %q", p.Name, p.StoreBackend)
	}
	switch p.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("preset %q: unknown log format %q", p.Name, p.LogFormat)
	}
	return nil
}
