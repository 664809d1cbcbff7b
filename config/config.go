// Package config loads the Vay pipeline configuration.
//
// Precedence: built-in defaults, then a vay.toml discovered by walking up from
// the working directory, then VAY_* environment variables.
package config

// Config represents the full pipeline configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database" toml:"database"`
	Ingest   IngestConfig   `mapstructure:"ingest" toml:"ingest"`
}

// DatabaseConfig configures the embedded SQLite store
type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path"`
}

// IngestConfig configures a single ingestion run
type IngestConfig struct {
	// MaxItemsPerSource caps how many records an adapter may emit.
	// Clamped to [50, 25000] when the run context is built.
	MaxItemsPerSource int `mapstructure:"max_items_per_source" toml:"max_items_per_source"`

	// MaxLicenseRisk is the run-wide admissibility ceiling: "low", "medium"
	// or "high". Sources above the ceiling are skipped without being called.
	MaxLicenseRisk string `mapstructure:"max_license_risk" toml:"max_license_risk"`

	// Region tags price signals that do not carry their own region.
	Region string `mapstructure:"region" toml:"region"`
}
