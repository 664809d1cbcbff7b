package config

import (
	"github.com/spf13/viper"
)

// Default values for clamping and fallbacks, shared with the run context.
const (
	DefaultDatabasePath      = "vay.db"
	DefaultMaxItemsPerSource = 1500
	DefaultMaxLicenseRisk    = "high"
	DefaultRegion            = "RU"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)

	v.SetDefault("ingest.max_items_per_source", DefaultMaxItemsPerSource)
	v.SetDefault("ingest.max_license_risk", DefaultMaxLicenseRisk)
	v.SetDefault("ingest.region", DefaultRegion)
}
