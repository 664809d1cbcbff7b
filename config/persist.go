package config

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/pyatni4ka/ProjectVay-sub001/errors"
)

// WriteDefault writes a vay.toml with the built-in defaults to path.
// Refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Newf("config file already exists: %s", path)
	}

	cfg := Config{
		Database: DatabaseConfig{Path: DefaultDatabasePath},
		Ingest: IngestConfig{
			MaxItemsPerSource: DefaultMaxItemsPerSource,
			MaxLicenseRisk:    DefaultMaxLicenseRisk,
			Region:            DefaultRegion,
		},
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return errors.Wrapf(err, "encode config to %s", path)
	}
	return nil
}
