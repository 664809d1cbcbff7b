package commands

import (
	"bytes"

	"github.com/BurntSushi/toml"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/pyatni4ka/ProjectVay-sub001/config"
	"github.com/pyatni4ka/ProjectVay-sub001/display"
	"github.com/pyatni4ka/ProjectVay-sub001/errors"
)

// ConfigCmd represents the config command
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and initialize configuration",
	Long: `config — Show and initialize configuration

Configuration sources (in order of precedence):
1. Environment variables (VAY_* prefix)
2. Project config (vay.toml, walked up from the working directory)
3. Default values

Examples:
  vay config show           # Show effective configuration
  vay config init           # Write a default vay.toml`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default vay.toml",
	Long:  "Write a commented default configuration file. Refuses to overwrite an existing one.",
	RunE:  runConfigInit,
}

var configInitPath string

func init() {
	configInitCmd.Flags().StringVar(&configInitPath, "path", "vay.toml", "Where to write the config file")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configInitCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cfg)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return errors.Wrap(err, "failed to encode configuration")
	}
	pterm.Println(buf.String())
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if err := config.WriteDefault(configInitPath); err != nil {
		return err
	}
	pterm.Success.Printf("Wrote default configuration to %s", configInitPath)
	pterm.Println()
	return nil
}
