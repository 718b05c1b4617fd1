package main

import (
	"fmt"
	"path/filepath"

	"github.com/mschirtzinger/lanform/internal/config"
	"github.com/mschirtzinger/lanform/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "setup",
	Short:   "Inspect and create configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default config file",
	Long: `Write the default configuration as TOML.

Without a path the file is written to the first search directory
($XDG_CONFIG_HOME/lanform). An existing file is never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := filepath.Join(config.SearchDirs()[0], config.FileName)
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.WriteDefault(path); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("%s Wrote %s\n", ui.RenderPass("✓"), ui.RenderAccent(path))
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		file := cfg.File
		if file == "" {
			file = "(none)"
		}
		fmt.Printf("Config file:    %s\n", file)
		fmt.Printf("State dir:      %s\n", cfg.StateDir)
		fmt.Printf("Relay:          %s%s (timeout %v)\n", cfg.Relay.URL, cfg.Relay.Path, cfg.Relay.Timeout)
		fmt.Printf("Probe target:   %s\n", probeTargetLabel())
		fmt.Printf("Probe interval: %v\n", cfg.Connectivity.ProbeInterval)
		fmt.Printf("Log file:       %s\n", cfg.Log.File)
		fmt.Printf("Dashboard port: %d\n", cfg.Dashboard.Port)
		fmt.Printf("Serve addr:     %s\n", cfg.Serve.Addr)
	},
}

func probeTargetLabel() string {
	if cfg.Connectivity.ProbeTarget != "" {
		return cfg.Connectivity.ProbeTarget
	}
	return "(from relay url)"
}

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
