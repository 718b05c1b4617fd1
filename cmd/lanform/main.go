package main

import (
	"fmt"
	"os"

	"github.com/mschirtzinger/lanform/internal/config"
	"github.com/mschirtzinger/lanform/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// v holds defaults, env and bound flags until the config is loaded.
	v = config.NewViper()

	cfg  *config.Config
	sink *logging.Sink
)

var rootCmd = &cobra.Command{
	Use:   "lanform",
	Short: "Local-first shared form over a JSON file",
	Long: `lanform collects form submissions into a shared JSON file that every
participant on the network picks, and forwards each record to an aggregator
when one is reachable.

Every submission is written to the shared file first. The relay is a single
best-effort attempt; nothing is queued or retried.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")

		loaded, err := config.Load(v, configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
		sink = logging.NewSink(cfg.Log)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeSink()
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "form", Title: "Form Commands:"},
		&cobra.Group{ID: "network", Title: "Network Commands:"},
		&cobra.Group{ID: "setup", Title: "Setup Commands:"},
	)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: search for "+config.FileName+")")
	flags.String("state-dir", "", "directory for local state")
	flags.String("relay-url", "", "aggregator base URL")
	flags.Bool("quiet", false, "suppress log output on stderr")

	bindFlag(v, "state_dir", "state-dir")
	bindFlag(v, "relay.url", "relay-url")
	bindFlag(v, "log.quiet", "quiet")
}

// bindFlag binds a persistent flag to a config key. A flag that is not set
// on the command line does not override lower layers.
func bindFlag(v *viper.Viper, key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
