package main

import (
	"fmt"
	"io"
	"os"

	"agrilink/pkg/app"
	"agrilink/pkg/config"
	"agrilink/pkg/log"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dbPath     string
	primary    string
	debug      bool
	quiet      bool

	version = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorColor.Sprint("Error: ")+err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "agrictl",
		Short:         "Inspect and switch the farming assistant backend endpoint",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if quiet {
				log.SetOutput(io.Discard)
			}
			if debug {
				log.SetDebugMode()
			} else {
				log.SetLevel(zerolog.WarnLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite state database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&primary, "primary", "", "Primary backend origin (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Discard all log output")

	rootCmd.AddCommand(newProbeCmd(), newBestCmd(), newModeCmd(), newFetchCmd())
	return rootCmd
}

// loadApp builds the components from the config file and flag overrides.
func loadApp() (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.StatePath = dbPath
	}
	if primary != "" {
		cfg.PrimaryOrigin = primary
	}
	return app.New(cfg)
}
