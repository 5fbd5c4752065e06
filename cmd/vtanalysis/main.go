package main

import (
	"github.com/spf13/cobra"

	"github.com/rewired-gh/vtanalysis/internal/config"
	"github.com/rewired-gh/vtanalysis/internal/logger"
)

// app carries state shared by all subcommands.
type app struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "vtanalysis",
		Short:         "Format analysis results into render-ready records",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger.Init(cfg.Logging.Level, cfg.Logging.Format)
			if a.configPath != "" {
				logger.Debug("Configuration loaded from %s", a.configPath)
			}
			a.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to configuration file")

	root.AddCommand(
		newFormatCmd(a),
		newFetchCmd(a),
		newListCmd(a),
		newRegionsCmd(),
		newWatchCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Fatal("%v", err)
	}
}
