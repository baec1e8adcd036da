// Command scid recommends whether to install sand control facilities on a
// well from reservoir, production, completion, economic and environmental
// observations.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/liamcoop/scid/internal/config"
	"github.com/liamcoop/scid/internal/logger"
)

// app holds state shared by all subcommands
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "scid",
		Short: "Sand control installation decision engine",
		Long: `scid evaluates five factors (reservoir, production, completion,
economic, environmental) and advises whether to install sand control
facilities on a well.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "scid.yaml", "config file (YAML)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	root.AddCommand(
		newConfigCmd(a),
		newRecommendCmd(a),
		newRulesCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) loadConfig() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if err := cfg.ApplyLogging(); err != nil {
		return err
	}

	a.cfg = cfg
	logger.Debug("config loaded", "path", a.configPath, "variant", cfg.Engine.Variant, "rulesPath", cfg.Engine.RulesPath)
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
