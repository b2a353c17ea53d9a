package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/powermatch/app"
	"github.com/kilianp07/powermatch/config"
	"github.com/kilianp07/powermatch/infra/logger"
)

var (
	cfgPath  string
	tables   string
	hourly   string
	logLevel string
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:               "powermatch",
	Short:             "Hourly merit-order dispatch simulator and capacity optimiser",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&tables, "tables", "", "scenario tables file, overrides inputs.tables")
	rootCmd.PersistentFlags().StringVar(&hourly, "hourly", "", "hourly data file, overrides inputs.hourly")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level, overrides logging.level")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if tables != "" {
		c.Inputs.Tables = tables
	}
	if hourly != "" {
		c.Inputs.Hourly = hourly
	}
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if err := logger.SetLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("log level %q: %w", c.Logging.Level, err)
	}
	cfg = c
	return nil
}

func newService(ctx context.Context) (*app.Service, func(), error) {
	svc, err := app.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return svc, func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}, nil
}
