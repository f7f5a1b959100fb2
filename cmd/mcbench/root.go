package main

import (
	"github.com/spf13/cobra"

	"montecarlo/pkg/config"
	"montecarlo/pkg/logger"
)

type app struct {
	configPath string
	debug      bool
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "mcbench",
		Short:         "Monte Carlo integration benchmark",
		Long:          "mcbench runs the uniform, importance and control variable estimators locally or against integration-svc.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.load()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config.yaml")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "debug logging")

	root.AddCommand(
		newRunCmd(a),
		newCompareCmd(a),
		newReportCmd(a),
		newRemoteCmd(a),
	)
	return root
}

func (a *app) load() error {
	level := "warn"
	if a.debug {
		level = "debug"
	}
	logger.Init(level)

	var opts []config.LoaderOption
	if a.configPath != "" {
		opts = append(opts, config.WithConfigFile(a.configPath))
	}
	cfg, err := config.NewLoader(opts...).Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}
