package main

import (
	"github.com/spf13/cobra"
)

var rootFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

var rootCmd = &cobra.Command{
	Use:           "greenrisk",
	Short:         "Green finance risk prediction and advisory reports",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootFlags.configPath, "config", "c", "", "Config file (default: configs/config.yaml)")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "Override logging.level")
	pf.StringVar(&rootFlags.logFormat, "log-format", "", "Override logging.format (json|console)")

	rootCmd.AddCommand(predictCmd, companiesCmd, serveCmd, workerCmd)
}
