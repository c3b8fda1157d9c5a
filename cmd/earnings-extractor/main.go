// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the earnings-extractor CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/earnings-extractor/internal/logging"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is built in PersistentPreRunE and shared by all subcommands.
var logger = zap.NewNop()

// rootCmd is the base command for the earnings-extractor CLI.
var rootCmd = &cobra.Command{
	Use:   "earnings-extractor",
	Short: "Extract structured records from earnings-call transcripts",
	Long: `earnings-extractor turns earnings-call transcripts (plain text or PDF)
into structured records: call identity, management and analyst rosters,
question-and-answer exchanges, and headline financial metrics.

Extraction is deterministic and driven by company profiles. Built-in
profiles cover the generic layout plus company-specific rules; additional
profiles are YAML files in profiles_dir.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(viper.GetBool("debug"))
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		logger = l
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug("using config file", zap.String("path", f))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./earnings-extractor.yaml or ~/.config/earnings-extractor/earnings-extractor.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("earnings-extractor")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "earnings-extractor"))
		}
	}

	viper.SetEnvPrefix("EARNINGS_EXTRACTOR")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
