// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the mathspan CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/mathspan/internal/logging"
	"github.com/pdiddy/mathspan/internal/secrets"
	"github.com/pdiddy/mathspan/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is configured from the log settings before any command runs.
var logger = zerolog.Nop()

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the mathspan CLI.
var rootCmd = &cobra.Command{
	Use:   "mathspan",
	Short: "Locate declarations of mathematical identifiers in documents",
	Long: `mathspan reads LaTeXML-style HTML documents, linearizes them into a
narrative text model that keeps track of where every character came from,
parses each sentence, and matches declaration patterns against it. Matched
identifiers are reported as XPath-like locations in the source document.

Stages are subcommands: convert (LaTeX to HTML), extract, and store. The dnm
and patterns commands help inspect documents and validate pattern files.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		level := cfg.Log.Level
		if cmd.Flags().Changed("log-level") {
			level, _ = cmd.Flags().GetString("log-level")
		}
		asJSON := cfg.Log.JSON
		if cmd.Flags().Changed("log-json") {
			asJSON, _ = cmd.Flags().GetBool("log-json")
		}
		l, err := logging.New(os.Stderr, level, asJSON)
		if err != nil {
			return err
		}
		logger = l

		s, err := secrets.Load(".secrets/", logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug().Strs("keys", keys).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./mathspan.yaml or ~/.config/mathspan/mathspan.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("log-json", false, "write logs as JSON")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("mathspan")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "mathspan"))
		}
	}

	viper.SetEnvPrefix("MATHSPAN")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig returns the defaults overlaid with the config file. Flags are
// applied by each command.
func loadConfig() types.PipelineConfig {
	cfg := types.DefaultPipelineConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: ignoring config file: %v\n", err)
		return types.DefaultPipelineConfig()
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
