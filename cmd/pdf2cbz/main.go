// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pdf2cbz CLI. It converts PDF
// documents to per-page JPEG images and packages them as zip, cbz, or cbr
// archives.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf2cbz/internal/logging"
	"github.com/pdiddy/pdf2cbz/pkg/types"
)

const appName = "pdf2cbz"

// version is set at build time via ldflags.
var version = "dev"

// logger is built from configuration before any subcommand runs.
var logger = zerolog.Nop()

// rootCmd is the base command for the pdf2cbz CLI.
var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Convert PDF files to page images packaged as zip, cbz, or cbr",
	Long: `pdf2cbz renders every page of each PDF to a JPEG file in a folder named
after the document, then packages those pages into one archive per document
in the output folder. CBZ is a ZIP container; CBR requires the rar binary.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.New(types.LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		}, os.Stderr)
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug().Str("file", used).Msg("using config file")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pdf2cbz.yaml or $XDG_CONFIG_HOME/pdf2cbz/pdf2cbz.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "console", "log format: console or json")
	rootCmd.PersistentFlags().String("history-db", "", "run history database (default: $XDG_DATA_HOME/pdf2cbz/history.db)")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("history.path", rootCmd.PersistentFlags().Lookup("history-db"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(appName)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath(filepath.Join(xdg.ConfigHome, appName))
	}

	viper.SetEnvPrefix("PDF2CBZ")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "warning: reading config: %v\n", err)
		}
	}
}

// historyPath returns the configured history database location.
func historyPath() string {
	if p := viper.GetString("history.path"); p != "" {
		return p
	}
	return filepath.Join(xdg.DataHome, appName, "history.db")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
