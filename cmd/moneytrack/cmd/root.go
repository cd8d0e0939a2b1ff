// Package cmd provides CLI commands for moneytrack.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shunichi-ikebuchi/moneytrack/pkg/config"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/db"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "moneytrack",
	Short: "Local personal finance tracker",
	Long: `moneytrack is a local personal finance tracker backed by SQLite.

It keeps accounts, a transfer-consistent transaction ledger and
recurring transaction definitions, and serves a JSON API for a
browser UI.

Example:
  moneytrack serve
  moneytrack process
  moneytrack stats`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(seedCmd)
}

// loadConfig loads the configuration honoring the --config flag.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// openDatabase loads configuration and opens the database.
func openDatabase() (*config.Config, *db.Connection, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	slog.Debug("Opening database", "path", cfg.DBPath)
	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, conn, nil
}

// exitOnError handles errors and exits.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
