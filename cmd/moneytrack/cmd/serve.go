package cmd

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/catalog"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/config"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/db"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/ledger"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/server"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP API",
	Long: `Serve the JSON API for the browser UI.

On startup, the optional YAML defaults file (MONEYTRACK_DEFAULTS) seeds
missing catalog entries; re-seeding an existing database is harmless.

Example:
  moneytrack serve
  moneytrack serve --debug`,
	Run: runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, conn, err := openDatabase()
	exitOnError(err, "failed to open database")
	defer conn.Close()

	if cfg.Defaults != "" {
		exitOnError(applyDefaults(conn, cfg.Defaults), "failed to apply defaults")
	}

	srv := server.New(conn, cfg.BackupDir, cfg.MaxBackups)

	slog.Info("Listening", "addr", cfg.ListenAddr)
	exitOnError(http.ListenAndServe(cfg.ListenAddr, srv.Router()), "server stopped")
}

// applyDefaults ensures the defaults file's catalog entries exist.
func applyDefaults(conn *db.Connection, path string) error {
	defaults, err := config.LoadDefaults(path)
	if err != nil {
		return err
	}

	if err := catalog.NewCategoryStore(conn).BulkCreate(defaults.Categories); err != nil {
		return err
	}
	if err := catalog.NewPayeeStore(conn).BulkCreate(defaults.Payees); err != nil {
		return err
	}

	accounts := ledger.NewAccountStore(conn)
	for _, a := range defaults.Accounts {
		existing, err := accounts.GetByName(a.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if _, err := accounts.Create(a.Name, a.Type, decimal.Zero); err != nil {
			return err
		}
	}
	return nil
}
