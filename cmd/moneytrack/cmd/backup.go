package cmd

import (
	"fmt"

	"github.com/shunichi-ikebuchi/moneytrack/pkg/backup"
	"github.com/spf13/cobra"
)

var (
	backupName string
	backupList bool
)

// backupCmd represents the backup command.
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create a database backup",
	Long: `Create a consistent snapshot of the database in the backup
directory. Old backups beyond the retention limit are removed.

Example:
  moneytrack backup
  moneytrack backup --name before-import
  moneytrack backup --list`,
	Run: runBackup,
}

// restoreCmd represents the restore command.
var restoreCmd = &cobra.Command{
	Use:   "restore <backup-file>",
	Short: "Restore the database from a backup",
	Long: `Replace the database file with the given backup. Stop any
running server before restoring.

Example:
  moneytrack restore ./backups/moneytrack-20260830-120000.db`,
	Args: cobra.ExactArgs(1),
	Run:  runRestore,
}

func init() {
	backupCmd.Flags().StringVar(&backupName, "name", "", "custom backup name")
	backupCmd.Flags().BoolVar(&backupList, "list", false, "list existing backups instead of creating one")
}

func runBackup(cmd *cobra.Command, args []string) {
	cfg, conn, err := openDatabase()
	exitOnError(err, "failed to open database")
	defer conn.Close()

	manager := backup.NewManager(conn, cfg.BackupDir, cfg.MaxBackups)

	if backupList {
		backups, err := manager.List()
		exitOnError(err, "failed to list backups")

		if len(backups) == 0 {
			fmt.Println("No backups found")
			return
		}
		for _, b := range backups {
			fmt.Printf("%s  %8d bytes  %s\n", b.ModTime.Format("2006-01-02 15:04:05"), b.Size, b.Path)
		}
		return
	}

	path, err := manager.Create(backupName)
	exitOnError(err, "failed to create backup")

	fmt.Printf("Backup created: %s\n", path)
}

func runRestore(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	exitOnError(err, "failed to load configuration")

	exitOnError(backup.Restore(args[0], cfg.DBPath), "failed to restore backup")

	fmt.Printf("Restored %s to %s\n", args[0], cfg.DBPath)
}
