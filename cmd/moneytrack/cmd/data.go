package cmd

import (
	"fmt"
	"os"

	"github.com/shunichi-ikebuchi/moneytrack/pkg/csvio"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/ledger"
	"github.com/spf13/cobra"
)

var exportOutput string

// exportCmd represents the export command.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all transactions as CSV",
	Long: `Write every transaction to a CSV file, oldest first. Transfer
legs are exported as two rows sharing a date and amount.

Example:
  moneytrack export --output transactions.csv`,
	Run: runExport,
}

// importCmd represents the import command.
var importCmd = &cobra.Command{
	Use:   "import <csv-file>",
	Short: "Import transactions from CSV",
	Long: `Read transactions from a CSV file. Unknown accounts are
created, matching opposite-sign rows are rejoined into transfers, and
rows that fail to parse are skipped.

Example:
  moneytrack import transactions.csv`,
	Args: cobra.ExactArgs(1),
	Run:  runImport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "transactions.csv", "output file path")
}

func runExport(cmd *cobra.Command, args []string) {
	_, conn, err := openDatabase()
	exitOnError(err, "failed to open database")
	defer conn.Close()

	f, err := os.Create(exportOutput)
	exitOnError(err, "failed to create output file")
	defer f.Close()

	exitOnError(csvio.NewExporter(conn).Export(f), "failed to export transactions")

	fmt.Printf("Exported to %s\n", exportOutput)
}

func runImport(cmd *cobra.Command, args []string) {
	_, conn, err := openDatabase()
	exitOnError(err, "failed to open database")
	defer conn.Close()

	f, err := os.Open(args[0])
	exitOnError(err, "failed to open input file")
	defer f.Close()

	importer := csvio.NewImporter(ledger.NewAccountStore(conn), ledger.NewService(conn))

	result, err := importer.Import(f)
	exitOnError(err, "failed to import transactions")

	fmt.Printf("Imported %d transaction(s) and %d transfer(s)\n", result.Transactions, result.Transfers)
	if result.AccountsCreated > 0 {
		fmt.Printf("Created %d account(s)\n", result.AccountsCreated)
	}
	if result.Skipped > 0 {
		fmt.Printf("Skipped %d row(s)\n", result.Skipped)
	}
}
