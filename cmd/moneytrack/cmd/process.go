package cmd

import (
	"fmt"

	"github.com/shunichi-ikebuchi/moneytrack/pkg/ledger"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/recurring"
	"github.com/spf13/cobra"
)

// processCmd represents the process command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Materialize due recurring transactions",
	Long: `Process all active recurring definitions and create the
transactions that have come due since each definition was last
processed. Running it more than once for the same day is safe.

Example:
  moneytrack process`,
	Run: runProcess,
}

func runProcess(cmd *cobra.Command, args []string) {
	_, conn, err := openDatabase()
	exitOnError(err, "failed to open database")
	defer conn.Close()

	engine := recurring.NewEngine(conn, ledger.NewService(conn), ledger.NewAccountStore(conn))

	created, err := engine.ProcessDue()
	exitOnError(err, "failed to process recurring transactions")

	fmt.Printf("Created %d transaction(s)\n", created)
}
