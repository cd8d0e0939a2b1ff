package cmd

import (
	"fmt"

	"github.com/shunichi-ikebuchi/moneytrack/pkg/catalog"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/ledger"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/seed"
	"github.com/spf13/cobra"
)

var seedOpts seed.Options

// seedCmd represents the seed command.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database with demo data",
	Long: `Generate random accounts, categories, payees and transactions
for trying the application out. Intended for a fresh database.

Example:
  moneytrack seed
  moneytrack seed --accounts 5 --transactions 500`,
	Run: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedOpts.Accounts, "accounts", 3, "number of accounts to create")
	seedCmd.Flags().IntVar(&seedOpts.Categories, "categories", 10, "number of categories to create")
	seedCmd.Flags().IntVar(&seedOpts.Payees, "payees", 15, "number of payees to create")
	seedCmd.Flags().IntVar(&seedOpts.Transactions, "transactions", 200, "number of transactions to create")
}

func runSeed(cmd *cobra.Command, args []string) {
	_, conn, err := openDatabase()
	exitOnError(err, "failed to open database")
	defer conn.Close()

	stores := seed.Stores{
		Accounts:   ledger.NewAccountStore(conn),
		Ledger:     ledger.NewService(conn),
		Categories: catalog.NewCategoryStore(conn),
		Payees:     catalog.NewPayeeStore(conn),
	}

	exitOnError(seed.Run(stores, seedOpts), "failed to seed database")

	fmt.Printf("Seeded %d accounts, %d categories, %d payees, %d transactions\n",
		seedOpts.Accounts, seedOpts.Categories, seedOpts.Payees, seedOpts.Transactions)
}
