package cmd

import (
	"fmt"

	"github.com/shunichi-ikebuchi/moneytrack/pkg/analytics"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/ledger"
	"github.com/shunichi-ikebuchi/moneytrack/pkg/recurring"
	"github.com/spf13/cobra"
)

var (
	statsStartDate string
	statsEndDate   string
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show summary statistics",
	Long: `Print account balances and income/expense totals, optionally
restricted to a date range.

Example:
  moneytrack stats
  moneytrack stats --start 2026-01-01 --end 2026-06-30`,
	Run: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsStartDate, "start", "", "start date (YYYY-MM-DD)")
	statsCmd.Flags().StringVar(&statsEndDate, "end", "", "end date (YYYY-MM-DD)")
}

func runStats(cmd *cobra.Command, args []string) {
	_, conn, err := openDatabase()
	exitOnError(err, "failed to open database")
	defer conn.Close()

	accounts := ledger.NewAccountStore(conn)

	all, err := accounts.GetAll()
	exitOnError(err, "failed to load accounts")

	total, err := accounts.TotalBalance(nil)
	exitOnError(err, "failed to compute total balance")

	stats, err := analytics.NewReporter(conn).Stats(analytics.Filter{
		StartDate: statsStartDate,
		EndDate:   statsEndDate,
	})
	exitOnError(err, "failed to compute statistics")

	active, err := recurring.NewEngine(conn, ledger.NewService(conn), accounts).GetAllActive()
	exitOnError(err, "failed to load recurring definitions")

	fmt.Printf("Accounts:  %d (total balance %s)\n", len(all), total.StringFixed(2))
	for _, a := range all {
		fmt.Printf("  %-24s %-12s %12s\n", a.Name, a.Type, a.Balance.StringFixed(2))
	}
	fmt.Printf("Income:    %.2f\n", stats.Income)
	fmt.Printf("Expenses:  %.2f\n", stats.Expenses)
	fmt.Printf("Net:       %.2f\n", stats.Net)
	fmt.Printf("Recurring: %d active definition(s)\n", len(active))
}
