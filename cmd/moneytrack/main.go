// Package main is the entry point for the moneytrack CLI.
package main

import (
	"os"

	"github.com/shunichi-ikebuchi/moneytrack/cmd/moneytrack/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
