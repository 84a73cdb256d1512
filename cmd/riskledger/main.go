package main

import (
	"os"

	"github.com/tradekit/riskledger/cmd/riskledger/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
