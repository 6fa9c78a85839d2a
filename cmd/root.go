package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kanteakoisi/GreenPledge/logx"
)

var rootCmd = &cobra.Command{
	Use:   "greenpledge",
	Short: "GreenPledge carbon credit ledger CLI",
	Long:  "Command line interface for running and managing a GreenPledge carbon credit ledger node.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logx.Error("CMD", "Command execution failed:", err)
		os.Exit(1)
	}
}
