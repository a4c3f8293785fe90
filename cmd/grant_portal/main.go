// Package main provides the entry point for the grant portal HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/jonathan/grant-portal/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "grant_portal",
	Short: "Research grant portal HTTP API server",
	Long:  "Grant portal manages researcher profiles and the grant application lifecycle from draft through review to completion via REST API.",
	// Errors are printed once by main.
	SilenceErrors: true,
	SilenceUsage:  true,
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
