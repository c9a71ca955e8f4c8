// Command pilocal runs the marketplace persistence daemon and offers a few
// maintenance commands on the same storage.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "pilocal",
	Short: "Local storage for the Pi marketplace",
	Long: `pilocal keeps listings, likes, conversations, messages and escrow
transactions for the marketplace UI and serves them over a local HTTP API.

Settings come from PILOCAL_* environment variables and an optional .env file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.AddCommand(serveCmd, seedCmd, listingsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
