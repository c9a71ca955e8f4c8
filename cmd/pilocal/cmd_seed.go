package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Store the default listings if none exist",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, _, store, closer, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closer.Close()

		n, err := store.SeedDefaults(cmd.Context(), time.Now())
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Listings already present, nothing seeded")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d listings\n", n)
		return nil
	},
}
