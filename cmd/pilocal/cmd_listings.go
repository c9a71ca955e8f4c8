package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	listingsQuery    string
	listingsCategory string
)

var listingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "Print the stored listings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, _, store, closer, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer closer.Close()

		listings, err := store.SearchListings(cmd.Context(), listingsQuery, listingsCategory)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tCATEGORY\tSELLER\tLIKES")
		for _, l := range listings {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n", l.ID, l.Title, l.Price, l.Category, l.Seller.Name, l.Likes)
		}
		return tw.Flush()
	},
}

func init() {
	listingsCmd.Flags().StringVarP(&listingsQuery, "query", "q", "", "only show listings matching this text")
	listingsCmd.Flags().StringVarP(&listingsCategory, "category", "c", "", "only show listings of this category")
}
