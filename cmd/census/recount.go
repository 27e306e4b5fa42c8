package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRecountCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recount",
		Short: "Recompute member and voter counts of every household",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := db.RecountAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recounted %d households\n", n)
			return nil
		},
	}
}
