package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newFavoritesCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Manage locally cached favorite properties",
		RunE: func(cmd *cobra.Command, args []string) error {
			favs := opts.app.Market.Favorites(cmd.Context())
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), favs)
			}
			for _, id := range favs {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <property-id>",
			Short: "Add a favorite",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if !opts.app.Market.AddFavorite(cmd.Context(), args[0]) {
					return errors.New("favorites could not be saved")
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <property-id>",
			Short: "Remove a favorite",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if !opts.app.Market.RemoveFavorite(cmd.Context(), args[0]) {
					return errors.New("favorites could not be saved")
				}
				return nil
			},
		},
	)
	return cmd
}
