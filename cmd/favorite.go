package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	favoriteStation string
	favoriteShow    bool
)

var favoriteCmd = &cobra.Command{
	Use:   "favorite",
	Short: "Snapshot a station's tariffs for offline use",
	RunE:  runFavorite,
}

func init() {
	favoriteCmd.Flags().StringVarP(&favoriteStation, "station", "s", "", "station identifier")
	favoriteCmd.Flags().BoolVar(&favoriteShow, "show", false, "print the stored snapshot instead of refreshing it")
	_ = favoriteCmd.MarkFlagRequired("station")
	rootCmd.AddCommand(favoriteCmd)
}

func runFavorite(cmd *cobra.Command, _ []string) error {
	e, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer closeEngine(cmd, e)
	ctx := commandContext(cmd)

	if favoriteShow {
		b, ok := e.Favorite(ctx, favoriteStation)
		if !ok {
			return fmt.Errorf("no fresh snapshot for %s", favoriteStation)
		}
		return writeJSON(cmd.OutOrStdout(), b)
	}
	b, err := e.CacheFavorite(ctx, favoriteStation)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), b)
}
