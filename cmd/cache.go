package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the pricing cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show entry counts per partition",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer closeEngine(cmd, e)
		s, err := e.Stats(commandContext(cmd))
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), s)
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty both cache tiers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer closeEngine(cmd, e)
		if err := e.ClearCache(commandContext(cmd)); err != nil {
			return err
		}
		if invalidateBroadcast {
			if err := e.Announce(""); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
		return nil
	},
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove stale entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer closeEngine(cmd, e)
		n, err := e.Sweep(commandContext(cmd))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d stale entries\n", n)
		return nil
	},
}

var (
	invalidateStation   string
	invalidateBroadcast bool
)

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Drop the cached prices of one station",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer closeEngine(cmd, e)
		n := e.InvalidateStation(commandContext(cmd), invalidateStation)
		if invalidateBroadcast {
			if err := e.Announce(invalidateStation); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries for %s\n", n, invalidateStation)
		return nil
	},
}

func init() {
	cacheInvalidateCmd.Flags().StringVarP(&invalidateStation, "station", "s", "", "station identifier")
	_ = cacheInvalidateCmd.MarkFlagRequired("station")
	for _, c := range []*cobra.Command{cacheInvalidateCmd, cacheClearCmd} {
		c.Flags().BoolVar(&invalidateBroadcast, "broadcast", false, "notify other instances over MQTT")
	}
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd, cacheSweepCmd, cacheInvalidateCmd)
	rootCmd.AddCommand(cacheCmd)
}
