package cmd

import (
	"github.com/spf13/cobra"

	"github.com/marcus/giftwell/internal/app"
	"github.com/marcus/giftwell/internal/output"
)

var cacheCmd = &cobra.Command{
	Use:     "cache",
	Short:   "Manage the local cache snapshot",
	GroupID: "system",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the cached data the dashboard starts from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, app.Options{Offline: true, Persist: true})
		if err != nil {
			return fail(cmd, err)
		}
		if err := a.ClearSnapshot(cmd.Context()); err != nil {
			a.Close()
			return fail(cmd, err)
		}
		// Close writes a final snapshot, so drop the in-memory cache first.
		a.Cache.Clear()
		if err := a.Close(); err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(map[string]bool{"cleared": true})
		}
		output.Success("Cache snapshot cleared")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
