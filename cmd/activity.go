package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/giftwell/internal/app"
	"github.com/marcus/giftwell/internal/cache"
	"github.com/marcus/giftwell/internal/models"
	"github.com/marcus/giftwell/internal/output"
	"github.com/marcus/giftwell/internal/realtime"
)

var activityCmd = &cobra.Command{
	Use:     "activity",
	Aliases: []string{"feed"},
	Short:   "Show what the family has been doing",
	Long: `Show the family activity feed, newest first.

With --follow, keep printing new entries as they arrive over the live
connection. When the connection drops the feed is polled instead.`,
	Example: `  giftwell activity --limit 10
  giftwell activity --follow`,
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		follow, _ := cmd.Flags().GetBool("follow")
		if limit <= 0 {
			return fail(cmd, usagef("limit must be positive"))
		}
		if follow {
			return followActivity(cmd, limit)
		}

		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		page, err := a.Entity.Activity.Recent(cmd.Context(), limit)
		if err != nil {
			return fail(cmd, err)
		}
		return printPage(cmd, page, output.FormatActivity, "No recent activity")
	},
}

// followActivity prints the feed, then each new entry as the cache changes.
func followActivity(cmd *cobra.Command, limit int) error {
	a, err := newApp(cmd, app.Options{Quiet: true})
	if err != nil {
		return fail(cmd, err)
	}
	defer a.Close()

	ctx := cmd.Context()
	a.Start(ctx)

	live := a.Entity.Activity.WatchRecent(limit)
	defer live.Close()

	wake := make(chan struct{}, 1)
	onChange := func(string) {
		select {
		case wake <- struct{}{}:
		default:
		}
	}
	if err := a.Cache.Bus().Subscribe(cache.TopicUpdated, onChange); err != nil {
		return fail(cmd, err)
	}
	defer func() { _ = a.Cache.Bus().Unsubscribe(cache.TopicUpdated, onChange) }()

	stateSub := a.RT.OnStateChange(func(s realtime.ConnState) {
		if jsonOutput(cmd) {
			return
		}
		switch s {
		case realtime.Connected:
			output.Info("live updates connected")
		case realtime.Disconnected:
			output.Warning("live updates disconnected, polling")
		}
	})
	defer stateSub.Unsubscribe()

	if _, err := live.Load(ctx); err != nil {
		return fail(cmd, err)
	}

	seen := make(map[int64]bool)
	emit := func() {
		page, ok := live.Data()
		if !ok || page == nil {
			return
		}
		// the feed is newest first; print in arrival order
		for i := len(page.Items) - 1; i >= 0; i-- {
			it := page.Items[i]
			if seen[it.ID] {
				continue
			}
			seen[it.ID] = true
			printActivityLine(cmd, &it)
		}
	}
	emit()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-wake:
			emit()
		}
	}
}

func printActivityLine(cmd *cobra.Command, a *models.Activity) {
	if jsonOutput(cmd) {
		data, err := json.Marshal(a)
		if err == nil {
			fmt.Println(string(data))
		}
		return
	}
	fmt.Println(output.FormatActivity(a))
}

func init() {
	activityCmd.Flags().Int("limit", 20, "Number of entries")
	activityCmd.Flags().BoolP("follow", "f", false, "Keep printing new activity")
	rootCmd.AddCommand(activityCmd)
}
