package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/marcus/giftwell/internal/app"
	"github.com/marcus/giftwell/internal/config"
	"github.com/marcus/giftwell/internal/output"
	"github.com/marcus/giftwell/internal/theme"
	"github.com/marcus/giftwell/internal/version"
	"github.com/marcus/giftwell/pkg/monitor"
	"github.com/marcus/giftwell/pkg/monitor/keymap"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"dashboard", "monitor"},
	Short:   "Live TUI dashboard of people, gifts and activity",
	Long: `Launch a live-updating TUI dashboard showing:
- People: everyone with their receiving and buying budget bars
- Gifts: the most recently updated gifts
- Activity: the family activity feed

Changes made by anyone in the family appear as they happen. When the live
connection drops the dashboard polls instead and says so in the footer.

Key bindings:
  Tab/Shift+Tab  Switch panels
  j/k            Move selection
  Enter          Open details
  Esc            Close details
  r              Refresh everything
  t              Cycle theme (light, dark, system)
  ?              Toggle help
  q              Quit

Key bindings can be overridden in keymap.json in the config directory.`,
	GroupID: "views",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := config.ConfigDir()
		if err != nil {
			return fail(cmd, err)
		}

		if write, _ := cmd.Flags().GetBool("write-keymap"); write {
			path := keymap.ConfigPath(dir)
			if err := keymap.SaveConfig(path, keymap.ExampleConfig()); err != nil {
				return fail(cmd, err)
			}
			output.Success("Wrote example key bindings to %s", path)
			return nil
		}

		km := keymap.Default()
		if cfg, err := keymap.LoadConfig(keymap.ConfigPath(dir)); err != nil {
			output.Warning("ignoring keymap.json: %v", err)
		} else if err := km.Apply(cfg); err != nil {
			output.Warning("keymap.json: %v", err)
		}

		a, err := newApp(cmd, app.Options{Quiet: true, Persist: true})
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		ctx := cmd.Context()
		a.Start(ctx)

		// Background detection queries the terminal, so do it before
		// bubbletea takes over stdin.
		model := monitor.NewModel(monitor.Options{
			Entity:      a.Entity,
			Themes:      a.Theme,
			Version:     versionStr,
			Updates:     version.NewChecker(versionStr),
			Keymap:      km,
			SystemTheme: theme.System.Resolve(),
		})
		defer model.Close()

		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && ctx.Err() == nil {
			return fmt.Errorf("error running dashboard: %w", err)
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().Bool("write-keymap", false, "Write an example keymap.json and exit")
	rootCmd.AddCommand(watchCmd)
}
