package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/giftwell/internal/config"
	"github.com/marcus/giftwell/internal/output"
	"github.com/marcus/giftwell/internal/theme"
)

var themeCmd = &cobra.Command{
	Use:   "theme [light|dark|system]",
	Short: "Show or set the display theme",
	Long: `Show or set the display theme used by the dashboard.

"system" follows the terminal background. With no argument the stored
preference is printed.`,
	Example: `  giftwell theme
  giftwell theme dark
  giftwell theme --cycle`,
	GroupID: "system",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := config.ConfigDir()
		if err != nil {
			return fail(cmd, err)
		}
		store := theme.NewStore(dir)

		cycle, _ := cmd.Flags().GetBool("cycle")
		var t theme.Theme
		switch {
		case cycle && len(args) > 0:
			return fail(cmd, usagef("give a theme or --cycle, not both"))
		case cycle:
			if t, err = store.Cycle(); err != nil {
				return fail(cmd, err)
			}
		case len(args) == 1:
			if t, err = theme.Parse(args[0]); err != nil {
				return fail(cmd, usagef("%v", err))
			}
			if err := store.Set(t); err != nil {
				return fail(cmd, err)
			}
		default:
			if t, err = store.Get(); err != nil {
				return fail(cmd, err)
			}
		}

		if jsonOutput(cmd) {
			return output.JSON(map[string]string{
				"theme":    string(t),
				"resolved": string(t.Resolve()),
			})
		}
		if t == theme.System {
			fmt.Printf("%s (%s)\n", t, t.Resolve())
			return nil
		}
		fmt.Println(t)
		return nil
	},
}

// displayTheme is the stored preference resolved against the terminal.
func displayTheme() theme.Theme {
	dir, err := config.ConfigDir()
	if err != nil {
		return theme.System.Resolve()
	}
	t, err := theme.NewStore(dir).Get()
	if err != nil {
		return theme.System.Resolve()
	}
	return t.Resolve()
}

func init() {
	themeCmd.Flags().Bool("cycle", false, "Advance light -> dark -> system")
	rootCmd.AddCommand(themeCmd)
}
