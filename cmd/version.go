package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/giftwell/internal/output"
	"github.com/marcus/giftwell/internal/version"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Show version and check for updates",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Print(versionStr)
			return nil
		}

		res := version.Result{Current: versionStr}
		if check, _ := cmd.Flags().GetBool("check"); check {
			// Network errors are not worth reporting here.
			res = version.NewChecker(versionStr).Check(cmd.Context())
		}

		if jsonOutput(cmd) {
			return output.JSON(res)
		}
		fmt.Printf("giftwell version %s\n", versionStr)
		if res.Err == nil && res.HasUpdate {
			fmt.Printf("\nUpdate available: %s → %s\n", versionStr, res.Latest)
			if c := res.UpdateCommand(); c != "" {
				fmt.Printf("Run: %s\n", c)
			}
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("short", false, "Print only the version")
	versionCmd.Flags().Bool("check", true, "Check for a newer release")
	rootCmd.AddCommand(versionCmd)
}
