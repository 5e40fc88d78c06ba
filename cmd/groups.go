package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/giftwell/internal/models"
	"github.com/marcus/giftwell/internal/output"
)

var groupsCmd = &cobra.Command{
	Use:     "groups",
	Aliases: []string{"group"},
	Short:   "Groups of people, such as households or sides of the family",
	GroupID: "people",
}

var groupsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List groups",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		page, err := fetchPage(cmd.Context(), cmd, func(ctx context.Context, p models.PageParams) (*models.Page[models.Group], error) {
			return a.Entity.Groups.List(ctx, p)
		})
		if err != nil {
			return fail(cmd, err)
		}
		return printPage(cmd, page, output.FormatGroup, "No groups yet")
	},
}

var groupsShowCmd = &cobra.Command{
	Use:     "show <group-id>",
	Aliases: []string{"get"},
	Short:   "Show a group and its members",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "group")
		if err != nil {
			return fail(cmd, err)
		}
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		ctx := cmd.Context()
		g, err := a.Entity.Groups.Get(ctx, id)
		if err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(g)
		}
		fmt.Println(output.FormatGroup(g))
		if len(g.MemberIDs) == 0 {
			return nil
		}
		names := personNames(ctx, a.Entity)
		members := make([]string, 0, len(g.MemberIDs))
		for _, pid := range g.MemberIDs {
			members = append(members, nameOrID(names, pid))
		}
		fmt.Print(output.SectionHeader("members"))
		for _, line := range output.BulletList(members, 2) {
			fmt.Println(line)
		}
		return nil
	},
}

var groupsAddCmd = &cobra.Command{
	Use:     "add <name>",
	Aliases: []string{"create", "new"},
	Short:   "Create a group",
	Example: `  giftwell groups add "The Smiths" --members 3,4,5 --color "#ff8800"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := models.GroupInput{Name: strings.TrimSpace(args[0])}
		if in.Name == "" {
			return fail(cmd, usagef("name is required"))
		}
		in.Color, _ = cmd.Flags().GetString("color")
		members, _ := cmd.Flags().GetString("members")
		ids, err := parseIDs(members, "person")
		if err != nil {
			return fail(cmd, err)
		}
		in.MemberIDs = ids

		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		g, err := a.Entity.Groups.Create(cmd.Context(), in)
		if err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(g)
		}
		output.Success("Created group %s (#%d)", g.Name, g.ID)
		return nil
	},
}

var groupsDeleteCmd = &cobra.Command{
	Use:     "delete <group-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a group",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "group")
		if err != nil {
			return fail(cmd, err)
		}
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		if err := a.Entity.Groups.Delete(cmd.Context(), id); err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(map[string]any{"deleted": id})
		}
		output.Success("Deleted group #%d", id)
		return nil
	},
}

func init() {
	addPageFlags(groupsListCmd, 50)
	groupsAddCmd.Flags().String("color", "", "Display color")
	groupsAddCmd.Flags().String("members", "", "Comma-separated person ids")

	groupsCmd.AddCommand(groupsListCmd, groupsShowCmd, groupsAddCmd, groupsDeleteCmd)
	rootCmd.AddCommand(groupsCmd)
}
