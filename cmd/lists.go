package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/giftwell/internal/models"
	"github.com/marcus/giftwell/internal/output"
)

var listsCmd = &cobra.Command{
	Use:     "lists",
	Aliases: []string{"list"},
	Short:   "Wishlists, idea lists and shopping lists",
	GroupID: "gifts",
}

var listsListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"all"},
	Short:   "List gift lists",
	Example: `  giftwell lists ls --occasion 2
  giftwell lists ls --person 7`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		occasion, _ := cmd.Flags().GetInt64("occasion")
		person, _ := cmd.Flags().GetInt64("person")
		page, err := fetchPage(cmd.Context(), cmd, func(ctx context.Context, p models.PageParams) (*models.Page[models.List], error) {
			return a.Entity.Lists.List(ctx, models.ListFilter{PageParams: p, OccasionID: occasion, PersonID: person})
		})
		if err != nil {
			return fail(cmd, err)
		}
		return printPage(cmd, page, output.FormatList, "No lists yet")
	},
}

var listsShowCmd = &cobra.Command{
	Use:     "show <list-id>",
	Aliases: []string{"get", "items"},
	Short:   "Show a list and its items",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "list")
		if err != nil {
			return fail(cmd, err)
		}
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		ctx := cmd.Context()
		l, err := a.Entity.Lists.Get(ctx, id)
		if err != nil {
			return fail(cmd, err)
		}
		items, err := a.Entity.ListItems.List(ctx, id)
		if jsonOutput(cmd) {
			if err != nil {
				return fail(cmd, err)
			}
			return output.JSON(map[string]any{"list": l, "items": items.Items})
		}

		fmt.Println(output.FormatList(l))
		fmt.Print(output.SectionHeader("items"))
		switch {
		case err != nil:
			output.Error("%s", output.FetchError("items", err))
		case len(items.Items) == 0:
			fmt.Println("  No items yet")
		default:
			for i := range items.Items {
				fmt.Println("  " + output.FormatListItem(&items.Items[i]))
			}
		}
		printComments(ctx, a.Entity, models.CommentOnList, id)
		return nil
	},
}

var listsAddCmd = &cobra.Command{
	Use:     "add <name>",
	Aliases: []string{"create", "new"},
	Short:   "Create a list",
	Example: `  giftwell lists add "Rose's wishlist" --kind wishlist --person 7`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := models.ListInput{
			Name:       strings.TrimSpace(args[0]),
			PersonID:   optionalID(cmd, "person"),
			OccasionID: optionalID(cmd, "occasion"),
		}
		if in.Name == "" {
			return fail(cmd, usagef("name is required"))
		}
		kind, _ := cmd.Flags().GetString("kind")
		switch models.ListKind(kind) {
		case models.ListKindWishlist, models.ListKindIdeas, models.ListKindShopping:
			in.Kind = models.ListKind(kind)
		default:
			return fail(cmd, usagef("invalid kind %q (use wishlist, ideas or shopping)", kind))
		}

		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		l, err := a.Entity.Lists.Create(cmd.Context(), in)
		if err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(l)
		}
		output.Success("Created list %s (#%d)", l.Name, l.ID)
		return nil
	},
}

var listsDeleteCmd = &cobra.Command{
	Use:     "delete <list-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a list",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "list")
		if err != nil {
			return fail(cmd, err)
		}
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		if err := a.Entity.Lists.Delete(cmd.Context(), id); err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(map[string]any{"deleted": id})
		}
		output.Success("Deleted list #%d", id)
		return nil
	},
}

var listsPutCmd = &cobra.Command{
	Use:     "put <list-id> <gift-id>",
	Aliases: []string{"add-item"},
	Short:   "Add a gift to a list",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		listID, err := parseID(args[0], "list")
		if err != nil {
			return fail(cmd, err)
		}
		giftID, err := parseID(args[1], "gift")
		if err != nil {
			return fail(cmd, err)
		}
		notes, _ := cmd.Flags().GetString("notes")

		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		it, err := a.Entity.ListItems.Create(cmd.Context(), listID, models.ListItemInput{GiftID: giftID, Notes: notes})
		if err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(it)
		}
		output.Success("Added gift #%d to list #%d", giftID, listID)
		return nil
	},
}

var listsToggleCmd = &cobra.Command{
	Use:   "toggle <list-id> <item-id>",
	Short: "Check or uncheck a list item",
	Long: `Flip a list item between purchased and planned. The local view updates
immediately and is rolled back if the server rejects the change.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		listID, err := parseID(args[0], "list")
		if err != nil {
			return fail(cmd, err)
		}
		itemID, err := parseID(args[1], "item")
		if err != nil {
			return fail(cmd, err)
		}
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		ctx := cmd.Context()
		items, err := a.Entity.ListItems.List(ctx, listID)
		if err != nil {
			return fail(cmd, err)
		}
		var item *models.ListItem
		for i := range items.Items {
			if items.Items[i].ID == itemID {
				item = &items.Items[i]
				break
			}
		}
		if item == nil {
			return fail(cmd, usagef("item #%d is not on list #%d", itemID, listID))
		}

		updated, err := a.Entity.ListItems.Toggle(ctx, *item)
		if err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(updated)
		}
		fmt.Println(output.FormatListItem(updated))
		return nil
	},
}

var listsRemoveCmd = &cobra.Command{
	Use:   "remove <list-id> <item-id>",
	Short: "Remove an item from a list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		listID, err := parseID(args[0], "list")
		if err != nil {
			return fail(cmd, err)
		}
		itemID, err := parseID(args[1], "item")
		if err != nil {
			return fail(cmd, err)
		}
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		if err := a.Entity.ListItems.Delete(cmd.Context(), listID, itemID); err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(map[string]any{"deleted": itemID})
		}
		output.Success("Removed item #%d from list #%d", itemID, listID)
		return nil
	},
}

func init() {
	addPageFlags(listsListCmd, 50)
	listsListCmd.Flags().Int64("occasion", 0, "Only lists for this occasion")
	listsListCmd.Flags().Int64("person", 0, "Only lists for this person")

	listsAddCmd.Flags().String("kind", string(models.ListKindWishlist), "wishlist, ideas or shopping")
	listsAddCmd.Flags().Int64("person", 0, "Person the list belongs to")
	listsAddCmd.Flags().Int64("occasion", 0, "Occasion the list is for")

	listsPutCmd.Flags().String("notes", "", "Notes for this item")

	listsCmd.AddCommand(listsListCmd, listsShowCmd, listsAddCmd, listsDeleteCmd, listsPutCmd, listsToggleCmd, listsRemoveCmd)
	rootCmd.AddCommand(listsCmd)
}
