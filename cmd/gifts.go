package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/marcus/giftwell/internal/entity"
	"github.com/marcus/giftwell/internal/models"
	"github.com/marcus/giftwell/internal/output"
)

var giftsCmd = &cobra.Command{
	Use:     "gifts",
	Aliases: []string{"gift"},
	Short:   "List and manage gifts",
	GroupID: "gifts",
}

var giftsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List gifts",
	Example: `  giftwell gifts list --status planned
  giftwell gifts list --person 3,4 --tag books
  giftwell gifts list --search lego --all`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := giftFilterFromFlags(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		page, err := fetchPage(cmd.Context(), cmd, func(ctx context.Context, p models.PageParams) (*models.Page[models.Gift], error) {
			f.PageParams = p
			return a.Entity.Gifts.List(ctx, f)
		})
		if err != nil {
			return fail(cmd, err)
		}
		return printPage(cmd, page, output.FormatGiftShort, "No gifts found")
	},
}

var giftsShowCmd = &cobra.Command{
	Use:     "show <gift-id>",
	Aliases: []string{"get"},
	Short:   "Show a gift with its comments",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "gift")
		if err != nil {
			return fail(cmd, err)
		}
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		ctx := cmd.Context()
		g, err := a.Entity.Gifts.Get(ctx, id)
		if err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(g)
		}
		fmt.Print(output.FormatGiftLong(g, personNames(ctx, a.Entity)))
		printComments(ctx, a.Entity, models.CommentOnGift, id)
		return nil
	},
}

var giftsAddCmd = &cobra.Command{
	Use:     "add [title]",
	Aliases: []string{"create", "new"},
	Short:   "Add a gift",
	Long: `Add a gift. Without a title on a terminal, an interactive form is shown.`,
	Example: `  giftwell gifts add "Telescope" --price 249 --for 3 --status planned
  giftwell gifts add`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()
		ctx := cmd.Context()

		var in models.GiftInput
		if len(args) == 0 {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return fail(cmd, usagef("title is required"))
			}
			in, err = runGiftForm(ctx, a.Entity)
			if err != nil {
				return fail(cmd, err)
			}
		} else {
			in = models.GiftInput{Title: strings.TrimSpace(args[0]), Status: models.GiftStatusIdea}
			if err := validateTitle(in.Title); err != nil {
				return fail(cmd, usagef("%v", err))
			}
			if err := applyGiftFlags(cmd, &in); err != nil {
				return fail(cmd, err)
			}
		}

		g, err := a.Entity.Gifts.Create(ctx, in)
		if err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(g)
		}
		output.Success("Added %s (#%d)", g.Title, g.ID)
		return nil
	},
}

var giftsUpdateCmd = &cobra.Command{
	Use:     "update <gift-id>",
	Aliases: []string{"edit"},
	Short:   "Update a gift",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "gift")
		if err != nil {
			return fail(cmd, err)
		}
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		ctx := cmd.Context()
		cur, err := a.Entity.Gifts.Get(ctx, id)
		if err != nil {
			return fail(cmd, err)
		}
		in := giftInput(cur)
		if cmd.Flags().Changed("title") {
			in.Title, _ = cmd.Flags().GetString("title")
			if err := validateTitle(in.Title); err != nil {
				return fail(cmd, usagef("%v", err))
			}
		}
		if err := applyGiftFlags(cmd, &in); err != nil {
			return fail(cmd, err)
		}
		return saveGift(cmd, a.Entity, id, in)
	},
}

var giftsStatusCmd = &cobra.Command{
	Use:   "status <gift-id> <status>",
	Short: "Move a gift to another status",
	Example: `  giftwell gifts status 12 purchased
  giftwell gifts status 12 given`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "gift")
		if err != nil {
			return fail(cmd, err)
		}
		status, err := parseGiftStatus(args[1])
		if err != nil {
			return fail(cmd, err)
		}
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		cur, err := a.Entity.Gifts.Get(cmd.Context(), id)
		if err != nil {
			return fail(cmd, err)
		}
		in := giftInput(cur)
		in.Status = status
		return saveGift(cmd, a.Entity, id, in)
	},
}

var giftsDeleteCmd = &cobra.Command{
	Use:     "delete <gift-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a gift",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "gift")
		if err != nil {
			return fail(cmd, err)
		}
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		if err := a.Entity.Gifts.Delete(cmd.Context(), id); err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(map[string]any{"deleted": id})
		}
		output.Success("Deleted gift #%d", id)
		return nil
	},
}

var ideasCmd = &cobra.Command{
	Use:     "ideas",
	Aliases: []string{"inbox"},
	Short:   "Show gift ideas not yet assigned to anyone",
	GroupID: "gifts",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		page, err := a.Entity.Ideas.Inbox(cmd.Context(), limit)
		if err != nil {
			return fail(cmd, err)
		}
		return printPage(cmd, page, output.FormatGiftShort, "Inbox is empty")
	},
}

func giftFilterFromFlags(cmd *cobra.Command) (models.GiftFilter, error) {
	var f models.GiftFilter
	persons, _ := cmd.Flags().GetString("person")
	ids, err := parseIDs(persons, "person")
	if err != nil {
		return f, err
	}
	f.PersonIDs = ids
	if s, _ := cmd.Flags().GetString("status"); s != "" {
		if f.Status, err = parseGiftStatus(s); err != nil {
			return f, err
		}
	}
	tags, _ := cmd.Flags().GetString("tag")
	f.Tags = splitTags(tags)
	f.Search, _ = cmd.Flags().GetString("search")
	return f, nil
}

// giftInput copies a gift into an update body
func giftInput(g *models.Gift) models.GiftInput {
	return models.GiftInput{
		Title:       g.Title,
		Description: g.Description,
		URL:         g.URL,
		Price:       g.Price,
		Status:      g.Status,
		Tags:        g.Tags,
		PersonIDs:   g.PersonIDs,
		PurchaserID: g.PurchaserID,
		OccasionID:  g.OccasionID,
	}
}

// applyGiftFlags copies the optional gift flags that were set onto in.
func applyGiftFlags(cmd *cobra.Command, in *models.GiftInput) error {
	f := cmd.Flags()
	if f.Changed("status") {
		s, _ := f.GetString("status")
		status, err := parseGiftStatus(s)
		if err != nil {
			return err
		}
		in.Status = status
	}
	if p := optionalFloat(cmd, "price"); p != nil {
		if *p < 0 {
			return usagef("price must not be negative")
		}
		in.Price = p
	}
	if f.Changed("url") {
		in.URL, _ = f.GetString("url")
	}
	if f.Changed("description") {
		s, _ := f.GetString("description")
		desc, err := newInput(cmd).Text(s)
		if err != nil {
			return usagef("%v", err)
		}
		in.Description = desc
	}
	if f.Changed("tags") {
		s, _ := f.GetString("tags")
		in.Tags = splitTags(s)
	}
	if f.Changed("for") {
		s, _ := f.GetString("for")
		ids, err := parseIDs(s, "person")
		if err != nil {
			return err
		}
		in.PersonIDs = ids
	}
	if id := optionalID(cmd, "buyer"); id != nil {
		in.PurchaserID = id
	}
	if id := optionalID(cmd, "occasion"); id != nil {
		in.OccasionID = id
	}
	return nil
}

func saveGift(cmd *cobra.Command, ent *entity.Client, id int64, in models.GiftInput) error {
	g, err := ent.Gifts.Update(cmd.Context(), id, in)
	if err != nil {
		return fail(cmd, err)
	}
	if jsonOutput(cmd) {
		return output.JSON(g)
	}
	output.Success("Updated %s", output.FormatGiftShort(g))
	return nil
}

// runGiftForm shows the interactive form, offering known people as recipients.
func runGiftForm(ctx context.Context, ent *entity.Client) (models.GiftInput, error) {
	var people []models.Person
	if page, err := ent.Persons.List(ctx, models.PersonFilter{PageParams: models.PageParams{Limit: 200}}); err == nil {
		people = page.Items
	}
	gf := newGiftForm(people)
	if err := gf.form.RunWithContext(ctx); err != nil {
		return models.GiftInput{}, err
	}
	return gf.input()
}

// personNames maps person ids to names for display. Failures yield an
// empty map; formatters fall back to ids.
func personNames(ctx context.Context, ent *entity.Client) map[int64]string {
	names := make(map[int64]string)
	page, err := ent.Persons.List(ctx, models.PersonFilter{PageParams: models.PageParams{Limit: 200}})
	if err != nil {
		return names
	}
	for _, p := range page.Items {
		names[p.ID] = p.Name
	}
	return names
}

func addGiftFlags(cmd *cobra.Command) {
	cmd.Flags().String("status", "", "Status: idea, planned, purchased, wrapped or given")
	cmd.Flags().Float64("price", 0, "Price")
	cmd.Flags().String("url", "", "Link to the gift")
	cmd.Flags().String("description", "", "Description (- reads stdin, @file reads a file)")
	cmd.Flags().String("tags", "", "Comma-separated tags")
	cmd.Flags().String("for", "", "Comma-separated recipient person ids")
	cmd.Flags().Int64("buyer", 0, "Person id of the buyer")
	cmd.Flags().Int64("occasion", 0, "Occasion id")
}

func init() {
	addPageFlags(giftsListCmd, 50)
	giftsListCmd.Flags().String("person", "", "Comma-separated recipient person ids")
	giftsListCmd.Flags().String("status", "", "Only gifts in this status")
	giftsListCmd.Flags().String("tag", "", "Comma-separated tags")
	giftsListCmd.Flags().String("search", "", "Search titles and descriptions")

	addGiftFlags(giftsAddCmd)
	addGiftFlags(giftsUpdateCmd)
	giftsUpdateCmd.Flags().String("title", "", "New title")

	ideasCmd.Flags().Int("limit", 50, "Maximum ideas to show")

	giftsCmd.AddCommand(giftsListCmd, giftsShowCmd, giftsAddCmd, giftsUpdateCmd, giftsStatusCmd, giftsDeleteCmd)
	rootCmd.AddCommand(giftsCmd, ideasCmd)
}
