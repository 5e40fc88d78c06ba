package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/giftwell/internal/dateparse"
	"github.com/marcus/giftwell/internal/models"
	"github.com/marcus/giftwell/internal/output"
)

var occasionsCmd = &cobra.Command{
	Use:     "occasions",
	Aliases: []string{"occasion"},
	Short:   "Birthdays, holidays and other gift-giving occasions",
	GroupID: "people",
}

var occasionsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List occasions",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		upcoming, _ := cmd.Flags().GetBool("upcoming")
		page, err := fetchPage(cmd.Context(), cmd, func(ctx context.Context, p models.PageParams) (*models.Page[models.Occasion], error) {
			return a.Entity.Occasions.List(ctx, models.OccasionFilter{PageParams: p, Upcoming: upcoming})
		})
		if err != nil {
			return fail(cmd, err)
		}
		return printPage(cmd, page, output.FormatOccasion, "No occasions yet")
	},
}

var occasionsShowCmd = &cobra.Command{
	Use:     "show <occasion-id>",
	Aliases: []string{"get"},
	Short:   "Show an occasion with its lists",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "occasion")
		if err != nil {
			return fail(cmd, err)
		}
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		ctx := cmd.Context()
		o, err := a.Entity.Occasions.Get(ctx, id)
		if err != nil {
			return fail(cmd, err)
		}
		lists, listErr := a.Entity.Lists.ForOccasion(ctx, id)
		if jsonOutput(cmd) {
			if listErr != nil {
				return fail(cmd, listErr)
			}
			return output.JSON(map[string]any{"occasion": o, "lists": lists.Items})
		}

		fmt.Println(output.FormatOccasion(o))
		if len(o.PersonIDs) > 0 {
			names := personNames(ctx, a.Entity)
			people := make([]string, 0, len(o.PersonIDs))
			for _, pid := range o.PersonIDs {
				people = append(people, nameOrID(names, pid))
			}
			fmt.Printf("For: %s\n", strings.Join(people, ", "))
		}
		fmt.Print(output.SectionHeader("lists"))
		switch {
		case listErr != nil:
			output.Error("%s", output.FetchError("lists", listErr))
		case len(lists.Items) == 0:
			fmt.Println("  No lists for this occasion")
		default:
			for i := range lists.Items {
				fmt.Println("  " + output.FormatList(&lists.Items[i]))
			}
		}
		printComments(ctx, a.Entity, models.CommentOnOccasion, id)
		return nil
	},
}

var occasionsAddCmd = &cobra.Command{
	Use:     "add <name>",
	Aliases: []string{"create", "new"},
	Short:   "Add an occasion",
	Example: `  giftwell occasions add "Rose's 80th" --date 2027-03-02 --kind birthday --for 7
  giftwell occasions add Christmas --date "dec 25" --kind holiday --recurring`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := models.OccasionInput{Name: strings.TrimSpace(args[0])}
		if in.Name == "" {
			return fail(cmd, usagef("name is required"))
		}
		raw, _ := cmd.Flags().GetString("date")
		date, err := dateparse.ParseOccasionDate(raw)
		if err != nil {
			return fail(cmd, usagef("%v", err))
		}
		in.Date = date
		kind, _ := cmd.Flags().GetString("kind")
		switch models.OccasionKind(kind) {
		case models.OccasionBirthday, models.OccasionHoliday, models.OccasionAnniversary, models.OccasionOther:
			in.Kind = models.OccasionKind(kind)
		default:
			return fail(cmd, usagef("invalid kind %q (use birthday, holiday, anniversary or other)", kind))
		}
		in.Recurring, _ = cmd.Flags().GetBool("recurring")
		forIDs, _ := cmd.Flags().GetString("for")
		ids, err := parseIDs(forIDs, "person")
		if err != nil {
			return fail(cmd, err)
		}
		in.PersonIDs = ids

		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		o, err := a.Entity.Occasions.Create(cmd.Context(), in)
		if err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(o)
		}
		output.Success("Added %s (#%d)", o.Name, o.ID)
		return nil
	},
}

var occasionsDeleteCmd = &cobra.Command{
	Use:     "delete <occasion-id>",
	Aliases: []string{"rm"},
	Short:   "Delete an occasion",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "occasion")
		if err != nil {
			return fail(cmd, err)
		}
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		if err := a.Entity.Occasions.Delete(cmd.Context(), id); err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(map[string]any{"deleted": id})
		}
		output.Success("Deleted occasion #%d", id)
		return nil
	},
}

func nameOrID(names map[int64]string, id int64) string {
	if n, ok := names[id]; ok {
		return n
	}
	return fmt.Sprintf("#%d", id)
}

func init() {
	addPageFlags(occasionsListCmd, 50)
	occasionsListCmd.Flags().Bool("upcoming", false, "Only occasions that have not passed")

	occasionsAddCmd.Flags().String("date", "", "Date: YYYY-MM-DD, MM-DD, \"dec 25\", +30d or a day name")
	occasionsAddCmd.Flags().String("kind", string(models.OccasionOther), "birthday, holiday, anniversary or other")
	occasionsAddCmd.Flags().Bool("recurring", false, "Repeats every year")
	occasionsAddCmd.Flags().String("for", "", "Comma-separated person ids")
	_ = occasionsAddCmd.MarkFlagRequired("date")

	occasionsCmd.AddCommand(occasionsListCmd, occasionsShowCmd, occasionsAddCmd, occasionsDeleteCmd)
	rootCmd.AddCommand(occasionsCmd)
}
