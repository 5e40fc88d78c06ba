package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/giftwell/internal/models"
	"github.com/marcus/giftwell/internal/output"
)

var personsCmd = &cobra.Command{
	Use:     "persons",
	Aliases: []string{"people", "person"},
	Short:   "List and manage the people you buy gifts for",
	GroupID: "people",
}

var personsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List people",
	Example: `  giftwell persons list
  giftwell persons list --group 3 --all`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		group, _ := cmd.Flags().GetInt64("group")
		page, err := fetchPage(cmd.Context(), cmd, func(ctx context.Context, p models.PageParams) (*models.Page[models.Person], error) {
			return a.Entity.Persons.List(ctx, models.PersonFilter{PageParams: p, GroupID: group})
		})
		if err != nil {
			return fail(cmd, err)
		}
		return printPage(cmd, page, output.FormatPerson, "No people yet")
	},
}

var personsShowCmd = &cobra.Command{
	Use:     "show <person-id>",
	Aliases: []string{"get"},
	Short:   "Show a person with notes, sizes and budget",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "person")
		if err != nil {
			return fail(cmd, err)
		}
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		ctx := cmd.Context()
		p, err := a.Entity.Persons.Get(ctx, id)
		if err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(p)
		}

		fmt.Println(output.FormatPerson(p))
		if p.Notes != "" {
			fmt.Println()
			fmt.Println(output.IndentString(p.Notes, 2))
		}
		if sizes := formatSizes(p.Sizes); sizes != "" {
			fmt.Printf("Sizes: %s\n", sizes)
		}
		printBudgetSection(ctx, a.Entity, id, nil)
		return nil
	},
}

var personsAddCmd = &cobra.Command{
	Use:     "add <name>",
	Aliases: []string{"create", "new"},
	Short:   "Add a person",
	Example: `  giftwell persons add "Grandma Rose" --birthday 1948-03-02 --group 1`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := models.PersonInput{Name: strings.TrimSpace(args[0])}
		if in.Name == "" {
			return fail(cmd, usagef("name is required"))
		}
		if err := applyPersonFlags(cmd, &in); err != nil {
			return fail(cmd, err)
		}

		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		p, err := a.Entity.Persons.Create(cmd.Context(), in)
		if err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(p)
		}
		output.Success("Added %s (#%d)", p.Name, p.ID)
		return nil
	},
}

var personsUpdateCmd = &cobra.Command{
	Use:     "update <person-id>",
	Aliases: []string{"edit"},
	Short:   "Update a person",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "person")
		if err != nil {
			return fail(cmd, err)
		}
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		ctx := cmd.Context()
		cur, err := a.Entity.Persons.Get(ctx, id)
		if err != nil {
			return fail(cmd, err)
		}
		in := models.PersonInput{
			Name:     cur.Name,
			Nickname: cur.Nickname,
			Birthday: cur.Birthday,
			Notes:    cur.Notes,
			GroupIDs: cur.GroupIDs,
			Sizes:    cur.Sizes,
		}
		if cmd.Flags().Changed("name") {
			in.Name, _ = cmd.Flags().GetString("name")
		}
		if err := applyPersonFlags(cmd, &in); err != nil {
			return fail(cmd, err)
		}

		p, err := a.Entity.Persons.Update(ctx, id, in)
		if err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(p)
		}
		output.Success("Updated %s (#%d)", p.Name, p.ID)
		return nil
	},
}

var personsDeleteCmd = &cobra.Command{
	Use:     "delete <person-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a person",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "person")
		if err != nil {
			return fail(cmd, err)
		}
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		if err := a.Entity.Persons.Delete(cmd.Context(), id); err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(map[string]any{"deleted": id})
		}
		output.Success("Deleted person #%d", id)
		return nil
	},
}

// applyPersonFlags copies the optional person flags that were set onto in.
func applyPersonFlags(cmd *cobra.Command, in *models.PersonInput) error {
	f := cmd.Flags()
	if f.Changed("nickname") {
		in.Nickname, _ = f.GetString("nickname")
	}
	if f.Changed("birthday") {
		in.Birthday, _ = f.GetString("birthday")
	}
	if f.Changed("notes") {
		s, _ := f.GetString("notes")
		notes, err := newInput(cmd).Text(s)
		if err != nil {
			return usagef("%v", err)
		}
		in.Notes = notes
	}
	if f.Changed("group") {
		s, _ := f.GetString("group")
		ids, err := parseIDs(s, "group")
		if err != nil {
			return err
		}
		in.GroupIDs = ids
	}
	if f.Changed("shirt") {
		in.Sizes.Shirt, _ = f.GetString("shirt")
	}
	if f.Changed("pants") {
		in.Sizes.Pants, _ = f.GetString("pants")
	}
	if f.Changed("shoe") {
		in.Sizes.Shoe, _ = f.GetString("shoe")
	}
	return nil
}

func formatSizes(s models.Sizes) string {
	var parts []string
	if s.Shirt != "" {
		parts = append(parts, "shirt "+s.Shirt)
	}
	if s.Pants != "" {
		parts = append(parts, "pants "+s.Pants)
	}
	if s.Shoe != "" {
		parts = append(parts, "shoe "+s.Shoe)
	}
	return strings.Join(parts, ", ")
}

func addPersonFlags(cmd *cobra.Command) {
	cmd.Flags().String("nickname", "", "Nickname")
	cmd.Flags().String("birthday", "", "Birthday (YYYY-MM-DD)")
	cmd.Flags().String("notes", "", "Free-form notes (- reads stdin, @file reads a file)")
	cmd.Flags().String("group", "", "Comma-separated group ids")
	cmd.Flags().String("shirt", "", "Shirt size")
	cmd.Flags().String("pants", "", "Pants size")
	cmd.Flags().String("shoe", "", "Shoe size")
}

func init() {
	addPageFlags(personsListCmd, 50)
	personsListCmd.Flags().Int64("group", 0, "Only members of this group")

	addPersonFlags(personsAddCmd)
	addPersonFlags(personsUpdateCmd)
	personsUpdateCmd.Flags().String("name", "", "New name")

	personsCmd.AddCommand(personsListCmd, personsShowCmd, personsAddCmd, personsUpdateCmd, personsDeleteCmd)
	rootCmd.AddCommand(personsCmd)
}
