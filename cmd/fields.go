package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/giftwell/internal/models"
	"github.com/marcus/giftwell/internal/output"
)

var fieldsCmd = &cobra.Command{
	Use:     "fields",
	Aliases: []string{"field-options"},
	Short:   "Choices offered for configurable fields",
	GroupID: "system",
}

var fieldsListCmd = &cobra.Command{
	Use:     "list [field]",
	Aliases: []string{"ls"},
	Short:   "List field options, optionally for one field",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var field string
		if len(args) == 1 {
			field = args[0]
		}
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		page, err := fetchPage(cmd.Context(), cmd, func(ctx context.Context, p models.PageParams) (*models.Page[models.FieldOption], error) {
			return a.Entity.FieldOptions.List(ctx, models.FieldOptionFilter{PageParams: p, Field: field})
		})
		if err != nil {
			return fail(cmd, err)
		}
		return printPage(cmd, page, output.FormatFieldOption, "No field options")
	},
}

var fieldsAddCmd = &cobra.Command{
	Use:     "add <field> <value>",
	Aliases: []string{"create"},
	Short:   "Add a choice to a field",
	Example: `  giftwell fields add shirt_size XL --label "Extra large"`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := models.FieldOptionInput{Field: strings.TrimSpace(args[0]), Value: strings.TrimSpace(args[1])}
		if in.Field == "" || in.Value == "" {
			return fail(cmd, usagef("field and value are required"))
		}
		in.Label, _ = cmd.Flags().GetString("label")
		if cmd.Flags().Changed("position") {
			pos, _ := cmd.Flags().GetInt("position")
			in.Position = &pos
		}

		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		o, err := a.Entity.FieldOptions.Create(cmd.Context(), in)
		if err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(o)
		}
		output.Success("Added %s option %s (#%d)", o.Field, o.Value, o.ID)
		return nil
	},
}

var fieldsDeleteCmd = &cobra.Command{
	Use:     "delete <option-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a field option",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "option")
		if err != nil {
			return fail(cmd, err)
		}
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		if err := a.Entity.FieldOptions.Delete(cmd.Context(), id); err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(map[string]any{"deleted": id})
		}
		output.Success("Deleted field option #%d", id)
		return nil
	},
}

func init() {
	addPageFlags(fieldsListCmd, 100)
	fieldsAddCmd.Flags().String("label", "", "Display label (defaults to the value)")
	fieldsAddCmd.Flags().Int("position", 0, "Sort position")

	fieldsCmd.AddCommand(fieldsListCmd, fieldsAddCmd, fieldsDeleteCmd)
	rootCmd.AddCommand(fieldsCmd)
}
