package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marcus/giftwell/internal/budget"
	"github.com/marcus/giftwell/internal/entity"
	"github.com/marcus/giftwell/internal/models"
	"github.com/marcus/giftwell/internal/output"
)

var budgetCmd = &cobra.Command{
	Use:     "budget",
	Short:   "Show and set per-person gift budgets",
	GroupID: "people",
}

var budgetShowCmd = &cobra.Command{
	Use:   "show <person-id>",
	Short: "Show a person's receiving and buying budget bars",
	Long: `Show how much has been purchased and planned for a person, both as the
recipient of gifts and as a buyer, against the budgets set for them.

A role with neither a budget nor any gifts is not shown.`,
	Example: `  giftwell budget show 7
  giftwell budget show 7 --occasion 2`,
	Args: cobra.ExactArgs(1),
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

		occasion := optionalID(cmd, "occasion")
		if jsonOutput(cmd) {
			b, err := a.Entity.Budgets.Get(cmd.Context(), id, occasion)
			if err != nil {
				return fail(cmd, err)
			}
			section := budget.Section(*b)
			return output.JSON(map[string]any{
				"budget":          b,
				"recipient_state": section.Recipient.State.String(),
				"purchaser_state": section.Purchaser.State.String(),
				"recipient_over":  section.Recipient.OverBudget,
				"purchaser_over":  section.Purchaser.OverBudget,
			})
		}
		if !printBudgetSection(cmd.Context(), a.Entity, id, occasion) {
			fmt.Println("No budget or gifts for this person")
		}
		return nil
	},
}

var budgetSetCmd = &cobra.Command{
	Use:   "set <person-id>",
	Short: "Set a person's budgets",
	Long: `Set the receiving and buying budgets for a person. A flag that is not
given clears that budget.`,
	Example: `  giftwell budget set 7 --recipient 150 --purchaser 300
  giftwell budget set 7 --recipient 50 --occasion 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "person")
		if err != nil {
			return fail(cmd, err)
		}
		in := models.BudgetInput{
			OccasionID:      optionalID(cmd, "occasion"),
			RecipientBudget: optionalFloat(cmd, "recipient"),
			PurchaserBudget: optionalFloat(cmd, "purchaser"),
		}
		for _, v := range []*float64{in.RecipientBudget, in.PurchaserBudget} {
			if v != nil && *v < 0 {
				return fail(cmd, usagef("budget must not be negative"))
			}
		}

		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		b, err := a.Entity.Budgets.Set(cmd.Context(), id, in)
		if err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(b)
		}
		output.Success("Budget updated for person #%d", id)
		if section := budget.RenderSection(budget.Section(*b), barWidth()); section != "" {
			fmt.Println(section)
		}
		return nil
	},
}

// printBudgetSection prints the budget bars for a person and reports
// whether anything was shown. Fetch errors are printed in place.
func printBudgetSection(ctx context.Context, ent *entity.Client, personID int64, occasionID *int64) bool {
	b, err := ent.Budgets.Get(ctx, personID, occasionID)
	if err != nil {
		fmt.Print(output.SectionHeader("budget"))
		output.Error("%s", output.FetchError("budget", err))
		return true
	}
	section := budget.RenderSection(budget.Section(*b), barWidth())
	if section == "" {
		return false
	}
	fmt.Print(output.SectionHeader("budget"))
	fmt.Println(section)
	return true
}

func barWidth() int {
	w := output.TerminalWidth(80) - 30
	if w < 10 {
		w = 10
	}
	if w > 50 {
		w = 50
	}
	return w
}

func init() {
	budgetShowCmd.Flags().Int64("occasion", 0, "Scope the totals to one occasion")
	budgetSetCmd.Flags().Int64("occasion", 0, "Set the budget for one occasion")
	budgetSetCmd.Flags().Float64("recipient", 0, "Budget for gifts this person receives")
	budgetSetCmd.Flags().Float64("purchaser", 0, "Budget for gifts this person buys")

	budgetCmd.AddCommand(budgetShowCmd, budgetSetCmd)
	rootCmd.AddCommand(budgetCmd)
}
