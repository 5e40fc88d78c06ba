package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcus/giftwell/internal/entity"
	"github.com/marcus/giftwell/internal/models"
	"github.com/marcus/giftwell/internal/output"
	"github.com/marcus/giftwell/internal/suggest"
)

var commentsCmd = &cobra.Command{
	Use:     "comments",
	Aliases: []string{"comment"},
	Short:   "Read and write comments on gifts, lists, occasions and people",
	GroupID: "gifts",
}

var commentsListCmd = &cobra.Command{
	Use:     "list <gift|list|occasion|person> <id>",
	Aliases: []string{"ls"},
	Short:   "List comments on an entity",
	Example: `  giftwell comments list gift 12`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		entityType, id, err := parseCommentTarget(args[0], args[1])
		if err != nil {
			return fail(cmd, err)
		}
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		page, err := a.Entity.Comments.List(cmd.Context(), entityType, id)
		if err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(page)
		}
		if len(page.Items) == 0 {
			fmt.Println("No comments yet")
			return nil
		}
		width, t := output.TerminalWidth(80)-4, displayTheme()
		for i := range page.Items {
			fmt.Println(output.FormatComment(&page.Items[i], width, t))
		}
		return nil
	},
}

var commentsAddCmd = &cobra.Command{
	Use:     "add <gift|list|occasion|person> <id> <text...>",
	Aliases: []string{"create"},
	Short:   "Comment on an entity",
	Long: `Comment on an entity. The text is rendered as markdown.

Pass - as the text to read it from stdin, or @path to read it from a file.`,
	Example: `  giftwell comments add gift 12 "Get the **blue** one"
  giftwell comments add occasion 3 @notes.md`,
	Args:    cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		entityType, id, err := parseCommentTarget(args[0], args[1])
		if err != nil {
			return fail(cmd, err)
		}
		body, err := newInput(cmd).Args(args[2:])
		if err != nil {
			return fail(cmd, usagef("%v", err))
		}
		if body == "" {
			return fail(cmd, usagef("comment text is required"))
		}
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		c, err := a.Entity.Comments.Create(cmd.Context(), models.CommentInput{
			EntityType: entityType,
			EntityID:   id,
			Body:       body,
		})
		if err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(c)
		}
		output.Success("Comment #%d added to %s #%d", c.ID, entityType, id)
		return nil
	},
}

var commentsEditCmd = &cobra.Command{
	Use:   "edit <gift|list|occasion|person> <id> <comment-id> <text...>",
	Short: "Replace the text of a comment",
	Args:  cobra.MinimumNArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		cm, err := commentRef(args)
		if err != nil {
			return fail(cmd, err)
		}
		body, err := newInput(cmd).Args(args[3:])
		if err != nil {
			return fail(cmd, usagef("%v", err))
		}
		if body == "" {
			return fail(cmd, usagef("comment text is required"))
		}
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		c, err := a.Entity.Comments.Update(cmd.Context(), cm, body)
		if err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(c)
		}
		output.Success("Comment #%d updated", c.ID)
		return nil
	},
}

var commentsDeleteCmd = &cobra.Command{
	Use:     "delete <gift|list|occasion|person> <id> <comment-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a comment",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cm, err := commentRef(args)
		if err != nil {
			return fail(cmd, err)
		}
		a, err := openApp(cmd)
		if err != nil {
			return fail(cmd, err)
		}
		defer a.Close()

		if err := a.Entity.Comments.Delete(cmd.Context(), cm); err != nil {
			return fail(cmd, err)
		}
		if jsonOutput(cmd) {
			return output.JSON(map[string]any{"deleted": cm.ID})
		}
		output.Success("Deleted comment #%d", cm.ID)
		return nil
	},
}

func parseCommentTarget(kind, idArg string) (models.CommentEntity, int64, error) {
	var entityType models.CommentEntity
	switch strings.ToLower(kind) {
	case "gift", "gifts":
		entityType = models.CommentOnGift
	case "list", "lists":
		entityType = models.CommentOnList
	case "occasion", "occasions":
		entityType = models.CommentOnOccasion
	case "person", "persons", "people":
		entityType = models.CommentOnPerson
	default:
		msg := fmt.Sprintf("cannot comment on %q (use gift, list, occasion or person)", kind)
		if dym := suggest.DidYouMean(kind, []string{"gift", "list", "occasion", "person"}); dym != "" {
			msg += ", " + dym
		}
		return "", 0, usageError{msg: msg}
	}
	id, err := parseID(idArg, string(entityType))
	if err != nil {
		return "", 0, err
	}
	return entityType, id, nil
}

// commentRef identifies an existing comment from <type> <id> <comment-id>
func commentRef(args []string) (models.Comment, error) {
	entityType, entityID, err := parseCommentTarget(args[0], args[1])
	if err != nil {
		return models.Comment{}, err
	}
	id, err := parseID(args[2], "comment")
	if err != nil {
		return models.Comment{}, err
	}
	return models.Comment{ID: id, EntityType: entityType, EntityID: entityID}, nil
}

// printComments prints the comments section for an entity. Nothing is
// printed when there are none.
func printComments(ctx context.Context, ent *entity.Client, entityType models.CommentEntity, id int64) {
	page, err := ent.Comments.List(ctx, entityType, id)
	if err != nil {
		fmt.Print(output.SectionHeader("comments"))
		output.Error("%s", output.FetchError("comments", err))
		return
	}
	if len(page.Items) == 0 {
		return
	}
	fmt.Print(output.SectionHeader(fmt.Sprintf("comments (%d)", len(page.Items))))
	width, t := output.TerminalWidth(80)-4, displayTheme()
	for i := range page.Items {
		fmt.Println(output.FormatComment(&page.Items[i], width, t))
	}
}

func init() {
	commentsCmd.AddCommand(commentsListCmd, commentsAddCmd, commentsEditCmd, commentsDeleteCmd)
	rootCmd.AddCommand(commentsCmd)
}
