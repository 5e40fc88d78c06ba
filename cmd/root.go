package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/marcus/giftwell/internal/apiclient"
	"github.com/marcus/giftwell/internal/app"
	"github.com/marcus/giftwell/internal/input"
	"github.com/marcus/giftwell/internal/models"
	"github.com/marcus/giftwell/internal/output"
	"github.com/marcus/giftwell/internal/suggest"
)

var versionStr string

// SetVersion sets the version string
func SetVersion(v string) {
	versionStr = v
	rootCmd.Version = v
}

var rootCmd = &cobra.Command{
	Use:   "giftwell",
	Short: "Family gift coordination from the terminal",
	Long: `giftwell - plan, buy and track gifts for the people in your family.

Lists, occasions, budgets and comments stay in sync with everyone else in the
family through a live connection to the giftwell server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	ctx, stop := signalContext(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		// Flag and argument errors never reach fail.
		var r reportedError
		if !errors.As(err, &r) {
			if asJSON, _ := rootCmd.PersistentFlags().GetBool("json"); asJSON {
				output.JSONError(output.ErrCodeInvalidInput, err.Error())
			} else {
				output.Error("%v", err)
			}
		}
		os.Exit(1)
	}
}

// flagError adds a suggestion to unknown flag errors.
func flagError(c *cobra.Command, err error) error {
	name, ok := strings.CutPrefix(err.Error(), "unknown flag: ")
	if !ok {
		return usageError{msg: err.Error()}
	}
	if hint := suggest.FlagHint(name); hint != "" {
		return usagef("%v (try %s)", err, hint)
	}
	var valid []string
	collect := func(f *pflag.Flag) { valid = append(valid, "--"+f.Name) }
	c.LocalFlags().VisitAll(collect)
	c.InheritedFlags().VisitAll(collect)
	if dym := suggest.DidYouMean(name, valid); dym != "" {
		return usagef("%v, %s", err, dym)
	}
	return usageError{msg: err.Error()}
}

// nameWithAliases returns "name, alias1, alias2" if aliases exist, else just "name"
func nameWithAliases(cmd *cobra.Command) string {
	if len(cmd.Aliases) > 0 {
		return cmd.Name() + ", " + strings.Join(cmd.Aliases, ", ")
	}
	return cmd.Name()
}

func init() {
	cobra.AddTemplateFunc("nameWithAliases", nameWithAliases)
	cobra.AddTemplateFunc("add", func(a, b int) int { return a + b })

	// Custom usage template that shows aliases inline
	usageTemplate := `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

Available Commands:{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

{{.Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{end}}{{if not .AllChildCommandsHaveGroup}}

Additional Commands:{{range $cmds}}{{if (and (eq .GroupID "") (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad (nameWithAliases .) (add .NamePadding 8)}} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
	rootCmd.SetUsageTemplate(usageTemplate)
	rootCmd.SetFlagErrorFunc(flagError)

	rootCmd.AddGroup(
		&cobra.Group{ID: "people", Title: "People Commands:"},
		&cobra.Group{ID: "gifts", Title: "Gift Commands:"},
		&cobra.Group{ID: "views", Title: "Live Views:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)
	rootCmd.SetHelpCommandGroupID("system")
	rootCmd.SetCompletionCommandGroupID("system")

	rootCmd.PersistentFlags().Bool("json", false, "Output JSON")
	rootCmd.PersistentFlags().String("config", "", "Config directory (default searches ./ and $HOME/.config/giftwell)")
	rootCmd.PersistentFlags().Bool("offline", false, "Skip the realtime connection")
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

// openApp assembles the client for a one-shot command. The caller closes it.
func openApp(cmd *cobra.Command) (*app.App, error) {
	return newApp(cmd, app.Options{Offline: true})
}

func newApp(cmd *cobra.Command, opts app.Options) (*app.App, error) {
	configPath, _ := cmd.Flags().GetString("config")
	offline, _ := cmd.Flags().GetBool("offline")
	opts.ConfigPath = configPath
	opts.Version = versionStr
	opts.Offline = opts.Offline || offline
	a, err := app.New(opts)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return a, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// usageError is a problem with the command line rather than the server.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// reportedError marks an error fail has already shown.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// fail reports err in the selected output mode and returns it for RunE.
func fail(cmd *cobra.Command, err error) error {
	if jsonOutput(cmd) {
		code := output.ErrorCode(err)
		var ue usageError
		if errors.As(err, &ue) {
			code = output.ErrCodeInvalidInput
		}
		output.JSONError(code, err.Error())
	} else {
		output.Error("%v", err)
	}
	return reportedError{err}
}

// newInput expands - and @file text values against the command's stdin.
func newInput(cmd *cobra.Command) *input.Reader {
	return &input.Reader{Stdin: cmd.InOrStdin()}
}

// parseID parses a numeric entity id argument.
func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("invalid %s id %q", what, arg)
	}
	return id, nil
}

// parseIDs parses a comma-separated id list; empty input yields nil.
func parseIDs(s, what string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		id, err := parseID(strings.TrimSpace(part), what)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// splitTags splits a comma-separated flag value, dropping empty entries.
func splitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// optionalFloat returns a pointer to the flag value when it was set.
func optionalFloat(cmd *cobra.Command, name string) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetFloat64(name)
	return &v
}

// optionalID returns a pointer to the id flag value when it was set.
func optionalID(cmd *cobra.Command, name string) *int64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetInt64(name)
	return &v
}

// printNextPage tells the user how to fetch the following page.
func printNextPage(cmd *cobra.Command, next string, hasMore bool) {
	if !hasMore || next == "" {
		return
	}
	fmt.Printf("\nMore results: %s --cursor %s\n", cmd.CommandPath(), next)
}

func addPageFlags(cmd *cobra.Command, defaultLimit int) {
	cmd.Flags().Int("limit", defaultLimit, "Maximum results per page")
	cmd.Flags().String("cursor", "", "Cursor from a previous page")
	cmd.Flags().Bool("all", false, "Fetch every page")
}

// fetchPage fetches one page, or every page with --all.
func fetchPage[T any](ctx context.Context, cmd *cobra.Command, fetch func(ctx context.Context, p models.PageParams) (*models.Page[T], error)) (*models.Page[T], error) {
	limit, _ := cmd.Flags().GetInt("limit")
	cursor, _ := cmd.Flags().GetString("cursor")
	all, _ := cmd.Flags().GetBool("all")

	if !all {
		return fetch(ctx, models.PageParams{Cursor: cursor, Limit: limit})
	}
	items, err := apiclient.ListAll(ctx, func(ctx context.Context, c string) (*models.Page[T], error) {
		if c == "" {
			c = cursor
		}
		return fetch(ctx, models.PageParams{Cursor: c, Limit: limit})
	})
	if err != nil {
		return nil, err
	}
	return &models.Page[T]{Items: items}, nil
}

// printPage writes a page as JSON or one formatted line per item.
func printPage[T any](cmd *cobra.Command, page *models.Page[T], format func(*T) string, empty string) error {
	if jsonOutput(cmd) {
		return output.JSON(page)
	}
	if len(page.Items) == 0 {
		fmt.Println(empty)
		return nil
	}
	for i := range page.Items {
		fmt.Println(format(&page.Items[i]))
	}
	printNextPage(cmd, page.NextCursor, page.HasMore)
	return nil
}

// printOne writes a single entity as JSON or with format.
func printOne[T any](cmd *cobra.Command, v *T, format func(*T) string) error {
	if jsonOutput(cmd) {
		return output.JSON(v)
	}
	fmt.Println(format(v))
	return nil
}
