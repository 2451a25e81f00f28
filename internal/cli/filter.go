package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/jiraq/internal/executor"
	"github.com/roach88/jiraq/internal/store"
)

// FilterSaveOptions holds flags for filter save.
type FilterSaveOptions struct {
	*RootOptions
	Doc         string // document to save when the file holds several
	Description string // overrides the document's description
}

// NewFilterCommand creates the filter command group.
func NewFilterCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Manage saved filters",
		Long: `Save translated queries under a name and run them later.

Saved filters live in a local SQLite database (--db). A filter keeps the
JQL it was translated to, so later changes to field tables do not affect
it; save it again to pick them up.`,
	}

	cmd.AddCommand(newFilterSaveCommand(rootOpts))
	cmd.AddCommand(newFilterListCommand(rootOpts))
	cmd.AddCommand(newFilterShowCommand(rootOpts))
	cmd.AddCommand(newFilterDeleteCommand(rootOpts))
	cmd.AddCommand(newFilterRunCommand(rootOpts))

	return cmd
}

func newFilterSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FilterSaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save <name> <query-file>",
		Short: "Translate a query document and save it",
		Long: `Translate a query document and store the result under name.

Saving under an existing name replaces that filter's query.

Examples:
  jiraq filter save triage ./open-bugs.yaml
  jiraq filter save stale ./queries.cue --doc stale --description "untouched for 30 days"`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilterSave(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Doc, "doc", "", "document name within the file")
	cmd.Flags().StringVar(&opts.Description, "description", "", "filter description (default: the document's)")

	return cmd
}

func runFilterSave(opts *FilterSaveOptions, name, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := opts.formatter(cmd)

	doc, err := loadDocument(path, opts.Doc)
	if err != nil {
		return failLoad(out, err)
	}
	table, err := opts.fieldTable()
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeLoad, "failed to load field table", err)
	}
	t, err := translateDocument(opts.translator(table), doc)
	if err != nil {
		return out.Fail(ExitFailure, ErrCodeTranslate, fmt.Sprintf("cannot translate %s", displayName(doc)), err)
	}

	st, err := opts.openStore()
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer closeStore(opts.RootOptions, st)

	description := opts.Description
	if description == "" {
		description = doc.Description
	}
	source := path
	if doc.Name != "" {
		source += "#" + doc.Name
	}

	f, err := st.SaveFilter(ctx, name, description, t, source)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeStore, "failed to save filter", err)
	}
	opts.logger().Info("filter saved", "name", f.Name, "id", f.ID)

	if opts.Format == "json" {
		return out.Success(f)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s: %s\n", f.Name, t.String())
	return nil
}

func newFilterListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List saved filters",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilterList(rootOpts, cmd)
		},
	}
}

func runFilterList(opts *RootOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer closeStore(opts, st)

	filters, err := st.ListFilters(cmd.Context())
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeStore, "failed to list filters", err)
	}

	if opts.Format == "json" {
		if filters == nil {
			filters = []store.Filter{}
		}
		return out.Success(filters)
	}

	w := cmd.OutOrStdout()
	if len(filters) == 0 {
		fmt.Fprintln(w, "No saved filters.")
		return nil
	}
	now := time.Now()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tUPDATED\tJQL")
	for _, f := range filters {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Name, relative(f.UpdatedAt, now), f.Translation().String())
	}
	return tw.Flush()
}

func newFilterShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <name>",
		Short:         "Show a saved filter",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilterShow(rootOpts, args[0], cmd)
		},
	}
}

func runFilterShow(opts *RootOptions, name string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer closeStore(opts, st)

	f, err := st.GetFilter(cmd.Context(), name)
	if err != nil {
		return failStore(out, "failed to load filter", err)
	}

	if opts.Format == "json" {
		return out.Success(f)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "name:        %s\n", f.Name)
	fmt.Fprintf(w, "id:          %s\n", f.ID)
	if f.Description != "" {
		fmt.Fprintf(w, "description: %s\n", f.Description)
	}
	fmt.Fprintf(w, "jql:         %s\n", f.Translation().JQL())
	if f.Limit > 0 {
		fmt.Fprintf(w, "limit:       %d\n", f.Limit)
	}
	if f.Source != "" {
		fmt.Fprintf(w, "source:      %s\n", f.Source)
	}
	fmt.Fprintf(w, "updated:     %s\n", humanize.Time(f.UpdatedAt))
	return nil
}

func newFilterDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <name>",
		Short:         "Delete a saved filter",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilterDelete(rootOpts, args[0], cmd)
		},
	}
}

func runFilterDelete(opts *RootOptions, name string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer closeStore(opts, st)

	if err := st.DeleteFilter(cmd.Context(), name); err != nil {
		return failStore(out, "failed to delete filter", err)
	}

	if opts.Format == "json" {
		return out.Success(map[string]string{"deleted": name})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
	return nil
}

func newFilterRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <name>",
		Short: "Run a saved filter against the server",
		Long: `Run the JQL stored in a saved filter, honoring its limit.

Example:
  jiraq filter run triage --server https://issues.example.com`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFilterRun(rootOpts, args[0], cmd)
		},
	}
}

func runFilterRun(opts *RootOptions, name string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer closeStore(opts, st)

	f, err := st.GetFilter(ctx, name)
	if err != nil {
		return failStore(out, "failed to load filter", err)
	}

	backend, err := opts.backend()
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeConfig, "cannot connect", err)
	}

	// The stored JQL is already translated; the translator is unused.
	exec := executor.New(backend, nil,
		executor.WithPageSize(opts.PageSize),
		executor.WithLogger(opts.logger()),
	)
	return runIssues(ctx, exec, f.Translation(), opts.Format, out, cmd.OutOrStdout())
}

func failStore(out *OutputFormatter, message string, err error) error {
	if errors.Is(err, store.ErrFilterNotFound) {
		return out.Fail(ExitCommandError, ErrCodeNotFound, "filter not found", err)
	}
	return out.Fail(ExitCommandError, ErrCodeStore, message, err)
}

func closeStore(opts *RootOptions, st *store.Store) {
	if err := st.Close(); err != nil {
		opts.logger().Error("error closing database", "error", err)
	}
}
