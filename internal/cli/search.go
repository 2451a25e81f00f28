package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/jiraq/internal/executor"
	"github.com/roach88/jiraq/internal/issue"
	"github.com/roach88/jiraq/internal/jql"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	Name          string // document to run when the file holds several
	Count         bool   // only report the server's total
	ResolveCustom bool   // map custom field names to cf[N] from server metadata
}

// SearchResult is the JSON payload of search and filter run.
type SearchResult struct {
	JQL    string        `json:"jql"`
	Limit  int           `json:"limit,omitempty"`
	Total  int           `json:"total"`
	Issues []issue.Issue `json:"issues,omitempty"`
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search <query-file>",
		Short: "Run a query document against the server",
		Long: `Translate a query document and page through its results.

Pages of --page-size issues are requested until the document's limit or
the server's total is reached.

With --resolve-custom, custom fields listed by the server can be used by
display name in field: clauses; they render as cf[N] with contains
semantics. Entries from --fields take precedence.

Examples:
  jiraq search ./open-bugs.yaml --server https://issues.example.com
  jiraq search ./queries.cue --name stale --count
  jiraq search ./team.yaml --resolve-custom --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "run the named document")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "print the number of matching issues only")
	cmd.Flags().BoolVar(&opts.ResolveCustom, "resolve-custom", false, "resolve custom field names through server metadata")

	return cmd
}

func runSearch(opts *SearchOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := opts.formatter(cmd)

	doc, err := loadDocument(path, opts.Name)
	if err != nil {
		return failLoad(out, err)
	}
	table, err := opts.fieldTable()
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeLoad, "failed to load field table", err)
	}

	backend, err := opts.backend()
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeConfig, "cannot connect", err)
	}
	cache, err := opts.metadata(backend)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeRemote, "failed to create metadata cache", err)
	}
	defer cache.Close()

	if opts.ResolveCustom {
		custom, err := cache.CustomFieldTable(ctx)
		if err != nil {
			return out.Fail(ExitFailure, ErrCodeRemote, "failed to load custom fields", err)
		}
		out.VerboseLog("resolved %d custom fields", custom.Len())
		table = custom.Merge(table)
	}

	translator := opts.translator(table)
	t, err := translateDocument(translator, doc)
	if err != nil {
		return out.Fail(ExitFailure, ErrCodeTranslate, fmt.Sprintf("cannot translate %s", displayName(doc)), err)
	}
	out.VerboseLog("jql: %s", t.JQL())

	exec := executor.New(backend, translator,
		executor.WithPageSize(opts.PageSize),
		executor.WithMetadataCache(cache),
		executor.WithLogger(opts.logger()),
	)

	if opts.Count {
		node, err := doc.Lower()
		if err != nil {
			return out.Fail(ExitFailure, ErrCodeTranslate, "cannot translate query", err)
		}
		total, err := exec.Count(ctx, node)
		if err != nil {
			return failRemote(out, err)
		}
		if opts.Format == "json" {
			return out.Success(SearchResult{JQL: t.JQL(), Total: total})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s issues\n", humanize.Comma(int64(total)))
		return nil
	}

	return runIssues(ctx, exec, t, opts.Format, out, cmd.OutOrStdout())
}

// runIssues pages through t and prints the issues.
func runIssues(ctx context.Context, exec *executor.Executor, t jql.Translation, format string, out *OutputFormatter, w io.Writer) error {
	issues, err := exec.RunTranslation(ctx, t)
	if err != nil {
		return failRemote(out, err)
	}

	if format == "json" {
		return out.Success(SearchResult{
			JQL:    t.JQL(),
			Limit:  t.Limit,
			Total:  len(issues),
			Issues: issues,
		})
	}
	return printIssues(w, issues, time.Now())
}

func failRemote(out *OutputFormatter, err error) error {
	if errors.Is(err, executor.ErrFieldMetadataMissing) {
		return out.Fail(ExitFailure, ErrCodeRemote, "server does not know a field in the query; check --fields or --resolve-custom", err)
	}
	return out.Fail(ExitFailure, ErrCodeRemote, "search failed", err)
}

// printIssues writes issues as an aligned table followed by a count.
func printIssues(w io.Writer, issues []issue.Issue, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSTATUS\tUPDATED\tSUMMARY")
	for _, is := range issues {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			is.Key,
			orDash(is.Fields.Status.Name),
			relative(is.Fields.Updated.Time, now),
			is.Fields.Summary,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s issues\n", humanize.Comma(int64(len(issues))))
	return err
}

func relative(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
