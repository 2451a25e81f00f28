package cli

import (
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/jiraq/internal/metacache"
)

// FieldsOptions holds flags for the fields command.
type FieldsOptions struct {
	*RootOptions
	Kind  string // metadata kind to list
	Local bool   // list the local field table instead of server metadata
}

// FieldEntry is one row of the local field table listing.
type FieldEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Contains bool   `json:"contains"`
}

// MetadataEntry is one row of a server metadata listing.
type MetadataEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	JQL    string `json:"jql,omitempty"` // cf[N] form for custom fields
	Custom bool   `json:"custom,omitempty"`
}

// NewFieldsCommand creates the fields command.
func NewFieldsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FieldsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List field registrations or server metadata",
		Long: `List the field table used for translation, or metadata cached from the server.

With --local, prints the issue field table merged with --fields: the
remote name each property renders as and whether == uses contains (~).

Otherwise lists server metadata of the given --kind: fields (default),
issuetypes, priorities or statuses.

Examples:
  jiraq fields --local --fields ./fields.cue
  jiraq fields --kind priorities --server https://issues.example.com`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Local {
				return runLocalFields(opts, cmd)
			}
			return runMetadata(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", string(metacache.KindFields), "metadata kind (fields|issuetypes|priorities|statuses)")
	cmd.Flags().BoolVar(&opts.Local, "local", false, "list the local field table")

	return cmd
}

func runLocalFields(opts *FieldsOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	table, err := opts.fieldTable()
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeLoad, "failed to load field table", err)
	}

	entries := make([]FieldEntry, 0, table.Len())
	for _, id := range table.IDs() {
		meta := table.Resolve(id)
		entries = append(entries, FieldEntry{ID: id, Name: meta.RemoteName, Contains: meta.Contains})
	}

	if opts.Format == "json" {
		return out.Success(entries)
	}

	w := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tJQL NAME\tEQUALITY")
	for _, e := range entries {
		mode := "exact"
		if e.Contains {
			mode = "contains"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.ID, e.Name, mode)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s fields\n", humanize.Comma(int64(len(entries))))
	return nil
}

func runMetadata(opts *FieldsOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := opts.formatter(cmd)

	kind := metacache.Kind(opts.Kind)
	if !slices.Contains(metacache.Kinds, kind) {
		return out.Fail(ExitCommandError, ErrCodeConfig, fmt.Sprintf("unknown kind %q", opts.Kind), nil)
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

	var entries []MetadataEntry
	switch kind {
	case metacache.KindIssueTypes:
		types, err := cache.IssueTypes(ctx)
		if err != nil {
			return out.Fail(ExitFailure, ErrCodeRemote, "failed to load issue types", err)
		}
		for _, t := range types {
			entries = append(entries, MetadataEntry{ID: t.ID, Name: t.Name})
		}
	case metacache.KindPriorities:
		priorities, err := cache.Priorities(ctx)
		if err != nil {
			return out.Fail(ExitFailure, ErrCodeRemote, "failed to load priorities", err)
		}
		for _, p := range priorities {
			entries = append(entries, MetadataEntry{ID: p.ID, Name: p.Name})
		}
	case metacache.KindStatuses:
		statuses, err := cache.Statuses(ctx)
		if err != nil {
			return out.Fail(ExitFailure, ErrCodeRemote, "failed to load statuses", err)
		}
		for _, s := range statuses {
			entries = append(entries, MetadataEntry{ID: s.ID, Name: s.Name})
		}
	case metacache.KindFields:
		fields, err := cache.Fields(ctx)
		if err != nil {
			return out.Fail(ExitFailure, ErrCodeRemote, "failed to load fields", err)
		}
		custom, err := cache.CustomFieldTable(ctx)
		if err != nil {
			return out.Fail(ExitFailure, ErrCodeRemote, "failed to load custom fields", err)
		}
		for _, f := range fields {
			e := MetadataEntry{ID: f.ID, Name: f.Name, Custom: f.Custom}
			if f.Custom {
				e.JQL = custom.Resolve(f.Name).RemoteName
			}
			entries = append(entries, e)
		}
	}

	if opts.Format == "json" {
		return out.Success(entries)
	}

	w := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tJQL")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.ID, e.Name, orDash(e.JQL))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %s\n", humanize.Comma(int64(len(entries))), kind)
	return nil
}
