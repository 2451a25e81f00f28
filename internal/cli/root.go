package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/jiraq/internal/executor"
	"github.com/roach88/jiraq/internal/issue"
	"github.com/roach88/jiraq/internal/jql"
	"github.com/roach88/jiraq/internal/metacache"
	"github.com/roach88/jiraq/internal/querydoc"
	"github.com/roach88/jiraq/internal/remote"
	"github.com/roach88/jiraq/internal/store"
)

// Environment variables consulted when the matching flag is not set.
const (
	EnvServer   = "JIRAQ_SERVER"
	EnvUser     = "JIRAQ_USER"
	EnvToken    = "JIRAQ_TOKEN"
	EnvDatabase = "JIRAQ_DB"
)

// DefaultDatabase is the saved-filter store used when neither --db nor
// JIRAQ_DB is set.
const DefaultDatabase = "jiraq.db"

// Backend is the remote service the search and fields commands talk to.
// *remote.Client implements it.
type Backend interface {
	executor.Searcher
	metacache.Loader
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	Server string
	User   string
	Token  string

	FieldsFile     string
	LegacyOrdering bool
	Database       string
	PageSize       int

	// Logger is set up before any subcommand runs.
	Logger *slog.Logger

	// Backend replaces the HTTP client built from Server, User and Token.
	Backend Backend
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the jiraq CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jiraq",
		Short: "jiraq - typed queries for JQL",
		Long: `Translate query documents into JQL and run them against an issue tracker.

Query documents are YAML, JSON or CUE files describing a filter, an
ordering and a result limit. jiraq renders them as JQL, pages through the
results, and keeps named translations as saved filters.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			opts.Server = orEnv(opts.Server, EnvServer)
			opts.User = orEnv(opts.User, EnvUser)
			opts.Token = orEnv(opts.Token, EnvToken)
			opts.Database = orEnv(opts.Database, EnvDatabase)
			if opts.Database == "" {
				opts.Database = DefaultDatabase
			}
			if opts.Logger == nil {
				opts.Logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			}
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.Server, "server", "", "server base URL (env "+EnvServer+")")
	flags.StringVar(&opts.User, "user", "", "user name for basic auth (env "+EnvUser+")")
	flags.StringVar(&opts.Token, "token", "", "API token for basic auth (env "+EnvToken+")")
	flags.StringVar(&opts.FieldsFile, "fields", "", "field table (.yaml, .json or .cue) merged over the issue defaults")
	flags.BoolVar(&opts.LegacyOrdering, "legacy-ordering", false, "insert secondary order keys ahead of earlier keys")
	flags.StringVar(&opts.Database, "db", "", "saved-filter database (env "+EnvDatabase+", default "+DefaultDatabase+")")
	flags.IntVar(&opts.PageSize, "page-size", executor.DefaultPageSize, "results requested per page")

	cmd.AddCommand(NewTranslateCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewFieldsCommand(opts))
	cmd.AddCommand(NewFilterCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func orEnv(value, key string) string {
	if value != "" {
		return value
	}
	return os.Getenv(key)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// fieldTable returns the issue defaults with the --fields file merged over
// them.
func (o *RootOptions) fieldTable() (*jql.FieldTable, error) {
	table := issue.DefaultFields()
	if o.FieldsFile == "" {
		return table, nil
	}
	extra, err := querydoc.LoadFields(o.FieldsFile)
	if err != nil {
		return nil, err
	}
	return table.Merge(extra), nil
}

func (o *RootOptions) translator(table *jql.FieldTable) *jql.Translator {
	var opts []jql.Option
	if o.LegacyOrdering {
		opts = append(opts, jql.WithLegacySecondaryOrdering())
	}
	return jql.NewTranslator(table, opts...)
}

// backend returns the injected Backend or an HTTP client for --server.
func (o *RootOptions) backend() (Backend, error) {
	if o.Backend != nil {
		return o.Backend, nil
	}
	if o.Server == "" {
		return nil, fmt.Errorf("no server configured: set --server or %s", EnvServer)
	}

	opts := []remote.Option{remote.WithLogger(o.logger())}
	if o.User != "" || o.Token != "" {
		opts = append(opts, remote.WithBasicAuth(o.User, o.Token))
	}
	client, err := remote.NewClient(o.Server, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// metadata builds a metadata cache over b.
func (o *RootOptions) metadata(b Backend) (*metacache.Cache, error) {
	return metacache.New(b, metacache.WithLogger(o.logger()))
}

func (o *RootOptions) openStore() (*store.Store, error) {
	return store.Open(o.Database)
}
