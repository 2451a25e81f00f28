package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/jiraq/internal/jql"
	"github.com/roach88/jiraq/internal/querydoc"
)

// errDocumentNotFound is returned when --name matches no document.
var errDocumentNotFound = errors.New("query document not found")

// TranslateOptions holds flags for the translate command.
type TranslateOptions struct {
	*RootOptions
	Name string // only translate the document with this name
}

// TranslatedQuery is one translated document in command output.
type TranslatedQuery struct {
	Name string `json:"name"`
	JQL  string `json:"jql"`
	jql.Translation
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranslateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "translate <query-file>",
		Short: "Render query documents as JQL",
		Long: `Translate every query document in a file into JQL.

The file may be YAML (several documents separated by ---), JSON (one
object or an array) or CUE (a "query" or "queries" field). Nothing is
sent to the server.

Exit codes:
  0 - All documents translated
  1 - A document cannot be expressed in JQL
  2 - Command error (unreadable file, unknown --name, etc.)

Examples:
  jiraq translate ./queries/open-bugs.yaml
  jiraq translate ./queries.cue --name stale
  jiraq translate ./queries.yaml --fields ./fields.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "translate only the named document")

	return cmd
}

func runTranslate(opts *TranslateOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	docs, err := loadDocuments(path, opts.Name)
	if err != nil {
		return failLoad(out, err)
	}
	table, err := opts.fieldTable()
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeLoad, "failed to load field table", err)
	}
	translator := opts.translator(table)

	results := make([]TranslatedQuery, 0, len(docs))
	for _, doc := range docs {
		t, err := translateDocument(translator, doc)
		if err != nil {
			return out.Fail(ExitFailure, ErrCodeTranslate, fmt.Sprintf("cannot translate %s", displayName(doc)), err)
		}
		out.VerboseLog("translated %s", displayName(doc))
		results = append(results, TranslatedQuery{Name: doc.Name, JQL: t.JQL(), Translation: t})
	}

	if opts.Format == "json" {
		return out.Success(results)
	}

	w := cmd.OutOrStdout()
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if r.Name != "" {
			fmt.Fprintln(w, r.Name)
		}
		fmt.Fprintf(w, "  jql:   %s\n", r.JQL)
		if r.HasLimit() {
			fmt.Fprintf(w, "  limit: %d\n", r.Limit)
		}
	}
	return nil
}

// loadDocuments reads the query documents in path, keeping only the one
// called name when name is set.
func loadDocuments(path, name string) ([]*querydoc.Document, error) {
	docs, err := querydoc.Load(path)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return docs, nil
	}
	for _, d := range docs {
		if d.Name == name {
			return []*querydoc.Document{d}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q in %s", errDocumentNotFound, name, path)
}

// loadDocument is loadDocuments for commands that need exactly one query.
func loadDocument(path, name string) (*querydoc.Document, error) {
	docs, err := loadDocuments(path, name)
	if err != nil {
		return nil, err
	}
	if len(docs) > 1 {
		names := make([]string, len(docs))
		for i, d := range docs {
			names[i] = d.Name
		}
		return nil, fmt.Errorf("%s holds %d queries (%s); pick one with --name", path, len(docs), strings.Join(names, ", "))
	}
	return docs[0], nil
}

func translateDocument(translator *jql.Translator, doc *querydoc.Document) (jql.Translation, error) {
	node, err := doc.Lower()
	if err != nil {
		return jql.Translation{}, err
	}
	return translator.Translate(node)
}

func failLoad(out *OutputFormatter, err error) error {
	if errors.Is(err, errDocumentNotFound) {
		return out.Fail(ExitCommandError, ErrCodeNotFound, "query document not found", err)
	}
	return out.Fail(ExitCommandError, ErrCodeLoad, "failed to load query documents", err)
}

func displayName(doc *querydoc.Document) string {
	if doc.Name == "" {
		return "query"
	}
	return doc.Name
}
