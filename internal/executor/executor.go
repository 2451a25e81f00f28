// Package executor runs translated queries against the remote search
// endpoint, paging until the result limit or the server's total is
// reached.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/jiraq/internal/issue"
	"github.com/roach88/jiraq/internal/jql"
	"github.com/roach88/jiraq/internal/metacache"
	"github.com/roach88/jiraq/internal/queryir"
	"github.com/roach88/jiraq/internal/remote"
)

// DefaultPageSize is the page size used when WithPageSize is not given.
const DefaultPageSize = 50

// ErrFieldMetadataMissing is returned when the server rejects a query
// because it names a field the server does not know.
var ErrFieldMetadataMissing = errors.New("field metadata missing")

// Searcher runs one page of a search.
type Searcher interface {
	Search(ctx context.Context, req remote.SearchRequest) (*remote.SearchResult, error)
}

// Executor translates queries and pages through their results.
type Executor struct {
	searcher   Searcher
	translator *jql.Translator
	pageSize   int
	fields     []string
	cache      *metacache.Cache
	logger     *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithPageSize sets the page size used when a query has no limit, and the
// upper bound of every page otherwise.
func WithPageSize(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.pageSize = n
		}
	}
}

// WithFields restricts the issue fields the server returns.
func WithFields(fields ...string) Option {
	return func(e *Executor) {
		e.fields = fields
	}
}

// WithMetadataCache attaches the metadata cache. The executor drops the
// cached field list when the server rejects an unknown field.
func WithMetadataCache(c *metacache.Cache) Option {
	return func(e *Executor) {
		e.cache = c
	}
}

// WithLogger sets the logger for paging events.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// New creates an Executor.
func New(searcher Searcher, translator *jql.Translator, opts ...Option) *Executor {
	e := &Executor{
		searcher:   searcher,
		translator: translator,
		pageSize:   DefaultPageSize,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cache returns the attached metadata cache, or nil.
func (e *Executor) Cache() *metacache.Cache {
	return e.cache
}

// Run translates node and returns every matching issue, up to the
// query's limit.
func (e *Executor) Run(ctx context.Context, node queryir.Node) ([]issue.Issue, error) {
	t, err := e.translator.Translate(node)
	if err != nil {
		return nil, err
	}
	return e.RunTranslation(ctx, t)
}

// RunTranslation pages through the results of an already translated query.
//
// Without a limit, pages of the configured page size are requested until
// the server's total is reached. With a limit, each page asks for at most
// the remaining count.
func (e *Executor) RunTranslation(ctx context.Context, t jql.Translation) ([]issue.Issue, error) {
	query := t.JQL()
	var out []issue.Issue

	for start := 0; ; {
		size := e.pageSize
		if t.HasLimit() && t.Limit-len(out) < size {
			size = t.Limit - len(out)
		}

		res, err := e.search(ctx, remote.SearchRequest{
			JQL:        query,
			StartAt:    start,
			MaxResults: size,
			Fields:     e.fields,
		})
		if err != nil {
			return nil, err
		}

		page := res.Issues
		if len(page) > size {
			page = page[:size]
		}
		out = append(out, page...)
		start += len(page)

		e.logger.Debug("search page",
			"start_at", res.StartAt,
			"received", len(page),
			"total", res.Total,
		)

		switch {
		case len(page) == 0:
			return out, nil
		case t.HasLimit() && len(out) >= t.Limit:
			return out, nil
		case start >= res.Total:
			return out, nil
		}
	}
}

// Count returns the server's total for node without fetching issues.
func (e *Executor) Count(ctx context.Context, node queryir.Node) (int, error) {
	t, err := e.translator.Translate(node)
	if err != nil {
		return 0, err
	}
	res, err := e.search(ctx, remote.SearchRequest{JQL: t.JQL(), MaxResults: 0})
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}

func (e *Executor) search(ctx context.Context, req remote.SearchRequest) (*remote.SearchResult, error) {
	res, err := e.searcher.Search(ctx, req)
	if err == nil {
		return res, nil
	}
	if remote.IsFieldMetadataMissing(err) {
		if e.cache != nil {
			e.cache.Invalidate(metacache.KindFields)
		}
		return nil, fmt.Errorf("%w: %w", ErrFieldMetadataMissing, err)
	}
	return nil, fmt.Errorf("search: %w", err)
}
