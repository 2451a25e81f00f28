// Package metacache caches server-side metadata (issue types, priorities,
// statuses and field definitions) behind an explicit cache object.
//
// A Cache is owned by whoever builds the executor and is passed by
// reference to the components that need it. Entries expire after a TTL
// and can be dropped per kind with Invalidate.
package metacache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Yiling-J/theine-go"
	"golang.org/x/sync/singleflight"

	"github.com/roach88/jiraq/internal/issue"
	"github.com/roach88/jiraq/internal/jql"
)

// Kind identifies one kind of cached metadata.
type Kind string

const (
	KindIssueTypes Kind = "issuetypes"
	KindPriorities Kind = "priorities"
	KindStatuses   Kind = "statuses"
	KindFields     Kind = "fields"
)

// Kinds lists every cached kind.
var Kinds = []Kind{KindIssueTypes, KindPriorities, KindStatuses, KindFields}

// ErrUnknownCustomField is returned by CustomFieldID when no custom field
// has the requested name, even after a refresh.
var ErrUnknownCustomField = errors.New("unknown custom field")

// DefaultTTL is how long metadata stays cached unless WithTTL is used.
const DefaultTTL = 10 * time.Minute

// Loader fetches metadata from the server.
type Loader interface {
	IssueTypes(ctx context.Context) ([]issue.IssueType, error)
	Priorities(ctx context.Context) ([]issue.Priority, error)
	Statuses(ctx context.Context) ([]issue.Status, error)
	Fields(ctx context.Context) ([]issue.CustomFieldDef, error)
}

// Cache is a metadata cache backed by a Loader. It is safe for concurrent
// use; concurrent misses for the same kind share one load.
type Cache struct {
	loader Loader
	store  *theine.Cache[Kind, any]
	group  singleflight.Group
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the entry lifetime. A non-positive ttl keeps entries until
// they are invalidated.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithLogger sets the logger used for load events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// New creates a Cache that loads through loader.
func New(loader Loader, opts ...Option) (*Cache, error) {
	store, err := theine.NewBuilder[Kind, any](int64(len(Kinds)) * 4).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata cache: %w", err)
	}

	c := &Cache{
		loader: loader,
		store:  store,
		ttl:    DefaultTTL,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// IssueTypes returns the server's issue types.
func (c *Cache) IssueTypes(ctx context.Context) ([]issue.IssueType, error) {
	return load(ctx, c, KindIssueTypes, c.loader.IssueTypes)
}

// Priorities returns the server's priorities.
func (c *Cache) Priorities(ctx context.Context) ([]issue.Priority, error) {
	return load(ctx, c, KindPriorities, c.loader.Priorities)
}

// Statuses returns the server's workflow statuses.
func (c *Cache) Statuses(ctx context.Context) ([]issue.Status, error) {
	return load(ctx, c, KindStatuses, c.loader.Statuses)
}

// Fields returns every field definition, system and custom.
func (c *Cache) Fields(ctx context.Context) ([]issue.CustomFieldDef, error) {
	return load(ctx, c, KindFields, c.loader.Fields)
}

// CustomFields returns the custom field definitions only.
func (c *Cache) CustomFields(ctx context.Context) ([]issue.CustomFieldDef, error) {
	all, err := c.Fields(ctx)
	if err != nil {
		return nil, err
	}
	var custom []issue.CustomFieldDef
	for _, f := range all {
		if f.Custom {
			custom = append(custom, f)
		}
	}
	return custom, nil
}

// CustomFieldID returns the id of the custom field called name, matching
// case-insensitively. On a miss the field list is reloaded once, since the
// field may have been created after the cache was filled.
func (c *Cache) CustomFieldID(ctx context.Context, name string) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			c.Invalidate(KindFields)
		}
		custom, err := c.CustomFields(ctx)
		if err != nil {
			return "", err
		}
		for _, f := range custom {
			if strings.EqualFold(f.Name, name) {
				return f.ID, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCustomField, name)
}

// CustomFieldTable registers every custom field under its display name,
// mapped to the cf[NNNNN] form and compared with contains semantics.
func (c *Cache) CustomFieldTable(ctx context.Context) (*jql.FieldTable, error) {
	custom, err := c.CustomFields(ctx)
	if err != nil {
		return nil, err
	}
	table := jql.NewFieldTable()
	for _, f := range custom {
		table.Register(f.Name, jql.FieldMeta{RemoteName: remoteID(f.ID), Contains: true})
	}
	return table, nil
}

// remoteID turns "customfield_10010" into "cf[10010]".
func remoteID(id string) string {
	if n, ok := strings.CutPrefix(id, "customfield_"); ok {
		return "cf[" + n + "]"
	}
	return id
}

// Invalidate drops the cached entry for kind.
func (c *Cache) Invalidate(kind Kind) {
	c.store.Delete(kind)
	c.logger.Debug("metadata invalidated", "kind", kind)
}

// InvalidateAll drops every cached entry.
func (c *Cache) InvalidateAll() {
	for _, k := range Kinds {
		c.Invalidate(k)
	}
}

// Close releases the cache's resources.
func (c *Cache) Close() {
	c.store.Close()
}

func load[T any](ctx context.Context, c *Cache, kind Kind, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if v, ok := c.store.Get(kind); ok {
		return v.([]T), nil
	}

	v, err, shared := c.group.Do(string(kind), func() (any, error) {
		// Another caller may have filled the entry while we waited.
		if v, ok := c.store.Get(kind); ok {
			return v, nil
		}

		start := time.Now()
		items, err := fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", kind, err)
		}
		if c.ttl > 0 {
			c.store.SetWithTTL(kind, items, 1, c.ttl)
		} else {
			c.store.Set(kind, items, 1)
		}
		c.logger.Debug("metadata loaded",
			"kind", kind,
			"count", len(items),
			"duration", time.Since(start),
		)
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("metadata load shared", "kind", kind)
	}
	return v.([]T), nil
}
