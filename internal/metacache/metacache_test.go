package metacache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jiraq/internal/issue"
	"github.com/roach88/jiraq/internal/jql"
	"github.com/roach88/jiraq/internal/testutil"
)

func newTracker() *testutil.FakeTracker {
	return &testutil.FakeTracker{
		IssueTypeList: []issue.IssueType{{ID: "1", Name: "Bug"}, {ID: "2", Name: "Story"}},
		PriorityList:  []issue.Priority{{ID: "3", Name: "Major"}},
		StatusList:    []issue.Status{{ID: "10", Name: "Open"}},
		FieldList: []issue.CustomFieldDef{
			{ID: "summary", Name: "Summary"},
			{ID: "customfield_10010", Name: "Story Points", Custom: true},
		},
	}
}

func newCache(t *testing.T, loader Loader, opts ...Option) *Cache {
	t.Helper()
	c, err := New(loader, opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestCache_LoadsOncePerKind(t *testing.T) {
	tracker := newTracker()
	c := newCache(t, tracker)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		types, err := c.IssueTypes(ctx)
		require.NoError(t, err)
		assert.Len(t, types, 2)
	}
	prios, err := c.Priorities(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Major", prios[0].Name)
	statuses, err := c.Statuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Open", statuses[0].Name)

	assert.Equal(t, 1, tracker.MetadataLoads("issuetypes"))
	assert.Equal(t, 1, tracker.MetadataLoads("priorities"))
	assert.Equal(t, 1, tracker.MetadataLoads("statuses"))
}

func TestCache_ConcurrentMissesShareOneLoad(t *testing.T) {
	tracker := newTracker()
	c := newCache(t, tracker)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Statuses(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, tracker.MetadataLoads("statuses"))
}

func TestCache_Invalidate(t *testing.T) {
	tracker := newTracker()
	c := newCache(t, tracker, WithTTL(0))
	ctx := context.Background()

	_, err := c.IssueTypes(ctx)
	require.NoError(t, err)
	_, err = c.Priorities(ctx)
	require.NoError(t, err)

	c.Invalidate(KindIssueTypes)
	_, err = c.IssueTypes(ctx)
	require.NoError(t, err)
	_, err = c.Priorities(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, tracker.MetadataLoads("issuetypes"))
	assert.Equal(t, 1, tracker.MetadataLoads("priorities"))

	c.InvalidateAll()
	_, err = c.Priorities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, tracker.MetadataLoads("priorities"))
}

func TestCache_LoadErrorIsNotCached(t *testing.T) {
	tracker := newTracker()
	tracker.MetadataErr = errors.New("unavailable")
	c := newCache(t, tracker)
	ctx := context.Background()

	_, err := c.Statuses(ctx)
	assert.ErrorIs(t, err, tracker.MetadataErr)

	tracker.MetadataErr = nil
	statuses, err := c.Statuses(ctx)
	require.NoError(t, err)
	assert.Len(t, statuses, 1)
	assert.Equal(t, 2, tracker.MetadataLoads("statuses"))
}

func TestCache_CustomFields(t *testing.T) {
	tracker := newTracker()
	c := newCache(t, tracker)
	ctx := context.Background()

	custom, err := c.CustomFields(ctx)
	require.NoError(t, err)
	require.Len(t, custom, 1)
	assert.Equal(t, "Story Points", custom[0].Name)

	id, err := c.CustomFieldID(ctx, "story points")
	require.NoError(t, err)
	assert.Equal(t, "customfield_10010", id)
	assert.Equal(t, 1, tracker.MetadataLoads("fields"))
}

func TestCache_CustomFieldIDRefreshesOnMiss(t *testing.T) {
	tracker := newTracker()
	c := newCache(t, tracker)
	ctx := context.Background()

	_, err := c.CustomFields(ctx)
	require.NoError(t, err)

	tracker.AddField(issue.CustomFieldDef{ID: "customfield_10200", Name: "Team", Custom: true})
	id, err := c.CustomFieldID(ctx, "Team")
	require.NoError(t, err)
	assert.Equal(t, "customfield_10200", id)
	assert.Equal(t, 2, tracker.MetadataLoads("fields"))

	_, err = c.CustomFieldID(ctx, "Nope")
	assert.ErrorIs(t, err, ErrUnknownCustomField)
}

func TestCache_CustomFieldTable(t *testing.T) {
	c := newCache(t, newTracker())

	table, err := c.CustomFieldTable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, jql.FieldMeta{RemoteName: "cf[10010]", Contains: true}, table.Resolve("Story Points"))
	assert.Equal(t, 1, table.Len())
}
