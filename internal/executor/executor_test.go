package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jiraq/internal/jql"
	"github.com/roach88/jiraq/internal/metacache"
	q "github.com/roach88/jiraq/internal/queryir"
	"github.com/roach88/jiraq/internal/remote"
	"github.com/roach88/jiraq/internal/testutil"
)

func pageSizes(tracker *testutil.FakeTracker) []int {
	var sizes []int
	for _, r := range tracker.Requests() {
		sizes = append(sizes, r.MaxResults)
	}
	return sizes
}

func TestRun_PagesUntilTotalWithoutLimit(t *testing.T) {
	tracker := &testutil.FakeTracker{Issues: testutil.NewIssues(12)}
	exec := New(tracker, jql.NewTranslator(nil), WithPageSize(5))

	got, err := exec.Run(context.Background(), q.Issues().Where(q.Field("Status").Eq("Open")).Build())
	require.NoError(t, err)
	require.Len(t, got, 12)
	assert.Equal(t, "DEMO-12", got[11].Key)

	reqs := tracker.Requests()
	require.Len(t, reqs, 3)
	for i, r := range reqs {
		assert.Equal(t, `Status = "Open"`, r.JQL)
		assert.Equal(t, 5, r.MaxResults)
		assert.Equal(t, i*5, r.StartAt)
	}
}

func TestRun_LimitBoundsPageSize(t *testing.T) {
	tracker := &testutil.FakeTracker{Issues: testutil.NewIssues(100)}
	exec := New(tracker, jql.NewTranslator(nil), WithPageSize(10))

	got, err := exec.Run(context.Background(), q.Issues().OrderByDescending(q.Field("Created")).Take(23).Build())
	require.NoError(t, err)
	assert.Len(t, got, 23)
	assert.Equal(t, []int{10, 10, 3}, pageSizes(tracker))
	assert.Equal(t, "order by Created desc", tracker.Requests()[0].JQL)
}

func TestRun_LimitBelowPageSize(t *testing.T) {
	tracker := &testutil.FakeTracker{Issues: testutil.NewIssues(100)}
	exec := New(tracker, jql.NewTranslator(nil))

	got, err := exec.Run(context.Background(), q.Issues().Take(3).Build())
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, []int{3}, pageSizes(tracker))
}

func TestRun_DefaultPageSize(t *testing.T) {
	tracker := &testutil.FakeTracker{Issues: testutil.NewIssues(60)}
	exec := New(tracker, jql.NewTranslator(nil), WithPageSize(0))

	got, err := exec.Run(context.Background(), q.Issues().Build())
	require.NoError(t, err)
	assert.Len(t, got, 60)
	assert.Equal(t, []int{DefaultPageSize, DefaultPageSize}, pageSizes(tracker))
}

func TestRun_ServerCapsPages(t *testing.T) {
	tracker := &testutil.FakeTracker{Issues: testutil.NewIssues(7), PageCap: 3}
	exec := New(tracker, jql.NewTranslator(nil))

	got, err := exec.Run(context.Background(), q.Issues().Build())
	require.NoError(t, err)
	assert.Len(t, got, 7)
	assert.Len(t, tracker.Requests(), 3)
}

func TestRun_LimitAboveTotal(t *testing.T) {
	tracker := &testutil.FakeTracker{Issues: testutil.NewIssues(4)}
	exec := New(tracker, jql.NewTranslator(nil))

	got, err := exec.Run(context.Background(), q.Issues().Take(10).Build())
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Len(t, tracker.Requests(), 1)
}

func TestRun_TranslationErrorSkipsNetwork(t *testing.T) {
	tracker := &testutil.FakeTracker{Issues: testutil.NewIssues(4)}
	exec := New(tracker, jql.NewTranslator(nil))

	_, err := exec.Run(context.Background(), q.Negate(q.Field("a").Eq(1)))
	assert.True(t, jql.IsUnsupportedConstruct(err))
	assert.Empty(t, tracker.Requests())
}

func TestRun_FieldMetadataMissingInvalidatesCache(t *testing.T) {
	tracker := &testutil.FakeTracker{
		SearchErr: &remote.Error{StatusCode: 400, Messages: []string{"Field 'Team' does not exist or you do not have permission to view it."}},
	}
	cache, err := metacache.New(tracker)
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	_, err = cache.Fields(ctx)
	require.NoError(t, err)

	exec := New(tracker, jql.NewTranslator(nil), WithMetadataCache(cache))
	assert.Same(t, cache, exec.Cache())

	_, err = exec.Run(ctx, q.Field("Team").Eq("core"))
	assert.ErrorIs(t, err, ErrFieldMetadataMissing)
	assert.True(t, remote.IsFieldMetadataMissing(err))

	_, err = cache.Fields(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, tracker.MetadataLoads("fields"))
}

func TestRun_SearchError(t *testing.T) {
	boom := errors.New("connection reset")
	tracker := &testutil.FakeTracker{SearchErr: boom}
	exec := New(tracker, jql.NewTranslator(nil))

	_, err := exec.Run(context.Background(), q.Issues().Build())
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrFieldMetadataMissing)
}

func TestRunTranslation_RequestsFields(t *testing.T) {
	tracker := &testutil.FakeTracker{Issues: testutil.NewIssues(2)}
	exec := New(tracker, jql.NewTranslator(nil), WithFields("summary", "status"))

	_, err := exec.RunTranslation(context.Background(), jql.Translation{Query: `Votes > 1`, OrderBy: " order by Votes"})
	require.NoError(t, err)
	req := tracker.Requests()[0]
	assert.Equal(t, `Votes > 1 order by Votes`, req.JQL)
	assert.Equal(t, []string{"summary", "status"}, req.Fields)
}

func TestCount(t *testing.T) {
	tracker := &testutil.FakeTracker{Issues: testutil.NewIssues(42)}
	exec := New(tracker, jql.NewTranslator(nil))

	n, err := exec.Count(context.Background(), q.Issues().Build())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.Equal(t, 0, tracker.Requests()[0].MaxResults)
}
