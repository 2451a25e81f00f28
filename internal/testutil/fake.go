package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/jiraq/internal/issue"
	"github.com/roach88/jiraq/internal/remote"
)

// FakeTracker is an in-memory stand-in for the remote issue tracker. It
// serves search pages out of Issues regardless of the JQL, and metadata
// from its lists, recording every call.
//
// Thread-safety: all methods are safe for concurrent use.
type FakeTracker struct {
	mu sync.Mutex

	Issues        []issue.Issue
	IssueTypeList []issue.IssueType
	PriorityList  []issue.Priority
	StatusList    []issue.Status
	FieldList     []issue.CustomFieldDef
	SearchErr     error
	MetadataErr   error
	PageCap       int // server-side cap on MaxResults; 0 = none
	requests      []remote.SearchRequest
	metadataLoads map[string]int
}

// NewIssues builds n issues keyed DEMO-1 through DEMO-n.
func NewIssues(n int) []issue.Issue {
	out := make([]issue.Issue, n)
	for i := range out {
		out[i] = issue.Issue{
			ID:     fmt.Sprintf("%d", 10000+i+1),
			Key:    fmt.Sprintf("DEMO-%d", i+1),
			Fields: issue.Fields{Summary: fmt.Sprintf("issue %d", i+1)},
		}
	}
	return out
}

// Search implements executor.Searcher.
func (f *FakeTracker) Search(ctx context.Context, req remote.SearchRequest) (*remote.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}

	size := req.MaxResults
	if f.PageCap > 0 && size > f.PageCap {
		size = f.PageCap
	}
	start := min(req.StartAt, len(f.Issues))
	end := min(start+size, len(f.Issues))

	return &remote.SearchResult{
		StartAt:    req.StartAt,
		MaxResults: size,
		Total:      len(f.Issues),
		Issues:     append([]issue.Issue(nil), f.Issues[start:end]...),
	}, nil
}

// Requests returns the search requests received so far.
func (f *FakeTracker) Requests() []remote.SearchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]remote.SearchRequest(nil), f.requests...)
}

// MetadataLoads returns how many times the metadata endpoint for kind
// ("issuetypes", "priorities", "statuses" or "fields") was called.
func (f *FakeTracker) MetadataLoads(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metadataLoads[kind]
}

func (f *FakeTracker) countLoad(kind string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.metadataLoads == nil {
		f.metadataLoads = make(map[string]int)
	}
	f.metadataLoads[kind]++
	return f.MetadataErr
}

// IssueTypes implements metacache.Loader.
func (f *FakeTracker) IssueTypes(ctx context.Context) ([]issue.IssueType, error) {
	if err := f.countLoad("issuetypes"); err != nil {
		return nil, err
	}
	return f.IssueTypeList, nil
}

// Priorities implements metacache.Loader.
func (f *FakeTracker) Priorities(ctx context.Context) ([]issue.Priority, error) {
	if err := f.countLoad("priorities"); err != nil {
		return nil, err
	}
	return f.PriorityList, nil
}

// Statuses implements metacache.Loader.
func (f *FakeTracker) Statuses(ctx context.Context) ([]issue.Status, error) {
	if err := f.countLoad("statuses"); err != nil {
		return nil, err
	}
	return f.StatusList, nil
}

// Fields implements metacache.Loader.
func (f *FakeTracker) Fields(ctx context.Context) ([]issue.CustomFieldDef, error) {
	if err := f.countLoad("fields"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]issue.CustomFieldDef(nil), f.FieldList...), nil
}

// AddField appends a field definition, as if it was created on the server.
func (f *FakeTracker) AddField(def issue.CustomFieldDef) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FieldList = append(f.FieldList, def)
}
