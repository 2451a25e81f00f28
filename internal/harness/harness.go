package harness

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/jiraq/internal/jql"
)

// Result is the outcome of running one scenario.
type Result struct {
	// Scenario is the scenario name.
	Scenario string `json:"scenario"`

	// Pass is true when every case met its expectation.
	Pass bool `json:"pass"`

	// Cases holds the per-case outcome in scenario order.
	Cases []CaseResult `json:"cases"`

	// Errors collects the failure messages of all cases.
	Errors []string `json:"errors,omitempty"`
}

// CaseResult is the observed outcome of one case. Exactly one of
// Translation and Error is set.
type CaseResult struct {
	Name        string           `json:"name"`
	Pass        bool             `json:"pass"`
	JQL         string           `json:"jql,omitempty"`
	Translation *jql.Translation `json:"translation,omitempty"`
	ErrorCode   string           `json:"error_code,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// AddError records a failure for the named case and marks the result failed.
func (r *Result) AddError(caseName, format string, args ...any) {
	r.Pass = false
	r.Errors = append(r.Errors, caseName+": "+fmt.Sprintf(format, args...))
}

// Option configures Run.
type Option func(*runner)

// WithTranslator runs the cases against tr instead of the translator the
// scenario configures.
func WithTranslator(tr *jql.Translator) Option {
	return func(r *runner) {
		r.translator = tr
	}
}

// WithLogger sets the logger for case-level debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *runner) {
		r.logger = logger
	}
}

type runner struct {
	translator *jql.Translator
	logger     *slog.Logger
}

// Run translates every case of the scenario and checks it against its
// expectation.
//
// A case failing its expectation is reported in the Result, not as an
// error. Run returns an error only when the scenario itself cannot be set
// up, for example when its field file cannot be loaded.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	r := &runner{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.translator == nil {
		tr, err := scenario.Translator()
		if err != nil {
			return nil, err
		}
		r.translator = tr
	}

	result := &Result{Scenario: scenario.Name, Pass: true}
	for _, c := range scenario.Cases {
		cr := r.runCase(result, c)
		r.logger.Debug("case finished",
			"scenario", scenario.Name,
			"case", c.Name,
			"pass", cr.Pass,
		)
		result.Cases = append(result.Cases, cr)
	}
	return result, nil
}

func (r *runner) runCase(result *Result, c Case) CaseResult {
	cr := CaseResult{Name: c.Name, Pass: true}
	fail := func(format string, args ...any) {
		cr.Pass = false
		result.AddError(c.Name, format, args...)
	}

	t, err := r.translate(c)
	if err != nil {
		cr.Error = err.Error()
		cr.ErrorCode = string(jql.CodeOf(err))
		checkError(c.Expect, err, fail)
		return cr
	}

	cr.JQL = t.JQL()
	cr.Translation = &t
	checkTranslation(c.Expect, t, fail)
	return cr
}

func (r *runner) translate(c Case) (jql.Translation, error) {
	node, err := c.Query.Lower()
	if err != nil {
		return jql.Translation{}, err
	}
	return r.translator.Translate(node)
}

func checkError(want Expect, err error, fail func(string, ...any)) {
	if !want.wantsError() {
		fail("unexpected error: %v", err)
		return
	}
	if want.Error != "" {
		if got := jql.CodeOf(err); string(got) != want.Error {
			fail("error code: expected %s, got %q (%v)", want.Error, got, err)
		}
	}
	if want.ErrorContains != "" && !strings.Contains(err.Error(), want.ErrorContains) {
		fail("error: expected message containing %q, got %q", want.ErrorContains, err.Error())
	}
}

func checkTranslation(want Expect, t jql.Translation, fail func(string, ...any)) {
	if want.wantsError() {
		fail("expected error, got translation %q", t.String())
		return
	}
	if want.JQL != nil && *want.JQL != t.JQL() {
		fail("jql: expected %q, got %q", *want.JQL, t.JQL())
	}
	if want.Query != nil && *want.Query != t.Query {
		fail("query: expected %q, got %q", *want.Query, t.Query)
	}
	if want.OrderBy != nil && *want.OrderBy != t.OrderBy {
		fail("order_by: expected %q, got %q", *want.OrderBy, t.OrderBy)
	}
	if want.Limit != nil && *want.Limit != t.Limit {
		fail("limit: expected %d, got %d", *want.Limit, t.Limit)
	}
}
