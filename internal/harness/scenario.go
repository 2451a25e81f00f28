package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/jiraq/internal/issue"
	"github.com/roach88/jiraq/internal/jql"
	"github.com/roach88/jiraq/internal/querydoc"
)

// Field table selectors accepted by Scenario.Fields besides a file path.
const (
	FieldsDefault = "default"
	FieldsNone    = "none"
)

// Scenario is a named set of translation cases sharing one translator
// configuration.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Fields selects the field table: "default" (or empty) for the issue
	// model's table, "none" for no table, otherwise a path to a field file
	// relative to the scenario file.
	Fields string `yaml:"fields,omitempty"`

	// Overrides are registered on top of the selected table.
	Overrides map[string]jql.FieldMeta `yaml:"overrides,omitempty"`

	// LegacyOrdering enables WithLegacySecondaryOrdering.
	LegacyOrdering bool `yaml:"legacy_ordering,omitempty"`

	// Cases run in the order listed.
	Cases []Case `yaml:"cases"`

	// dir is the directory of the scenario file, for resolving Fields.
	dir string
}

// Case is one query and its expected translation.
type Case struct {
	Name   string            `yaml:"name"`
	Query  querydoc.Document `yaml:"query"`
	Expect Expect            `yaml:"expect"`
}

// Expect lists the expected outcome of a case. Only the fields that are set
// are checked. Error and ErrorContains are mutually exclusive with the
// translation fields.
type Expect struct {
	JQL     *string `yaml:"jql,omitempty"`
	Query   *string `yaml:"query,omitempty"`
	OrderBy *string `yaml:"order_by,omitempty"`
	Limit   *int    `yaml:"limit,omitempty"`

	// Error is the expected translation error code, e.g. INVALID_LIMIT.
	Error string `yaml:"error,omitempty"`

	// ErrorContains matches any failure, including lowering and constructor
	// errors, by substring.
	ErrorContains string `yaml:"error_contains,omitempty"`
}

func (e Expect) wantsError() bool {
	return e.Error != "" || e.ErrorContains != ""
}

func (e Expect) wantsTranslation() bool {
	return e.JQL != nil || e.Query != nil || e.OrderBy != nil || e.Limit != nil
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields, or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	scenario.dir = filepath.Dir(path)
	return scenario, nil
}

// ParseScenario parses scenario YAML. Relative field file paths resolve
// against the working directory.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		seen[c.Name] = true

		switch {
		case c.Expect.wantsError() && c.Expect.wantsTranslation():
			return fmt.Errorf("cases[%d] %s: expect either an error or a translation, not both", i, c.Name)
		case !c.Expect.wantsError() && !c.Expect.wantsTranslation():
			return fmt.Errorf("cases[%d] %s: expect is required", i, c.Name)
		}
	}
	return nil
}

// FieldTable builds the field table the scenario selects.
func (s *Scenario) FieldTable() (*jql.FieldTable, error) {
	var table *jql.FieldTable
	switch s.Fields {
	case "", FieldsDefault:
		table = issue.DefaultFields()
	case FieldsNone:
		if len(s.Overrides) > 0 {
			table = jql.NewFieldTable()
		}
	default:
		path := s.Fields
		if !filepath.IsAbs(path) && s.dir != "" {
			path = filepath.Join(s.dir, path)
		}
		t, err := querydoc.LoadFields(path)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		table = t
	}

	for id, meta := range s.Overrides {
		table.Register(id, meta)
	}
	return table, nil
}

// Translator builds the translator the scenario's cases run against.
func (s *Scenario) Translator() (*jql.Translator, error) {
	table, err := s.FieldTable()
	if err != nil {
		return nil, err
	}
	var opts []jql.Option
	if s.LegacyOrdering {
		opts = append(opts, jql.WithLegacySecondaryOrdering())
	}
	return jql.NewTranslator(table, opts...), nil
}
