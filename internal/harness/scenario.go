package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tripir/internal/compiler"
	"github.com/roach88/tripir/internal/engine"
)

// Scenario defines a conformance test scenario: one trip document checked
// against a list of candidate itineraries with expected outcomes.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Document is the path to the trip IR document (.json, .yaml or .cue).
	// Relative paths resolve against the scenario file's directory.
	Document string `yaml:"document"`

	// Records seeds the option store before any case runs. Stages whose
	// candidate leaves a context's records empty are filled from here.
	Records []RecordSet `yaml:"records,omitempty"`

	// Cases are checked in order against the same engine and store.
	Cases []Case `yaml:"cases"`
}

// RecordSet is a batch of option records for one category and city.
type RecordSet struct {
	Category string           `yaml:"category"`
	City     string           `yaml:"city"`
	Items    []map[string]any `yaml:"items"`
}

// Case is one candidate itinerary and its expected outcome.
type Case struct {
	Name string `yaml:"name"`

	// Candidate uses the candidate wire form: trip plus per-stage
	// attraction, accommodation, restaurant and dynamic contexts.
	Candidate map[string]any `yaml:"candidate"`

	// Expect is optional; without it the case only contributes its trace.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a case.
type ExpectClause struct {
	// Satisfied is the expected overall verdict.
	Satisfied *bool `yaml:"satisfied,omitempty"`

	// Slots maps slot paths to their expected satisfaction. This is a subset
	// match: unlisted slots are not checked.
	Slots map[string]bool `yaml:"slots,omitempty"`

	// Error is the expected CheckError code (e.g. "SLOT_EVALUATION").
	// It excludes Satisfied and Slots.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "case:" vs "cases:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the document path BEFORE validation
	if scenario.Document != "" && !filepath.IsAbs(scenario.Document) {
		scenario.Document = filepath.Join(filepath.Dir(path), scenario.Document)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarioDir loads every .yaml and .yml scenario in dir, sorted by
// file name. Scenario names must be unique across the directory.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if compiler.FormatOf(e.Name()) == compiler.FormatYAML {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}
	sort.Strings(files)

	scenarios := make([]*Scenario, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, f := range files {
		s, err := LoadScenario(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", f, s.Name, prev)
		}
		seen[s.Name] = f
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Document == "" {
		return fmt.Errorf("document is required")
	}
	if compiler.FormatOf(s.Document) == "" {
		return fmt.Errorf("document must be a .json, .yaml or .cue file: %s", s.Document)
	}
	if _, err := os.Stat(s.Document); os.IsNotExist(err) {
		return fmt.Errorf("document file not found: %s", s.Document)
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	categories := make(map[string]bool)
	for _, c := range engine.Categories() {
		categories[c] = true
	}
	for i, rs := range s.Records {
		if !categories[rs.Category] {
			return fmt.Errorf("records[%d]: unknown category %q (want one of %v)", i, rs.Category, engine.Categories())
		}
		if rs.City == "" {
			return fmt.Errorf("records[%d]: city is required", i)
		}
	}

	names := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if names[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		names[c.Name] = true

		if err := validateExpect(i, c.Expect); err != nil {
			return err
		}
	}

	return nil
}

// validateExpect checks that an expect clause asks for exactly one kind of
// outcome.
func validateExpect(index int, e *ExpectClause) error {
	if e == nil {
		return nil
	}
	if e.Error != "" && (e.Satisfied != nil || len(e.Slots) > 0) {
		return fmt.Errorf("cases[%d].expect: error cannot be combined with satisfied or slots", index)
	}
	if e.Error == "" && e.Satisfied == nil && len(e.Slots) == 0 {
		return fmt.Errorf("cases[%d].expect: one of satisfied, slots or error is required", index)
	}
	for path := range e.Slots {
		if path == "" {
			return fmt.Errorf("cases[%d].expect.slots: empty slot path", index)
		}
	}
	return nil
}
