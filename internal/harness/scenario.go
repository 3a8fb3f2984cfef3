package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/netreplay/internal/ir"
	"github.com/roach88/netreplay/internal/report"
)

// Scenario defines a conformance scenario: an archive, one report and the
// assertions its output must satisfy.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Archive is the YAML trace archive to import. Relative paths are
	// resolved against the scenario file's directory.
	Archive string `yaml:"archive"`

	// Report is a registered report name, e.g. "node-count".
	Report string `yaml:"report"`

	// Traces selects which archive traces feed which stream. Empty
	// fields use the default trace names.
	Traces TraceSelection `yaml:"traces,omitempty"`

	// Run window overrides. Nil keeps the derived value.
	MinTime   *int64 `yaml:"min_time,omitempty"`
	MaxTime   *int64 `yaml:"max_time,omitempty"`
	Increment *int64 `yaml:"increment,omitempty"`

	// Assertions validate the report output and the run.
	// Supported types: output_contains, output_order, output_count,
	// trace_events, steps
	Assertions []Assertion `yaml:"assertions"`

	// RunID is an optional fixed run ID. Defaults to the scenario name.
	RunID string `yaml:"run_id,omitempty"`
}

// TraceSelection maps each stream to a trace name.
type TraceSelection struct {
	Presence string `yaml:"presence,omitempty"`
	Links    string `yaml:"links,omitempty"`
	Groups   string `yaml:"groups,omitempty"`
}

// Assertion validates the report output or the run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "output_contains": a line appears in the output
	// - "output_order": lines appear in the given order
	// - "output_count": the output has exactly Count lines
	// - "trace_events": trace Trace holds exactly Count events
	// - "steps": the runner took exactly Count steps
	Type string `yaml:"type"`

	// Line is the expected output line (used by output_contains).
	Line string `yaml:"line,omitempty"`

	// Lines is the expected line order (used by output_order).
	Lines []string `yaml:"lines,omitempty"`

	// Trace is the trace name (used by trace_events).
	Trace string `yaml:"trace,omitempty"`

	// Count is the expected number (used by output_count, trace_events, steps).
	Count *int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertOutputContains = "output_contains"
	AssertOutputOrder    = "output_order"
	AssertOutputCount    = "output_count"
	AssertTraceEvents    = "trace_events"
	AssertSteps          = "steps"
)

// LoadScenario reads and parses a scenario YAML file, resolving the
// archive path against the scenario's own directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving a relative archive path against basePath.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields, or is missing required fields.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Archive != "" && !filepath.IsAbs(scenario.Archive) && basePath != "" {
		scenario.Archive = filepath.Join(basePath, scenario.Archive)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if _, err := os.Stat(scenario.Archive); err != nil {
		return nil, fmt.Errorf("invalid scenario: archive %s: %w", scenario.Archive, err)
	}

	return scenario, nil
}

// ParseScenario decodes scenario YAML with strict field checking. It does
// not validate the result; LoadScenario does.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Description == "" {
		return errors.New("description is required")
	}
	if s.Archive == "" {
		return errors.New("archive is required")
	}
	if s.Report == "" {
		return errors.New("report is required")
	}
	if _, err := report.Lookup(s.Report); err != nil {
		return err
	}
	if s.Increment != nil && *s.Increment <= 0 {
		return fmt.Errorf("increment must be positive, got %d", *s.Increment)
	}
	if s.MinTime != nil && s.MaxTime != nil && *s.MinTime > *s.MaxTime {
		return fmt.Errorf("min_time %d is after max_time %d", *s.MinTime, *s.MaxTime)
	}
	if len(s.Assertions) == 0 {
		return errors.New("assertions list is required and must be non-empty")
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion[%d]: %w", i, err)
		}
	}
	return nil
}

// validateAssertion checks that an assertion carries the fields its type needs.
func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertOutputContains:
		if a.Line == "" {
			return errors.New("output_contains requires line")
		}
	case AssertOutputOrder:
		if len(a.Lines) < 2 {
			return errors.New("output_order requires at least 2 lines")
		}
	case AssertOutputCount, AssertSteps:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("%s requires a non-negative count", a.Type)
		}
	case AssertTraceEvents:
		if a.Trace == "" {
			return errors.New("trace_events requires trace")
		}
		if a.Count == nil || *a.Count < 0 {
			return errors.New("trace_events requires a non-negative count")
		}
	case "":
		return errors.New("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func timePtr(v *int64) *ir.Time {
	if v == nil {
		return nil
	}
	t := ir.Time(*v)
	return &t
}
