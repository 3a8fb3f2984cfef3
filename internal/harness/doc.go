// Package harness runs report conformance scenarios.
//
// A scenario imports one trace archive into a fresh in-memory store, runs a
// single registered report over it with a fixed run ID and checks the
// report output. Output can also be compared against golden files.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: node_count
//	description: "What this scenario validates"
//	archive: ../archives/campus.yaml
//	report: node-count
//	traces:
//	  presence: campus-presence
//	increment: 5
//	assertions:
//	  - type: output_contains
//	    line: "3 3"
//	  - type: output_order
//	    lines: ["0 2", "15 2"]
//	  - type: output_count
//	    count: 5
//	  - type: trace_events
//	    trace: campus-presence
//	    count: 4
//	  - type: steps
//	    count: 5
//
// The archive path is relative to the scenario file. Unknown fields are
// rejected.
//
// # Assertion Types
//
//   - output_contains: an exact line appears in the report output
//   - output_order: lines appear in order, not necessarily adjacent
//   - output_count: the output has exactly count lines
//   - trace_events: the named trace holds exactly count events
//   - steps: the runner took exactly count steps
//
// # Golden Files
//
// RunWithGolden stores the raw report output in
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
