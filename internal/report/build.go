package report

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Schema selects how table columns are derived from a collection of records.
type Schema string

const (
	// SchemaUnion uses every key seen across the collection, in first-seen order.
	SchemaUnion Schema = "union"
	// SchemaFirstRecord uses the first record's keys; keys only present in
	// later records are dropped.
	SchemaFirstRecord Schema = "first"
)

// ParseSchema maps a configuration value to a Schema.
func ParseSchema(s string) (Schema, error) {
	switch Schema(strings.ToLower(strings.TrimSpace(s))) {
	case "", SchemaUnion:
		return SchemaUnion, nil
	case SchemaFirstRecord:
		return SchemaFirstRecord, nil
	default:
		return "", fmt.Errorf("unknown report schema %q (want %q or %q)", s, SchemaUnion, SchemaFirstRecord)
	}
}

// State classifies what a Report carries.
type State string

const (
	// StateReady carries counts and sections.
	StateReady State = "ready"
	// StateInvalid means the run was refused before any upstream call.
	StateInvalid State = "invalid"
	// StateError means the screening call failed.
	StateError State = "error"
	// StateUnexpected means the screening response had the wrong shape.
	StateUnexpected State = "unexpected"
)

// Section titles and the empty-section placeholder.
const (
	EligibleTitle = "Eligible Stocks"
	RejectedTitle = "Rejected Stocks"
	Placeholder   = "None"
)

// User-facing messages carried by notice reports.
const (
	MsgSelectAll    = "Please select all options!"
	MsgScreenFailed = "Error running screening."
	MsgUnexpected   = "Unexpected response from screening service."
)

// Table is a rendered partition: upper-cased headers and rows of cells in
// header order.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Section is one labeled partition of the report. Exactly one of Table and
// Placeholder is set.
type Section struct {
	Title       string `json:"title"`
	Table       *Table `json:"table,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

// Report is the full content of the result region for one screening run.
type Report struct {
	State    State     `json:"state"`
	Message  string    `json:"message,omitempty"`
	RunID    string    `json:"run_id,omitempty"`
	Counts   Counts    `json:"counts"`
	Sections []Section `json:"sections,omitempty"`
}

// Notice builds a report that carries only a user-facing message.
func Notice(state State, msg string) Report {
	return Report{State: state, Message: msg}
}

// Build renders a decoded result. Counts are copied verbatim and never
// reconciled with the collection lengths.
func Build(res Result, schema Schema) Report {
	return Report{
		State:  StateReady,
		RunID:  uuid.NewString(),
		Counts: res.Count,
		Sections: []Section{
			buildSection(EligibleTitle, res.Eligible, schema),
			buildSection(RejectedTitle, res.Rejected, schema),
		},
	}
}

func buildSection(title string, records []Record, schema Schema) Section {
	if len(records) == 0 {
		return Section{Title: title, Placeholder: Placeholder}
	}
	keys := Columns(records, schema)
	t := &Table{
		Headers: make([]string, len(keys)),
		Rows:    make([][]string, 0, len(records)),
	}
	for i, k := range keys {
		t.Headers[i] = strings.ToUpper(k)
	}
	for _, rec := range records {
		row := make([]string, len(keys))
		for i, k := range keys {
			row[i], _ = rec.Get(k)
		}
		t.Rows = append(t.Rows, row)
	}
	return Section{Title: title, Table: t}
}

// Columns derives the column keys of a collection under the given schema.
func Columns(records []Record, schema Schema) []string {
	if len(records) == 0 {
		return nil
	}
	if schema == SchemaFirstRecord {
		return records[0].Keys()
	}
	seen := make(map[string]bool)
	var keys []string
	for _, rec := range records {
		for _, f := range rec.Fields {
			if !seen[f.Key] {
				seen[f.Key] = true
				keys = append(keys, f.Key)
			}
		}
	}
	return keys
}
