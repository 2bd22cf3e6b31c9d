package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// New creates an empty report with defaults.
func New(preset string) *Report {
	return &Report{
		Version:     SupportedVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Preset:      preset,
		Operations:  []Operation{},
	}
}

// ComputeStats recalculates aggregate statistics from operations.
func (r *Report) ComputeStats() {
	var s Stats
	s.TotalOperations = len(r.Operations)
	for _, op := range r.Operations {
		s.TotalElapsedMS += op.ElapsedMS
	}
	if r.Output != nil && r.Input.Size > 0 {
		s.SizeRatio = float64(r.Output.Size) / float64(r.Input.Size)
	}
	r.Stats = s
}

// WriteJSON serializes the report to a JSON file.
func WriteJSON(r *Report, path string) error {
	r.ComputeStats()

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON parses a report file. Unknown fields are ignored.
func ReadJSON(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &r, nil
}

// Validate checks a report for internal consistency and returns every
// problem found.
func Validate(r *Report) []string {
	var errs []string

	if r.Version != SupportedVersion {
		errs = append(errs, fmt.Sprintf("unsupported report version: %d", r.Version))
	}
	if r.Input.Width <= 0 || r.Input.Height <= 0 {
		errs = append(errs, fmt.Sprintf("input: invalid dimensions %dx%d", r.Input.Width, r.Input.Height))
	}
	if r.Input.Hash == "" {
		errs = append(errs, "input: missing hash")
	}

	for i, op := range r.Operations {
		if op.Kind == "" {
			errs = append(errs, fmt.Sprintf("operation[%d]: empty kind", i))
		}
		if op.Width <= 0 || op.Height <= 0 {
			errs = append(errs, fmt.Sprintf("operation[%d]: invalid dimensions %dx%d", i, op.Width, op.Height))
		}
		if op.Hash == "" {
			errs = append(errs, fmt.Sprintf("operation[%d]: missing hash", i))
		}
	}

	if r.Output != nil {
		if r.Output.Path == "" {
			errs = append(errs, "output: missing path")
		}
		if n := len(r.Operations); n > 0 {
			last := r.Operations[n-1]
			if last.Width != r.Output.Width || last.Height != r.Output.Height {
				errs = append(errs, fmt.Sprintf("output: size %dx%d differs from last operation %dx%d",
					r.Output.Width, r.Output.Height, last.Width, last.Height))
			}
		}
	}

	if r.Stats.TotalOperations != len(r.Operations) {
		errs = append(errs, fmt.Sprintf("stats.total_operations mismatch: %d != %d",
			r.Stats.TotalOperations, len(r.Operations)))
	}
	return errs
}
