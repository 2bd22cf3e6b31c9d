// Package report describes one editing run as a JSON document: what was
// loaded, which operations ran and what was written.
package report

// Report is the top-level output of a bambi apply run.
type Report struct {
	Version     int         `json:"version"`
	GeneratedAt string      `json:"generated_at"`
	Preset      string      `json:"preset,omitempty"`
	Input       ImageInfo   `json:"input"`
	Output      *ImageInfo  `json:"output,omitempty"`
	Operations  []Operation `json:"operations"`
	Stats       Stats       `json:"stats"`
}

// ImageInfo holds metadata about an image file.
type ImageInfo struct {
	Path     string `json:"path"`
	Format   string `json:"format"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Size     int64  `json:"size"`
	HasAlpha bool   `json:"has_alpha"`
	Hash     string `json:"hash"` // first 16 hex chars of xxhash64 of the file
}

// Operation is one completed filter.
type Operation struct {
	Kind      string  `json:"kind"`
	Display   string  `json:"display,omitempty"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	ElapsedMS float64 `json:"elapsed_ms"`
	Hash      string  `json:"hash"` // pixel hash of the result
}

// Stats aggregates run metrics.
type Stats struct {
	TotalOperations int     `json:"total_operations"`
	TotalElapsedMS  float64 `json:"total_elapsed_ms"`
	SizeRatio       float64 `json:"size_ratio,omitempty"` // output bytes / input bytes
}

// SupportedVersion is the current schema version.
const SupportedVersion = 1
