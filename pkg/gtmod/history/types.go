// Package history provides a persistent log of pipeline operations.
package history

import (
	"fmt"
	"strings"
	"time"
)

// OperationType represents the type of operation.
type OperationType string

const (
	// OpPackage represents a flatdata packaging run.
	OpPackage OperationType = "package"
	// OpBundle represents a distributable archive build.
	OpBundle OperationType = "bundle"
	// OpExtract represents a game archive extraction.
	OpExtract OperationType = "extract"
	// OpConvert represents an asset format conversion.
	OpConvert OperationType = "convert"
)

// ParseOperation converts user input into a known OperationType.
func ParseOperation(s string) (OperationType, error) {
	op := OperationType(strings.ToLower(strings.TrimSpace(s)))
	switch op {
	case OpPackage, OpBundle, OpExtract, OpConvert:
		return op, nil
	}
	return "", fmt.Errorf("unknown operation type %q (expected package, bundle, extract, or convert)", s)
}

// Entry represents a single history entry.
type Entry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Operation OperationType  `json:"operation"`
	Outputs   []OutputRecord `json:"outputs"`
	Summary   Summary        `json:"summary"`
}

// OutputRecord represents one file an operation produced.
type OutputRecord struct {
	Path   string `json:"path"`
	Size   int64  `json:"size,omitempty"`
	Assets int    `json:"assets,omitempty"`
}

// Summary contains operation totals.
type Summary struct {
	TotalOutputs int64 `json:"total_outputs"`
	TotalBytes   int64 `json:"total_bytes"`
}
