package antivirus

import (
	"context"
	"io"
)

// ScanResult contains the result of a malware scan
type ScanResult struct {
	Infected    bool   // True if malware was detected
	ThreatName  string // Name of detected threat (empty if clean)
	ScannerName string // Name of scanner that produced this result
	Error       error  // Any error that occurred during scanning
}

// Rejected reports whether the attachment must be dropped. Scan errors count
// as infected.
func (r ScanResult) Rejected() bool {
	return r.Infected || r.Error != nil
}

// Scanner is the interface for pluggable antivirus implementations
type Scanner interface {
	// Scan checks file content for malware
	Scan(ctx context.Context, filename string, data io.Reader) ScanResult

	// Name returns the scanner implementation name (for logging)
	Name() string
}

// NoOpScanner always reports clean. Used when no clamd address is configured.
type NoOpScanner struct{}

var _ Scanner = (*NoOpScanner)(nil) // Compile-time interface check

func (n *NoOpScanner) Scan(ctx context.Context, filename string, data io.Reader) ScanResult {
	return ScanResult{
		Infected:    false,
		ScannerName: n.Name(),
	}
}

func (n *NoOpScanner) Name() string {
	return "noop"
}

// NewNoOpScanner creates a no-op scanner for development
func NewNoOpScanner() *NoOpScanner {
	return &NoOpScanner{}
}
