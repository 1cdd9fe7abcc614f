// Package export renders a printable PDF invitation from a wedding's
// configuration using headless Chrome.
package export

import "errors"

// Result contains the export output.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// ErrPDFDependencyMissing indicates PDF export runtime dependencies
// are unavailable.
var ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
