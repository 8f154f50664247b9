// Package report renders analysis results as text, JSON or SARIF.
package report

import (
	"fmt"
	"io"

	"github.com/phobologic/unsafe-finder/internal/model"
)

// Supported output formats.
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatSARIF = "sarif"
)

// Formats lists every supported output format.
var Formats = []string{FormatText, FormatJSON, FormatSARIF}

// Writer receives file reports in traversal order. The text writer emits
// each section as soon as it is received; the structured writers buffer
// until Close.
type Writer interface {
	File(fr *model.FileReport) error
	Close() error
}

// Options configures a Writer.
type Options struct {
	// Color enables ANSI colors in text output.
	Color bool
	// Version is recorded as the tool version in structured output.
	Version string
}

// New returns a Writer for format writing to w.
func New(format string, w io.Writer, opts Options) (Writer, error) {
	switch format {
	case FormatText, "":
		return newTextWriter(w, opts), nil
	case FormatJSON:
		return &jsonWriter{w: w, version: opts.Version}, nil
	case FormatSARIF:
		return &sarifWriter{w: w, version: opts.Version}, nil
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}
