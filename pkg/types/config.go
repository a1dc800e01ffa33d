package types

import (
	"fmt"
	"strings"
)

// ArchiveFormat selects the container written for each document.
type ArchiveFormat string

const (
	FormatZIP ArchiveFormat = "zip"
	FormatCBZ ArchiveFormat = "cbz"
	FormatCBR ArchiveFormat = "cbr"
)

// Formats lists the supported archive formats in display order.
var Formats = []ArchiveFormat{FormatZIP, FormatCBZ, FormatCBR}

// ParseArchiveFormat converts user input such as "CBZ" or ".zip" into an
// ArchiveFormat. Unknown values produce an error listing the valid choices.
func ParseArchiveFormat(s string) (ArchiveFormat, error) {
	f := ArchiveFormat(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."))
	if f.Valid() {
		return f, nil
	}
	return "", fmt.Errorf("unknown archive format %q (want zip, cbz, or cbr)", s)
}

// Valid reports whether f is one of the supported formats.
func (f ArchiveFormat) Valid() bool {
	switch f {
	case FormatZIP, FormatCBZ, FormatCBR:
		return true
	}
	return false
}

// IsZIP reports whether f is written with ZIP container semantics.
// CBZ is a ZIP container by convention.
func (f ArchiveFormat) IsZIP() bool {
	return f == FormatZIP || f == FormatCBZ
}

// Extension returns the file extension for f, including the leading dot.
func (f ArchiveFormat) Extension() string {
	return "." + string(f)
}

func (f ArchiveFormat) String() string { return string(f) }

// RenderBackend identifies the PDF rasterization engine.
type RenderBackend string

const (
	BackendFitz    RenderBackend = "fitz"
	BackendPoppler RenderBackend = "poppler"
)

const (
	// DefaultDPI is the rasterization resolution used when none is configured.
	DefaultDPI = 300

	// DefaultJPEGQuality matches the encoder default most imaging tools use.
	DefaultJPEGQuality = 75
)

// RunConfig holds everything one batch run needs. It is built once by the
// caller and passed into the pipeline by value.
type RunConfig struct {
	// Documents lists the source PDF paths in processing order.
	Documents []string `json:"documents" yaml:"documents"`

	// OutputRoot is an existing directory that receives one folder per
	// document and the final archives.
	OutputRoot string `json:"output_root" yaml:"output_root"`

	// Format selects the archive container.
	Format ArchiveFormat `json:"format" yaml:"format"`

	// ChapterStructure stages each archive in <base>_compressed before it is
	// moved to OutputRoot.
	ChapterStructure bool `json:"chapter_structure" yaml:"chapter_structure"`

	// DPI is the rasterization resolution (default 300).
	DPI int `json:"dpi" yaml:"dpi"`

	// JPEGQuality is the JPEG encoder quality, 1-100 (default 75).
	JPEGQuality int `json:"jpeg_quality" yaml:"jpeg_quality"`
}

// WithDefaults returns a copy of c with zero-valued settings filled in.
func (c RunConfig) WithDefaults() RunConfig {
	if c.Format == "" {
		c.Format = FormatZIP
	}
	if c.DPI == 0 {
		c.DPI = DefaultDPI
	}
	if c.JPEGQuality == 0 {
		c.JPEGQuality = DefaultJPEGQuality
	}
	return c
}

// ToolConfig locates the external binaries used by the poppler backend and
// the cbr writer.
type ToolConfig struct {
	// PopplerPath is a directory containing pdftoppm and pdfinfo. Empty
	// means search PATH.
	PopplerPath string `json:"poppler_path,omitempty" yaml:"poppler_path,omitempty"`

	// RarPath is the rar executable used for cbr archives. Empty means
	// search PATH for "rar".
	RarPath string `json:"rar_path,omitempty" yaml:"rar_path,omitempty"`
}

// LogConfig controls logger construction.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level"`

	// Format is "console" or "json" (default console).
	Format string `json:"format" yaml:"format"`
}
