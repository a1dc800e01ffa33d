// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"path/filepath"
	"strings"
	"time"
)

// BaseName returns the document file name without directory or extension
// (e.g. "/in/vol1.pdf" -> "vol1"). It names the output folder, the page
// images, and the archive.
func BaseName(document string) string {
	base := filepath.Base(document)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// PageImage is one rasterized page persisted as a JPEG file.
type PageImage struct {
	// Document is the source PDF path.
	Document string `json:"document" yaml:"document"`

	// Index is the 1-based page number in document order.
	Index int `json:"index" yaml:"index"`

	// Path is the JPEG file on disk.
	Path string `json:"path" yaml:"path"`
}

// Progress is one update from the batch worker: a completion percentage in
// [0, 100] and a human-readable status line.
type Progress struct {
	Percent float64 `json:"percent" yaml:"percent"`
	Message string  `json:"message" yaml:"message"`
}

// DocumentResult records what the pipeline produced for one document.
type DocumentResult struct {
	Document     string `json:"document" yaml:"document"`
	BaseName     string `json:"base_name" yaml:"base_name"`
	OutputFolder string `json:"output_folder" yaml:"output_folder"`
	Pages        int    `json:"pages" yaml:"pages"`
	ArchivePath  string `json:"archive_path" yaml:"archive_path"`
}

// BatchResult is the outcome of a completed batch run.
type BatchResult struct {
	Config    RunConfig        `json:"config" yaml:"config"`
	Documents []DocumentResult `json:"documents" yaml:"documents"`
	StartedAt time.Time        `json:"started_at" yaml:"started_at"`
	Elapsed   time.Duration    `json:"elapsed" yaml:"elapsed"`
}

// TotalPages returns the page count summed over all documents.
func (r BatchResult) TotalPages() int {
	n := 0
	for _, d := range r.Documents {
		n += d.Pages
	}
	return n
}
