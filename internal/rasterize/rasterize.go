// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rasterize renders PDF pages to JPEG files with pluggable backends.
package rasterize

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/pdiddy/pdf2cbz/pkg/types"
)

// Renderer opens PDF documents for page rendering. Different backends
// (MuPDF, Poppler) implement this interface.
type Renderer interface {
	// Name identifies the backend in logs.
	Name() string

	// Open prepares the PDF at path for rendering.
	Open(ctx context.Context, path string) (Source, error)
}

// Source is an opened document.
type Source interface {
	// NumPage returns the page count discovered when the document was opened.
	NumPage() int

	// Render rasterizes the 0-based page at dpi.
	Render(ctx context.Context, page int, dpi int) (image.Image, error)

	Close() error
}

// PageFunc is called after each page has been written. total is the
// document's page count.
type PageFunc func(page types.PageImage, total int)

// Rasterizer writes every page of a document as
// <outputFolder>/<baseName>_page_<n>.jpg.
type Rasterizer struct {
	renderer Renderer
	quality  int
	log      zerolog.Logger
}

// New returns a Rasterizer using r and the given JPEG quality. A quality
// outside 1..100 falls back to types.DefaultJPEGQuality.
func New(r Renderer, quality int, log zerolog.Logger) *Rasterizer {
	if quality < 1 || quality > 100 {
		quality = types.DefaultJPEGQuality
	}
	return &Rasterizer{renderer: r, quality: quality, log: log}
}

// PagePath returns the JPEG path for the 1-based page index.
func PagePath(outputFolder, baseName string, index int) string {
	return filepath.Join(outputFolder, fmt.Sprintf("%s_page_%d.jpg", baseName, index))
}

// Rasterize renders document at dpi and persists each page immediately after
// it is rendered, in page order. Existing files with the same names are
// overwritten. Every failure is returned as a types.ConversionError.
func (r *Rasterizer) Rasterize(ctx context.Context, document, outputFolder, baseName string, dpi int, onPage PageFunc) ([]types.PageImage, error) {
	src, err := r.renderer.Open(ctx, document)
	if err != nil {
		return nil, types.ConversionError(fmt.Sprintf("opening %s with %s", document, r.renderer.Name()), err)
	}
	defer src.Close()

	total := src.NumPage()
	if total <= 0 {
		return nil, types.ConversionError(fmt.Sprintf("%s has no pages", document), nil)
	}
	r.log.Info().Str("document", document).Int("pages", total).Int("dpi", dpi).Msg("rasterizing")

	pages := make([]types.PageImage, 0, total)
	for i := 0; i < total; i++ {
		img, err := src.Render(ctx, i, dpi)
		if err != nil {
			return nil, types.ConversionError(fmt.Sprintf("rendering page %d of %s", i+1, document), err)
		}

		page := types.PageImage{
			Document: document,
			Index:    i + 1,
			Path:     PagePath(outputFolder, baseName, i+1),
		}
		if err := r.writeJPEG(page.Path, img); err != nil {
			return nil, types.ConversionError(fmt.Sprintf("saving page %d of %s", i+1, document), err)
		}
		r.log.Debug().Str("path", page.Path).Msg("saved page")

		pages = append(pages, page)
		if onPage != nil {
			onPage(page, total)
		}
	}
	return pages, nil
}

// writeJPEG encodes img to path through a temporary file so a failed encode
// never leaves a truncated page behind.
func (r *Rasterizer) writeJPEG(path string, img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".page-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	encErr := jpeg.Encode(tmp, img, &jpeg.Options{Quality: r.quality})
	closeErr := tmp.Close()
	if encErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("encoding JPEG: %w", encErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
