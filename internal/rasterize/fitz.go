// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rasterize

import (
	"context"
	"image"

	"github.com/gen2brain/go-fitz"
)

// FitzRenderer rasterizes with MuPDF through go-fitz.
type FitzRenderer struct{}

// NewFitzRenderer returns the MuPDF backend.
func NewFitzRenderer() *FitzRenderer { return &FitzRenderer{} }

func (FitzRenderer) Name() string { return "fitz" }

// Open loads the document with MuPDF.
func (FitzRenderer) Open(_ context.Context, path string) (Source, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &fitzSource{doc: doc}, nil
}

type fitzSource struct {
	doc *fitz.Document
}

func (s *fitzSource) NumPage() int { return s.doc.NumPage() }

func (s *fitzSource) Render(_ context.Context, page int, dpi int) (image.Image, error) {
	return s.doc.ImageDPI(page, float64(dpi))
}

func (s *fitzSource) Close() error { return s.doc.Close() }
