// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rasterize

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/pdf2cbz/internal/toolchain"
)

// PopplerRenderer rasterizes with pdftoppm, one page per invocation, and
// reads the page count from pdfinfo. It never writes intermediate files:
// pdftoppm streams PNG to stdout and the page is decoded in memory.
type PopplerRenderer struct {
	pdftoppm toolchain.Tool
	pdfinfo  toolchain.Tool
}

// NewPopplerRenderer returns the Poppler backend. dir is the directory
// holding the Poppler binaries, or empty to search PATH.
func NewPopplerRenderer(dir string) *PopplerRenderer {
	return &PopplerRenderer{
		pdftoppm: toolchain.Lookup(dir, toolchain.BinPdftoppm),
		pdfinfo:  toolchain.Lookup(dir, toolchain.BinPdfinfo),
	}
}

func (p *PopplerRenderer) Name() string { return "poppler" }

// Open verifies the binaries exist and reads the page count. The path is
// made absolute so a name beginning with "-" is never parsed as an option.
func (p *PopplerRenderer) Open(ctx context.Context, path string) (Source, error) {
	for _, t := range []toolchain.Tool{p.pdfinfo, p.pdftoppm} {
		if !t.Available() {
			return nil, fmt.Errorf("%s not found (install poppler-utils or set poppler_path)", t.Name())
		}
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving document path: %w", err)
	}

	var out bytes.Buffer
	if err := p.pdfinfo.Run(ctx, []string{path}, nil, &out); err != nil {
		return nil, err
	}
	pages, err := parsePageCount(out.Bytes())
	if err != nil {
		return nil, err
	}
	return &popplerSource{r: p, path: path, pages: pages}, nil
}

// parsePageCount extracts the "Pages:" field from pdfinfo output.
func parsePageCount(output []byte) (int, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			break
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0, fmt.Errorf("parsing page count %q: %w", fields[1], err)
		}
		return n, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, errors.New("failed to determine page count from pdfinfo output")
}

type popplerSource struct {
	r     *PopplerRenderer
	path  string
	pages int
}

func (s *popplerSource) NumPage() int { return s.pages }

func (s *popplerSource) Render(ctx context.Context, page int, dpi int) (image.Image, error) {
	n := strconv.Itoa(page + 1)
	args := []string{"-png", "-r", strconv.Itoa(dpi), "-f", n, "-l", n, "-singlefile", s.path}

	var out bytes.Buffer
	if err := s.r.pdftoppm.Run(ctx, args, nil, &out); err != nil {
		return nil, err
	}
	img, err := png.Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("decoding pdftoppm output: %w", err)
	}
	return img, nil
}

func (s *popplerSource) Close() error { return nil }
