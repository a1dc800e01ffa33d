// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs a batch: rasterize each PDF, archive its pages,
// and move the archive to the output root, reporting progress throughout.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/pdf2cbz/internal/progress"
	"github.com/pdiddy/pdf2cbz/internal/rasterize"
	"github.com/pdiddy/pdf2cbz/pkg/types"
)

// Rasterizer turns one document into ordered page images.
type Rasterizer interface {
	Rasterize(ctx context.Context, document, outputFolder, baseName string, dpi int, onPage rasterize.PageFunc) ([]types.PageImage, error)
}

// Archiver packages page images into a single archive.
type Archiver interface {
	Check(format types.ArchiveFormat) error
	Compress(ctx context.Context, images []types.PageImage, format types.ArchiveFormat, chapterStructure bool, outputFolder, baseName string) (string, error)
}

// Pipeline processes documents strictly one after another.
type Pipeline struct {
	rasterizer Rasterizer
	archiver   Archiver
	sink       progress.Sink
	log        zerolog.Logger
	now        func() time.Time
}

// New returns a Pipeline. A nil sink discards progress.
func New(r Rasterizer, a Archiver, sink progress.Sink, log zerolog.Logger) *Pipeline {
	if sink == nil {
		sink = progress.Discard
	}
	return &Pipeline{rasterizer: r, archiver: a, sink: sink, log: log, now: time.Now}
}

// Run executes the batch described by cfg. The first error aborts the whole
// batch; output already written for earlier documents stays on disk. After
// a failure the last progress update is (0, "Error occurred: ...").
func (p *Pipeline) Run(ctx context.Context, cfg types.RunConfig) (*types.BatchResult, error) {
	result, err := p.run(ctx, cfg)
	if err != nil {
		p.log.Error().Err(err).Msg("batch aborted")
		p.sink.Report(types.Progress{Percent: 0, Message: fmt.Sprintf("Error occurred: %v", err)})
		return nil, err
	}
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, cfg types.RunConfig) (*types.BatchResult, error) {
	cfg, err := p.Validate(cfg)
	if err != nil {
		return nil, err
	}

	start := p.now()
	folders, err := CreateOutputFolders(cfg.Documents, cfg.OutputRoot)
	if err != nil {
		return nil, err
	}

	result := &types.BatchResult{Config: cfg, StartedAt: start}
	total := len(cfg.Documents)
	for idx, doc := range cfg.Documents {
		dr, err := p.processDocument(ctx, cfg, doc, folders[idx], documentPercent(idx, total))
		if err != nil {
			return nil, err
		}
		result.Documents = append(result.Documents, dr)
	}

	result.Elapsed = p.now().Sub(start)
	p.log.Info().
		Int("documents", total).
		Int("pages", result.TotalPages()).
		Dur("elapsed", result.Elapsed).
		Msg("batch complete")
	p.sink.Report(types.Progress{
		Percent: 100,
		Message: fmt.Sprintf("Conversion and compression complete in %.2f seconds", result.Elapsed.Seconds()),
	})
	return result, nil
}

// documentPercent is the whole-document fraction reported for every page of
// document idx. Progress therefore jumps once per document rather than
// advancing page by page.
func documentPercent(idx, total int) float64 {
	return float64(idx+1) / float64(total) * 100
}

func (p *Pipeline) processDocument(ctx context.Context, cfg types.RunConfig, doc, folder string, percent float64) (types.DocumentResult, error) {
	name := filepath.Base(doc)
	base := types.BaseName(doc)

	pages, err := p.rasterizer.Rasterize(ctx, doc, folder, base, cfg.DPI, func(page types.PageImage, total int) {
		p.sink.Report(types.Progress{
			Percent: percent,
			Message: fmt.Sprintf("Converting %s - Page %d of %d", name, page.Index, total),
		})
	})
	if err != nil {
		return types.DocumentResult{}, err
	}
	p.sink.Report(types.Progress{Percent: percent, Message: fmt.Sprintf("Completed %s", name)})

	staged, err := p.archiver.Compress(ctx, pages, cfg.Format, cfg.ChapterStructure, folder, base)
	if err != nil {
		return types.DocumentResult{}, err
	}

	final := filepath.Join(cfg.OutputRoot, filepath.Base(staged))
	if err := moveFile(staged, final); err != nil {
		return types.DocumentResult{}, types.FileSystemError(fmt.Sprintf("moving %s to %s", staged, cfg.OutputRoot), err)
	}
	if cfg.ChapterStructure {
		// Staging is transient; a non-empty folder is left alone.
		_ = os.Remove(filepath.Dir(staged))
	}
	p.log.Info().Str("document", doc).Int("pages", len(pages)).Str("archive", final).Msg("document done")

	return types.DocumentResult{
		Document:     doc,
		BaseName:     base,
		OutputFolder: folder,
		Pages:        len(pages),
		ArchivePath:  final,
	}, nil
}

// CreateOutputFolders creates <outputRoot>/<base name> for every document
// and returns the folders in document order. Existing folders are reused.
func CreateOutputFolders(documents []string, outputRoot string) ([]string, error) {
	folders := make([]string, len(documents))
	for i, doc := range documents {
		dir := filepath.Join(outputRoot, types.BaseName(doc))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, types.FileSystemError(fmt.Sprintf("creating output folder %s", dir), err)
		}
		folders[i] = dir
	}
	return folders, nil
}
