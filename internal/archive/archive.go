// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive packages page images into zip, cbz, or cbr archives.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/pdiddy/pdf2cbz/pkg/types"
)

// stagingSuffix names the chapter-structure staging folder.
const stagingSuffix = "_compressed"

// ErrUnsupportedFormat is returned when no writer can produce a format.
var ErrUnsupportedFormat = errors.New("unsupported archive format")

// Writer builds one archive file from an ordered list of files. Each file
// becomes a flat entry named by its base name.
type Writer interface {
	Write(ctx context.Context, archivePath string, files []string) error
}

// Archiver selects a Writer per format and lays out staging directories.
type Archiver struct {
	writers map[types.ArchiveFormat]Writer
	log     zerolog.Logger
}

// New returns an Archiver that writes zip and cbz with the ZIP writer and
// cbr with rar. A nil rar writer leaves cbr unsupported.
func New(rar Writer, log zerolog.Logger) *Archiver {
	zw := &ZipWriter{}
	a := &Archiver{
		writers: map[types.ArchiveFormat]Writer{
			types.FormatZIP: zw,
			types.FormatCBZ: zw,
		},
		log: log,
	}
	if rar != nil {
		a.writers[types.FormatCBR] = rar
	}
	return a
}

// Check reports whether format can be written. The returned error wraps
// ErrUnsupportedFormat.
func (a *Archiver) Check(format types.ArchiveFormat) error {
	w, ok := a.writers[format]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if c, ok := w.(interface{ Available() error }); ok {
		if err := c.Available(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrUnsupportedFormat, format, err)
		}
	}
	return nil
}

// StagingDir returns the directory the archive is built in: outputFolder,
// or outputFolder/<baseName>_compressed when chapterStructure is set.
func StagingDir(outputFolder, baseName string, chapterStructure bool) string {
	if !chapterStructure {
		return outputFolder
	}
	return filepath.Join(outputFolder, baseName+stagingSuffix)
}

// Compress writes images into <staging>/<baseName>.<format> and returns the
// archive path. The images are not removed. Failures are returned as
// types.ArchiveError.
func (a *Archiver) Compress(ctx context.Context, images []types.PageImage, format types.ArchiveFormat, chapterStructure bool, outputFolder, baseName string) (string, error) {
	w, ok := a.writers[format]
	if !ok {
		return "", types.ArchiveError(fmt.Sprintf("no writer for %s", format), ErrUnsupportedFormat)
	}

	staging := StagingDir(outputFolder, baseName, chapterStructure)
	if chapterStructure {
		if err := os.MkdirAll(staging, 0o755); err != nil {
			return "", types.ArchiveError(fmt.Sprintf("creating staging directory %s", staging), err)
		}
	}

	archivePath := filepath.Join(staging, baseName+format.Extension())
	files := make([]string, len(images))
	for i, img := range images {
		files[i] = img.Path
	}

	if err := w.Write(ctx, archivePath, files); err != nil {
		return "", types.ArchiveError(fmt.Sprintf("writing %s", archivePath), err)
	}
	a.log.Info().Str("archive", archivePath).Int("entries", len(files)).Msg("archive written")
	return archivePath, nil
}
