// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf2cbz/pkg/types"
)

// writePages creates n fake page images named like the rasterizer does.
func writePages(t *testing.T, dir, base string, n int) []types.PageImage {
	t.Helper()
	pages := make([]types.PageImage, n)
	for i := range pages {
		path := filepath.Join(dir, fmt.Sprintf("%s_page_%d.jpg", base, i+1))
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("jpeg %d", i+1)), 0o644))
		pages[i] = types.PageImage{Document: base + ".pdf", Index: i + 1, Path: path}
	}
	return pages
}

func zipEntries(t *testing.T, path string) ([]string, map[string]string) {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	contents := map[string]string{}
	for _, f := range zr.File {
		names = append(names, f.Name)
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		contents[f.Name] = string(data)
	}
	return names, contents
}

func TestCompress_Zip(t *testing.T) {
	for _, format := range []types.ArchiveFormat{types.FormatZIP, types.FormatCBZ} {
		t.Run(string(format), func(t *testing.T) {
			dir := t.TempDir()
			// 11 pages so lexical and numeric order differ (page_10 < page_2).
			pages := writePages(t, dir, "vol1", 11)

			a := New(nil, zerolog.Nop())
			path, err := a.Compress(context.Background(), pages, format, false, dir, "vol1")
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "vol1."+string(format)), path)

			names, contents := zipEntries(t, path)
			require.Len(t, names, 11)
			for i, name := range names {
				want := fmt.Sprintf("vol1_page_%d.jpg", i+1)
				assert.Equal(t, want, name, "entry %d out of order", i)
				assert.Equal(t, fmt.Sprintf("jpeg %d", i+1), contents[name])
			}

			for _, p := range pages {
				assert.FileExists(t, p.Path, "source images must be kept")
			}
		})
	}
}

func TestCompress_ChapterStructure(t *testing.T) {
	dir := t.TempDir()
	pages := writePages(t, dir, "ch1", 2)
	a := New(nil, zerolog.Nop())

	flat, err := a.Compress(context.Background(), pages, types.FormatCBZ, false, dir, "ch1")
	require.NoError(t, err)
	flatNames, flatContents := zipEntries(t, flat)

	staged, err := a.Compress(context.Background(), pages, types.FormatCBZ, true, dir, "ch1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ch1_compressed", "ch1.cbz"), staged)
	stagedNames, stagedContents := zipEntries(t, staged)

	assert.Equal(t, flatNames, stagedNames)
	assert.Equal(t, flatContents, stagedContents)
}

func TestCompress_ReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	a := New(nil, zerolog.Nop())

	_, err := a.Compress(context.Background(), writePages(t, dir, "doc", 3), types.FormatZIP, false, dir, "doc")
	require.NoError(t, err)

	// Rerun with fewer pages: the archive must not keep stale entries.
	require.NoError(t, os.Remove(filepath.Join(dir, "doc_page_3.jpg")))
	path, err := a.Compress(context.Background(), writePages(t, dir, "doc", 2), types.FormatZIP, false, dir, "doc")
	require.NoError(t, err)

	names, _ := zipEntries(t, path)
	assert.Equal(t, []string{"doc_page_1.jpg", "doc_page_2.jpg"}, names)
}

func TestCompress_Errors(t *testing.T) {
	t.Run("missing image", func(t *testing.T) {
		dir := t.TempDir()
		pages := []types.PageImage{{Index: 1, Path: filepath.Join(dir, "gone.jpg")}}
		_, err := New(nil, zerolog.Nop()).Compress(context.Background(), pages, types.FormatZIP, false, dir, "gone")
		require.Error(t, err)
		assert.True(t, types.IsKind(err, types.KindArchive))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, "temp archive should be cleaned up")
	})

	t.Run("cbr without rar writer", func(t *testing.T) {
		dir := t.TempDir()
		_, err := New(nil, zerolog.Nop()).Compress(context.Background(), writePages(t, dir, "d", 1), types.FormatCBR, false, dir, "d")
		require.Error(t, err)
		assert.True(t, types.IsKind(err, types.KindArchive))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("staging directory blocked by file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "d_compressed"), []byte("x"), 0o644))
		_, err := New(nil, zerolog.Nop()).Compress(context.Background(), writePages(t, dir, "d", 1), types.FormatZIP, true, dir, "d")
		require.Error(t, err)
		assert.True(t, types.IsKind(err, types.KindArchive))
		assert.Contains(t, err.Error(), "creating staging directory")
	})
}

// fakeTool records rar invocations.
type fakeTool struct {
	available bool
	err       error
	args      [][]string
}

func (f *fakeTool) Name() string    { return "rar" }
func (f *fakeTool) Available() bool { return f.available }
func (f *fakeTool) Run(_ context.Context, args []string, _ io.Reader, _ io.Writer) error {
	f.args = append(f.args, args)
	return f.err
}

func TestRarWriter(t *testing.T) {
	dir := t.TempDir()
	pages := writePages(t, dir, "vol", 2)
	tool := &fakeTool{available: true}
	a := New(&RarWriter{tool: tool}, zerolog.Nop())

	require.NoError(t, a.Check(types.FormatCBR))
	path, err := a.Compress(context.Background(), pages, types.FormatCBR, false, dir, "vol")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "vol.cbr"), path)

	require.Len(t, tool.args, 1)
	assert.Equal(t, []string{"a", "-ep", "-m0", "-o+", "-idq", "--", path, pages[0].Path, pages[1].Path}, tool.args[0])
}

func TestRarWriter_RunFailure(t *testing.T) {
	dir := t.TempDir()
	tool := &fakeTool{available: true, err: errors.New("exit status 9")}
	a := New(&RarWriter{tool: tool}, zerolog.Nop())

	_, err := a.Compress(context.Background(), writePages(t, dir, "vol", 1), types.FormatCBR, false, dir, "vol")
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindArchive))
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		rar     Writer
		format  types.ArchiveFormat
		wantErr bool
	}{
		{name: "zip always supported", format: types.FormatZIP},
		{name: "cbz always supported", format: types.FormatCBZ},
		{name: "cbr without writer", format: types.FormatCBR, wantErr: true},
		{name: "cbr with missing binary", rar: &RarWriter{tool: &fakeTool{available: false}}, format: types.FormatCBR, wantErr: true},
		{name: "cbr with binary", rar: &RarWriter{tool: &fakeTool{available: true}}, format: types.FormatCBR},
		{name: "unknown format", format: types.ArchiveFormat("7z"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.rar, zerolog.Nop()).Check(tt.format)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestStagingDir(t *testing.T) {
	assert.Equal(t, "/out/doc", StagingDir("/out/doc", "doc", false))
	assert.Equal(t, filepath.Join("/out/doc", "doc_compressed"), StagingDir("/out/doc", "doc", true))
}
