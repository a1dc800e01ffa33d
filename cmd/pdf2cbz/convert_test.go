// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf2cbz/internal/archive"
	"github.com/pdiddy/pdf2cbz/internal/history"
	"github.com/pdiddy/pdf2cbz/internal/pipeline"
	"github.com/pdiddy/pdf2cbz/internal/progress"
	"github.com/pdiddy/pdf2cbz/internal/rasterize"
	"github.com/pdiddy/pdf2cbz/pkg/types"
)

type stubRenderer struct{ err error }

func (s stubRenderer) Name() string { return "stub" }
func (s stubRenderer) Open(context.Context, string) (rasterize.Source, error) {
	if s.err != nil {
		return nil, s.err
	}
	return stubSource{}, nil
}

type stubSource struct{}

func (stubSource) NumPage() int { return 2 }
func (stubSource) Render(context.Context, int, int) (image.Image, error) {
	return image.NewGray(image.Rect(0, 0, 2, 2)), nil
}
func (stubSource) Close() error { return nil }

func setupRun(t *testing.T, r rasterize.Renderer) (*pipeline.Pipeline, *progress.Channel, types.RunConfig) {
	t.Helper()
	in, root := t.TempDir(), t.TempDir()
	doc := filepath.Join(in, "book.pdf")
	require.NoError(t, os.WriteFile(doc, []byte("%PDF"), 0o644))

	updates := progress.NewChannel(4)
	p := pipeline.New(
		rasterize.New(r, 75, zerolog.Nop()),
		archive.New(nil, zerolog.Nop()),
		updates,
		zerolog.Nop(),
	)
	cfg, err := p.Validate(types.RunConfig{Documents: []string{doc}, OutputRoot: root, Format: types.FormatCBZ})
	require.NoError(t, err)
	return p, updates, cfg
}

func TestRunWorker_Success(t *testing.T) {
	p, updates, cfg := setupRun(t, stubRenderer{})
	var out bytes.Buffer

	result, err := runWorker(context.Background(), p, cfg, updates, progress.NewBar(&out))
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)
	assert.FileExists(t, filepath.Join(cfg.OutputRoot, "book.cbz"))
	assert.Contains(t, out.String(), "complete")
}

func TestRunWorker_Failure(t *testing.T) {
	p, updates, cfg := setupRun(t, stubRenderer{err: errors.New("damaged")})
	var out bytes.Buffer

	result, err := runWorker(context.Background(), p, cfg, updates, progress.NewBar(&out))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, types.IsKind(err, types.KindConversion))
	assert.Contains(t, out.String(), "Error occurred")
}

// setConfig overrides a viper key for the duration of the test.
func setConfig(t *testing.T, key string, value any) {
	t.Helper()
	old := viper.Get(key)
	viper.Set(key, value)
	t.Cleanup(func() { viper.Set(key, old) })
}

func TestRunConvert_MissingOutputRoot(t *testing.T) {
	in, state := t.TempDir(), t.TempDir()
	doc := filepath.Join(in, "book.pdf")
	require.NoError(t, os.WriteFile(doc, []byte("%PDF"), 0o644))
	root := filepath.Join(state, "missing")
	dbPath := filepath.Join(state, "history.db")

	setConfig(t, "pdfs", doc)
	setConfig(t, "output", root)
	setConfig(t, "format", "cbz")
	setConfig(t, "backend", "fitz")
	setConfig(t, "history.path", dbPath)

	var stderr, stdout bytes.Buffer
	cmd := &cobra.Command{}
	cmd.Flags().Bool("no-history", false, "")
	cmd.SetErr(&stderr)
	cmd.SetOut(&stdout)
	cmd.SetContext(context.Background())

	err := runConvert(cmd, nil)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindValidation))
	assert.Contains(t, err.Error(), "does not exist")

	assert.NoDirExists(t, root)
	assert.NoDirExists(t, filepath.Join(root, "book"))
	assert.NoFileExists(t, dbPath, "no run is recorded before validation passes")
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "Error:")
	assert.NotContains(t, stderr.String(), "Starting conversion")
	assert.NotContains(t, stderr.String(), "%")
}

func TestNewRenderer(t *testing.T) {
	r, err := newRenderer(types.BackendFitz, types.ToolConfig{})
	require.NoError(t, err)
	assert.Equal(t, "fitz", r.Name())

	r, err = newRenderer("", types.ToolConfig{})
	require.NoError(t, err)
	assert.Equal(t, "fitz", r.Name())

	r, err = newRenderer(types.BackendPoppler, types.ToolConfig{PopplerPath: "/opt/poppler"})
	require.NoError(t, err)
	assert.Equal(t, "poppler", r.Name())

	_, err = newRenderer("ghostscript", types.ToolConfig{})
	assert.Error(t, err)
}

func TestNotifyFailure(t *testing.T) {
	var buf bytes.Buffer
	in := types.ValidationError("output folder /x does not exist", nil)
	err := notifyFailure(&buf, in)
	assert.Same(t, in, err)
	assert.Contains(t, buf.String(), "output folder /x does not exist")
}

func TestPrintRuns(t *testing.T) {
	var buf bytes.Buffer
	printRuns(&buf, nil)
	assert.Contains(t, buf.String(), "No runs recorded.")

	buf.Reset()
	printRuns(&buf, []history.Run{{
		ID:         7,
		StartedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Status:     history.StatusFailed,
		Format:     types.FormatCBR,
		OutputRoot: "/out",
		Message:    "archive error: rar not found",
		Documents:  []types.DocumentResult{{Document: "/in/a.pdf", Pages: 4, ArchivePath: "/out/a.cbr"}},
	}})
	got := buf.String()
	assert.Contains(t, got, "#7")
	assert.Contains(t, got, "failed")
	assert.Contains(t, got, "/in/a.pdf (4 pages)")
	assert.Contains(t, got, "rar not found")
}
