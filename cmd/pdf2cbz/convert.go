// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/pdf2cbz/internal/archive"
	"github.com/pdiddy/pdf2cbz/internal/history"
	"github.com/pdiddy/pdf2cbz/internal/pipeline"
	"github.com/pdiddy/pdf2cbz/internal/progress"
	"github.com/pdiddy/pdf2cbz/internal/rasterize"
	"github.com/pdiddy/pdf2cbz/pkg/types"
)

// progressBuffer is the number of pending progress updates held between the
// worker and the renderer before older ones are coalesced away.
const progressBuffer = 64

var convertCmd = &cobra.Command{
	Use:   "convert [pdfs...]",
	Short: "Convert PDF files to JPEG pages and archive them",
	Long: `Convert renders each PDF page to <output>/<name>/<name>_page_<n>.jpg and
packages the pages of each document into <output>/<name>.<format>.

PDFs may be given as arguments, as a semicolon-separated --pdfs list, or both.
With --chapter the archive is built in <name>_compressed/ before it is moved
to the output folder. The batch stops at the first error; output already
written for earlier documents is kept.`,
	RunE: runConvert,
}

func init() {
	f := convertCmd.Flags()
	f.String("pdfs", "", "semicolon-separated list of PDF files")
	f.StringP("output", "o", "", "existing output base folder")
	f.StringP("format", "f", string(types.FormatZIP), "archive format: zip, cbz, or cbr")
	f.Bool("chapter", false, "stage each archive in a <name>_compressed chapter folder")
	f.Int("dpi", types.DefaultDPI, "rasterization resolution")
	f.Int("quality", types.DefaultJPEGQuality, "JPEG quality (1-100)")
	f.String("backend", string(types.BackendFitz), "rasterization backend: fitz or poppler")
	f.String("poppler-path", "", "directory containing pdftoppm and pdfinfo (poppler backend)")
	f.String("rar-path", "", "rar executable for cbr output (default: rar on PATH)")
	f.String("report", "", "write a YAML run report to this file")
	f.Bool("no-history", false, "do not record this run in the history database")

	for key, flag := range map[string]string{
		"pdfs":         "pdfs",
		"output":       "output",
		"format":       "format",
		"chapter":      "chapter",
		"dpi":          "dpi",
		"quality":      "quality",
		"backend":      "backend",
		"poppler_path": "poppler-path",
		"rar_path":     "rar-path",
	} {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	stderr := cmd.ErrOrStderr()

	docs := append([]string{}, args...)
	docs = append(docs, pipeline.ParseDocumentList(viper.GetString("pdfs"))...)

	format, err := types.ParseArchiveFormat(viper.GetString("format"))
	if err != nil {
		return notifyFailure(stderr, types.ValidationError("invalid --format", err))
	}

	cfg := types.RunConfig{
		Documents:        docs,
		OutputRoot:       viper.GetString("output"),
		Format:           format,
		ChapterStructure: viper.GetBool("chapter"),
		DPI:              viper.GetInt("dpi"),
		JPEGQuality:      viper.GetInt("quality"),
	}
	tools := types.ToolConfig{
		PopplerPath: viper.GetString("poppler_path"),
		RarPath:     viper.GetString("rar_path"),
	}

	renderer, err := newRenderer(types.RenderBackend(viper.GetString("backend")), tools)
	if err != nil {
		return notifyFailure(stderr, types.ValidationError("invalid --backend", err))
	}

	updates := progress.NewChannel(progressBuffer)
	p := pipeline.New(
		rasterize.New(renderer, cfg.JPEGQuality, logger),
		archive.New(archive.NewRarWriter(tools.RarPath), logger),
		updates,
		logger,
	)

	// Validation runs here, before the worker exists, so bad input never
	// starts a batch.
	cfg, err = p.Validate(cfg)
	if err != nil {
		return notifyFailure(stderr, err)
	}

	noHistory, _ := cmd.Flags().GetBool("no-history")
	rec := openRecorder(cmd.Context(), !noHistory, cfg)
	defer rec.close()

	result, runErr := runWorker(cmd.Context(), p, cfg, updates, progress.NewBar(stderr))
	rec.finish(cmd.Context(), result, runErr)
	if runErr != nil {
		return notifyFailure(stderr, runErr)
	}

	if path, _ := cmd.Flags().GetString("report"); path != "" {
		if err := pipeline.WriteReport(path, result); err != nil {
			return notifyFailure(stderr, err)
		}
	}

	color.New(color.FgGreen).Fprintf(stderr, "Success: all %d PDF(s) converted and compressed (%d pages)\n",
		len(result.Documents), result.TotalPages())
	for _, d := range result.Documents {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", d.ArchivePath)
	}
	return nil
}

// runWorker executes the batch on one background goroutine while the
// calling goroutine renders progress. The progress channel is the only
// state the two share.
func runWorker(ctx context.Context, p *pipeline.Pipeline, cfg types.RunConfig, updates *progress.Channel, bar *progress.Bar) (*types.BatchResult, error) {
	var (
		g      errgroup.Group
		result *types.BatchResult
	)
	g.Go(func() error {
		defer updates.Close()
		var err error
		result, err = p.Run(ctx, cfg)
		return err
	})
	bar.Drain(updates.Updates())
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func newRenderer(backend types.RenderBackend, tools types.ToolConfig) (rasterize.Renderer, error) {
	switch backend {
	case types.BackendFitz, "":
		return rasterize.NewFitzRenderer(), nil
	case types.BackendPoppler:
		return rasterize.NewPopplerRenderer(tools.PopplerPath), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want fitz or poppler)", backend)
	}
}

// notifyFailure prints the one user-facing error notification and returns
// err so the command exits non-zero.
func notifyFailure(w io.Writer, err error) error {
	color.New(color.FgRed, color.Bold).Fprintf(w, "Error: %v\n", err)
	return err
}

// runRecorder writes the run to the history database. History is
// best-effort: a database problem is logged and never fails the batch.
type runRecorder struct {
	store *history.Store
	id    int64
}

func openRecorder(ctx context.Context, enabled bool, cfg types.RunConfig) *runRecorder {
	rec := &runRecorder{}
	if !enabled {
		return rec
	}
	store, err := history.Open(historyPath())
	if err != nil {
		logger.Warn().Err(err).Msg("history disabled")
		return rec
	}
	id, err := store.Begin(ctx, cfg, time.Now())
	if err != nil {
		logger.Warn().Err(err).Msg("recording run start")
		store.Close()
		return rec
	}
	rec.store, rec.id = store, id
	return rec
}

func (r *runRecorder) finish(ctx context.Context, result *types.BatchResult, runErr error) {
	if r.store == nil {
		return
	}
	if err := r.store.Finish(ctx, r.id, result, runErr, time.Now()); err != nil {
		logger.Warn().Err(err).Msg("recording run result")
	}
}

func (r *runRecorder) close() {
	if r.store != nil {
		r.store.Close()
	}
}
