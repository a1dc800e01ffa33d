// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package toolchain locates and runs the external binaries the converter
// shells out to: pdftoppm and pdfinfo (Poppler) for rasterization and rar
// for cbr archives.
package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	BinPdftoppm = "pdftoppm"
	BinPdfinfo  = "pdfinfo"
	BinRar      = "rar"
)

// Tool is one external executable.
type Tool interface {
	// Name returns the binary name or configured path.
	Name() string

	// Available reports whether the binary can be found.
	Available() bool

	// Run executes the tool with args, piping stdin and stdout. Stderr is
	// captured and included in the returned error on failure.
	Run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunPiped(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// tool implements Tool for a single binary.
type tool struct {
	bin  string
	exec executor
}

func (t *tool) Name() string { return t.bin }

func (t *tool) Available() bool {
	_, err := t.exec.LookPath(t.bin)
	return err == nil
}

func (t *tool) Run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	var stderr bytes.Buffer
	if err := t.exec.RunPiped(ctx, t.bin, args, stdin, stdout, &stderr); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("running %s: %w: %s", t.bin, err, msg)
		}
		return fmt.Errorf("running %s: %w", t.bin, err)
	}
	return nil
}

var defaultExec = &osExecutor{}

// Lookup returns a Tool for name. When dir is non-empty the binary is
// expected at dir/name; otherwise it is resolved on PATH at run time.
func Lookup(dir, name string) Tool {
	return lookup(defaultExec, dir, name)
}

// At returns a Tool for an explicit executable path, or for fallback on PATH
// when path is empty.
func At(path, fallback string) Tool {
	if path == "" {
		path = fallback
	}
	return &tool{bin: path, exec: defaultExec}
}

func lookup(exec executor, dir, name string) *tool {
	bin := name
	if dir != "" {
		bin = filepath.Join(dir, name)
	}
	return &tool{bin: bin, exec: exec}
}
