// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"fmt"
	"os"

	"github.com/pdiddy/pdf2cbz/internal/toolchain"
)

// RarWriter builds cbr archives with the external rar binary. RAR is a
// proprietary format and no Go library can author it, so cbr is only
// available where rar is installed.
type RarWriter struct {
	tool toolchain.Tool
}

// NewRarWriter returns a writer running the rar binary at path, or "rar"
// from PATH when path is empty.
func NewRarWriter(path string) *RarWriter {
	return &RarWriter{tool: toolchain.At(path, toolchain.BinRar)}
}

// Available reports an error when the rar binary cannot be found.
func (r *RarWriter) Available() error {
	if !r.tool.Available() {
		return fmt.Errorf("%s not found; cbr output requires RARLAB rar", r.tool.Name())
	}
	return nil
}

// Write replaces archivePath with a new RAR archive holding files in order.
// -ep drops directory paths so entries are flat; -m0 stores JPEG data as-is.
func (r *RarWriter) Write(ctx context.Context, archivePath string, files []string) error {
	if err := r.Available(); err != nil {
		return err
	}
	if err := os.Remove(archivePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing previous archive: %w", err)
	}

	args := make([]string, 0, len(files)+6)
	args = append(args, "a", "-ep", "-m0", "-o+", "-idq", "--", archivePath)
	args = append(args, files...)
	return r.tool.Run(ctx, args, nil, nil)
}
