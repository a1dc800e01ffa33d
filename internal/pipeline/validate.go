// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/pdf2cbz/pkg/types"
)

// ParseDocumentList splits a semicolon-delimited list of paths, dropping
// blank entries.
func ParseDocumentList(s string) []string {
	var docs []string
	for _, part := range strings.Split(s, ";") {
		if p := strings.TrimSpace(part); p != "" {
			docs = append(docs, p)
		}
	}
	return docs
}

// Validate checks cfg before any work starts and returns it with defaults
// applied and blank document entries removed. It touches nothing on disk.
// Every failure is a types.ValidationError.
func (p *Pipeline) Validate(cfg types.RunConfig) (types.RunConfig, error) {
	cfg = cfg.WithDefaults()

	docs := make([]string, 0, len(cfg.Documents))
	for _, d := range cfg.Documents {
		if d = strings.TrimSpace(d); d != "" {
			docs = append(docs, d)
		}
	}
	if len(docs) == 0 {
		return cfg, types.ValidationError("no PDF documents provided", nil)
	}
	cfg.Documents = docs

	if strings.TrimSpace(cfg.OutputRoot) == "" {
		return cfg, types.ValidationError("no output folder provided", nil)
	}
	info, err := os.Stat(cfg.OutputRoot)
	if err != nil {
		return cfg, types.ValidationError(fmt.Sprintf("output folder %s does not exist", cfg.OutputRoot), err)
	}
	if !info.IsDir() {
		return cfg, types.ValidationError(fmt.Sprintf("output folder %s is not a directory", cfg.OutputRoot), nil)
	}

	seen := make(map[string]string, len(docs))
	for _, d := range docs {
		info, err := os.Stat(d)
		if err != nil {
			return cfg, types.ValidationError(fmt.Sprintf("cannot read document %s", d), err)
		}
		if !info.Mode().IsRegular() {
			return cfg, types.ValidationError(fmt.Sprintf("document %s is not a regular file", d), nil)
		}
		// Two documents with one base name would overwrite each other's
		// output. Names are case-folded for case-insensitive filesystems.
		base := types.BaseName(d)
		key := strings.ToLower(base)
		if prev, ok := seen[key]; ok {
			return cfg, types.ValidationError(fmt.Sprintf("documents %s and %s share the output name %q", prev, d, base), nil)
		}
		seen[key] = d
	}

	if !cfg.Format.Valid() {
		return cfg, types.ValidationError(fmt.Sprintf("unknown archive format %q", cfg.Format), nil)
	}
	if err := p.archiver.Check(cfg.Format); err != nil {
		return cfg, types.ValidationError(fmt.Sprintf("cannot write %s archives", cfg.Format), err)
	}
	if cfg.DPI < 0 {
		return cfg, types.ValidationError(fmt.Sprintf("invalid DPI %d", cfg.DPI), nil)
	}
	if cfg.JPEGQuality < 0 || cfg.JPEGQuality > 100 {
		return cfg, types.ValidationError(fmt.Sprintf("JPEG quality %d out of range 1-100", cfg.JPEGQuality), nil)
	}
	return cfg, nil
}
