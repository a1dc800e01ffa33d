// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package progress

import (
	"io"
	"math"

	"github.com/schollz/progressbar/v3"

	"github.com/pdiddy/pdf2cbz/pkg/types"
)

// Bar renders updates as a terminal progress bar scaled 0-100.
type Bar struct {
	bar *progressbar.ProgressBar
	w   io.Writer
}

// NewBar creates a bar writing to w.
func NewBar(w io.Writer) *Bar {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Starting conversion..."),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Bar{bar: bar, w: w}
}

// Render draws one update. It must run on the foreground goroutine.
// A finished bar draws nothing and a decrease is never redrawn, so either
// case clears and restarts the bar before drawing.
func (b *Bar) Render(p types.Progress) {
	n := min(max(int(math.Round(p.Percent)), 0), 100)
	if b.bar.IsFinished() || int64(n) < b.bar.State().CurrentNum {
		_ = b.bar.Clear()
		b.bar.Reset()
	}
	b.bar.Describe(p.Message)
	_ = b.bar.Set(n)
}

// Drain renders every update from ch until it is closed, then ends the
// bar's line.
func (b *Bar) Drain(ch <-chan types.Progress) {
	for p := range ch {
		b.Render(p)
	}
	_, _ = io.WriteString(b.w, "\n")
}
