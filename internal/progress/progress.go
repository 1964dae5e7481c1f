// Package progress renders a progress bar for batch commands.
package progress

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Bar is safe for concurrent use. A nil *Bar discards updates.
type Bar struct {
	bar *progressbar.ProgressBar
}

// New returns a bar counting to total, or nil when it should stay hidden.
func New(w io.Writer, total int, description string, visible bool) *Bar {
	if !visible {
		return nil
	}
	return &Bar{bar: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetPredictTime(false),
	)}
}

func (b *Bar) Add(n int) {
	if b == nil {
		return
	}
	_ = b.bar.Add(n)
}

func (b *Bar) Finish() {
	if b == nil {
		return
	}
	_ = b.bar.Finish()
}
