package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
)

// TableProgress shows how many source tables have been read. A nil
// TableProgress draws nothing.
type TableProgress struct {
	bar *progressbar.ProgressBar
}

// NewTableProgress draws a bar of total steps on w.
func NewTableProgress(w io.Writer, total int, description string) *TableProgress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return &TableProgress{bar: bar}
}

// Done advances the bar by one table. It is safe for concurrent use and
// matches the engine progress callback.
func (p *TableProgress) Done(table string) {
	if p == nil {
		return
	}
	if err := p.bar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "table", table, "error", err)
	}
}

// Finish completes the bar.
func (p *TableProgress) Finish() {
	if p == nil {
		return
	}
	_ = p.bar.Finish()
}

// Count returns the number of tables reported so far.
func (p *TableProgress) Count() int {
	if p == nil {
		return 0
	}
	return int(p.bar.State().CurrentNum)
}
