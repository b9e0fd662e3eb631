package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/mattn/go-isatty"
)

// progressReporter renders extraction percentages as a terminal progress bar
// when stdout is a tty, and falls back to structured log lines otherwise.
type progressReporter struct {
	writer  progress.Writer
	tracker *progress.Tracker
	logger  *slog.Logger
}

func newProgressReporter(logger *slog.Logger) *progressReporter {
	reporter := &progressReporter{logger: logger}
	if !stdoutIsTerminal() {
		return reporter
	}

	writer := progress.NewWriter()
	writer.SetOutputWriter(os.Stdout)
	writer.SetAutoStop(false)
	writer.SetUpdateFrequency(100 * time.Millisecond)
	writer.Style().Visibility.ETA = false
	writer.Style().Visibility.Speed = false

	tracker := &progress.Tracker{Message: "Extracting", Total: 100}
	writer.AppendTracker(tracker)
	go writer.Render()

	reporter.writer = writer
	reporter.tracker = tracker
	return reporter
}

// update implements unsquashfs.ProgressFunc; it runs on the goroutine that
// parses the tool's output.
func (r *progressReporter) update(percent int) {
	if r.tracker != nil {
		r.tracker.SetValue(int64(percent))
		return
	}
	r.logger.Info("extraction progress", slog.Int("percent", percent))
}

func (r *progressReporter) stop() {
	if r.writer == nil {
		return
	}
	if !r.tracker.IsDone() {
		r.tracker.MarkAsDone()
	}
	r.writer.Stop()
	for r.writer.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
