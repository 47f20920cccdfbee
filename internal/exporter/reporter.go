package exporter

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackport/internal/models"
)

// Reporter receives the outcome of every export.
type Reporter interface {
	Report(models.Outcome)
}

// ReporterFunc adapts a function to [Reporter].
type ReporterFunc func(models.Outcome)

func (f ReporterFunc) Report(o models.Outcome) { f(o) }

// LogReporter logs outcomes: info when exported, warn when nothing was cached, error on failure.
type LogReporter struct {
	logger *log.Logger
}

func NewLogReporter(logger *log.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Report(o models.Outcome) {
	kv := []any{"id", o.Request.Identifier, "name", o.DisplayName, "target", o.Target}
	switch o.Status {
	case models.StatusExported:
		r.logger.Info("export finished", append(kv, "location", o.Location, "bytes", o.Bytes, "duration", o.Duration)...)
	case models.StatusNoData:
		r.logger.Warn("nothing cached, skipping export", kv...)
	default:
		r.logger.Error("export failed", append(kv, "error", o.Err)...)
	}
}

var (
	noticeOK   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	noticeWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	noticeErr  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
)

// ConsoleReporter writes a styled one-line notice per outcome.
type ConsoleReporter struct {
	w  io.Writer
	mu sync.Mutex
}

func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{w: w}
}

func (r *ConsoleReporter) Report(o models.Outcome) {
	var line string
	switch o.Status {
	case models.StatusExported:
		line = noticeOK.Render("✓ " + o.Message())
	case models.StatusNoData:
		line = noticeWarn.Render("! " + o.Message())
	default:
		line = noticeErr.Render("✗ " + o.Message())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, line)
}

// MultiReporter delivers each outcome to every reporter in order.
type MultiReporter []Reporter

func (m MultiReporter) Report(o models.Outcome) {
	for _, r := range m {
		if r != nil {
			r.Report(o)
		}
	}
}

// MainLoop runs posted functions one at a time on a single goroutine.
//
// Reporters that touch state owned by one goroutine (a UI program, a terminal) are wrapped with
// [MainLoop.Reporter] so exports on worker goroutines never call them directly.
type MainLoop struct {
	queue  chan func()
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
	logger *log.Logger
}

// NewMainLoop starts a loop that buffers up to size pending functions.
func NewMainLoop(size int, logger *log.Logger) *MainLoop {
	l := &MainLoop{
		queue:  make(chan func(), size),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger,
	}
	go l.run()
	return l
}

func (l *MainLoop) run() {
	defer close(l.done)
	for {
		select {
		case fn := <-l.queue:
			l.call(fn)
		case <-l.stop:
			for {
				select {
				case fn := <-l.queue:
					l.call(fn)
				default:
					return
				}
			}
		}
	}
}

func (l *MainLoop) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("posted function panicked", "panic", r)
		}
	}()
	fn()
}

// Post schedules fn on the loop without waiting for it to run.
//
// Returns false if the loop has been closed.
func (l *MainLoop) Post(fn func()) bool {
	select {
	case <-l.stop:
		return false
	default:
	}

	select {
	case l.queue <- fn:
		return true
	case <-l.stop:
		return false
	}
}

// Reporter wraps r so every report is delivered on the loop.
func (l *MainLoop) Reporter(r Reporter) Reporter {
	return ReporterFunc(func(o models.Outcome) {
		l.Post(func() { r.Report(o) })
	})
}

// Close stops accepting work, runs what is already queued, and waits for the loop to exit.
func (l *MainLoop) Close() {
	l.once.Do(func() { close(l.stop) })
	<-l.done
}
