package exporter

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackport/internal/models"
)

var (
	exported = models.Outcome{
		Request:     request,
		Status:      models.StatusExported,
		Target:      TargetDirect,
		DisplayName: "Band - Song.webm",
		Location:    "/music/trackport/Band - Song.webm",
		Bytes:       42,
	}
	noData = models.Outcome{Request: request, Status: models.StatusNoData, DisplayName: "Band - Song.webm"}
	failed = models.Outcome{Request: request, Status: models.StatusFailed, DisplayName: "Band - Song.webm", Err: errors.New("disk full")}
)

func TestLogReporter(t *testing.T) {
	tests := []struct {
		name    string
		outcome models.Outcome
		want    []string
	}{
		{name: "exported", outcome: exported, want: []string{"INFO", "export finished", "location"}},
		{name: "no data", outcome: noData, want: []string{"WARN", "nothing cached"}},
		{name: "failed", outcome: failed, want: []string{"ERRO", "export failed", "disk full"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewLogReporter(log.New(&buf)).Report(tt.outcome)

			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("log output %q does not contain %q", buf.String(), w)
				}
			}
		})
	}
}

func TestConsoleReporter(t *testing.T) {
	tests := []struct {
		name    string
		outcome models.Outcome
		want    string
	}{
		{name: "exported", outcome: exported, want: "Saved Band - Song.webm to /music/trackport/Band - Song.webm"},
		{name: "no data", outcome: noData, want: "Nothing cached for Band - Song.webm"},
		{name: "failed", outcome: failed, want: "failed: disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewConsoleReporter(&buf).Report(tt.outcome)

			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q does not contain %q", buf.String(), tt.want)
			}
			if !strings.HasSuffix(buf.String(), "\n") {
				t.Error("expected one line per outcome")
			}
		})
	}
}

func TestMultiReporter(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	MultiReporter{a, nil, b}.Report(exported)

	if len(a.all()) != 1 || len(b.all()) != 1 {
		t.Errorf("expected both reporters to receive the outcome")
	}
}

func TestMainLoop(t *testing.T) {
	t.Run("runs posted functions in order on one goroutine", func(t *testing.T) {
		loop := NewMainLoop(16, log.New(io.Discard))

		var (
			mu    sync.Mutex
			order []int
		)
		for i := range 10 {
			if !loop.Post(func() {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, i)
			}) {
				t.Fatalf("Post(%d) rejected", i)
			}
		}
		loop.Close()

		if len(order) != 10 {
			t.Fatalf("ran %d functions, want 10", len(order))
		}
		for i, v := range order {
			if v != i {
				t.Errorf("order[%d] = %d", i, v)
			}
		}
	})

	t.Run("post after close is rejected", func(t *testing.T) {
		loop := NewMainLoop(1, log.New(io.Discard))
		loop.Close()
		loop.Close()

		if loop.Post(func() {}) {
			t.Error("Post after Close should return false")
		}
	})

	t.Run("survives a panicking function", func(t *testing.T) {
		loop := NewMainLoop(4, log.New(io.Discard))
		loop.Post(func() { panic("boom") })

		done := make(chan struct{})
		loop.Post(func() { close(done) })

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("loop stopped after a panic")
		}
		loop.Close()
	})

	t.Run("wrapped reporter delivers on the loop", func(t *testing.T) {
		loop := NewMainLoop(4, log.New(io.Discard))
		rec := &recorder{}

		var wg sync.WaitGroup
		reporter := loop.Reporter(rec)
		for range 3 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				reporter.Report(exported)
			}()
		}
		wg.Wait()
		loop.Close()

		if len(rec.all()) != 3 {
			t.Errorf("expected 3 reports, got %d", len(rec.all()))
		}
	})
}
