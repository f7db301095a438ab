package ui

import (
	"strings"
	"testing"
	"time"

	"monogen/internal/driver"
)

func TestProgressModelTracksFiles(t *testing.T) {
	events := make(chan driver.Event)
	m := NewProgressModel("check demo", []string{"a.yaml", "b.yaml"}, events).(*progressModel)

	m.applyEvent(driver.Event{File: "a.yaml", Stage: driver.StageInstantiate, Status: driver.StatusWorking})
	m.applyEvent(driver.Event{File: "b.yaml", Stage: driver.StageParse, Status: driver.StatusError})
	m.applyEvent(driver.Event{File: "b.yaml", Stage: driver.StageCalls, Status: driver.StatusDone})
	m.applyEvent(driver.Event{File: "unknown.yaml", Stage: driver.StageParse, Status: driver.StatusWorking})
	m.applyEvent(driver.Event{Stage: driver.StageCalls, Status: driver.StatusWorking})

	if m.files[0].status != "instantiating" {
		t.Fatalf("a.yaml status %q", m.files[0].status)
	}
	if m.files[1].status != "error" {
		t.Fatalf("errors must stick, got %q", m.files[1].status)
	}
	if m.stageLabel != "checking" {
		t.Fatalf("stage label %q", m.stageLabel)
	}
	if got := m.completion(); got < 0.79 || got > 0.81 {
		t.Fatalf("completion %.2f, want 0.80", got)
	}
	view := m.View()
	if !strings.Contains(view, "a.yaml") || !strings.Contains(view, "check demo (checking)") {
		t.Fatalf("unexpected view:\n%s", view)
	}
	if !strings.Contains(view, "1/2 files") {
		t.Fatalf("missing file counter:\n%s", view)
	}
}

func TestProgressModelAccumulatesElapsed(t *testing.T) {
	m := NewProgressModel("check", []string{"a.yaml"}, nil).(*progressModel)
	m.applyEvent(driver.Event{File: "a.yaml", Stage: driver.StageParse, Status: driver.StatusWorking, Elapsed: 2 * time.Millisecond})
	m.applyEvent(driver.Event{File: "a.yaml", Stage: driver.StageCalls, Status: driver.StatusDone, Elapsed: 3 * time.Millisecond})
	if m.files[0].elapsed != 5*time.Millisecond {
		t.Fatalf("elapsed = %s", m.files[0].elapsed)
	}
	if got := m.completion(); got != 1 {
		t.Fatalf("completion = %v", got)
	}
	if !strings.Contains(m.View(), "5ms") {
		t.Fatalf("view lacks elapsed time:\n%s", m.View())
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("instantiations/collections.yaml", 12); got != "instantia..." {
		t.Fatalf("Truncate = %q", got)
	}
	if got := Truncate("short", 12); got != "short" {
		t.Fatalf("Truncate = %q", got)
	}
	if got := Truncate("漢字漢字", 3); got != "漢" {
		t.Fatalf("Truncate wide = %q", got)
	}
}
