package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"pixelgroomer/internal/domain"
)

func newPlanner(fs *memFS, reader fakeReader) *Planner {
	return &Planner{FS: fs, Prober: Prober{Reader: reader}, Workers: 3}
}

func TestPlannerPairsRAWAndJPEG(t *testing.T) {
	fs := newMemFS()
	fs.add("/sd/DCIM/IMG_001.CR3", "raw", baseTime)
	fs.add("/sd/DCIM/IMG_001.JPG", "jpg", baseTime)

	planner := newPlanner(fs, fakeReader{meta: map[string]Metadata{
		"/sd/DCIM/IMG_001.CR3": dated(baseTime, "EOS R5"),
		"/sd/DCIM/IMG_001.JPG": dated(baseTime, "EOS R5"),
	}})

	plan, err := planner.Plan(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Actions) != 2 || plan.Summary.Shots != 1 {
		t.Fatalf("expected 2 actions in 1 shot, got %d in %d", len(plan.Actions), plan.Summary.Shots)
	}
	if plan.Actions[0].Destination != "/lib/2026-01-24/20260124_001.cr3" {
		t.Fatalf("unexpected RAW destination: %s", plan.Actions[0].Destination)
	}
	if plan.Actions[1].Destination != "/lib/2026-01-24/20260124_001.jpg" {
		t.Fatalf("unexpected JPEG destination: %s", plan.Actions[1].Destination)
	}
	if plan.Actions[0].Source.RelativePath != "DCIM/IMG_001.CR3" {
		t.Fatalf("unexpected relative path: %s", plan.Actions[0].Source.RelativePath)
	}
}

func TestPlannerFlagsFallbackDates(t *testing.T) {
	fs := newMemFS()
	modTime := baseTime.Add(-48 * time.Hour)
	fs.add("/sd/IMG_001.JPG", "a", baseTime)
	fs.add("/sd/IMG_002.JPG", "b", modTime)

	planner := newPlanner(fs, fakeReader{
		meta: map[string]Metadata{"/sd/IMG_001.JPG": dated(baseTime, "")},
		errs: map[string]error{"/sd/IMG_002.JPG": errors.New("corrupt header")},
	})

	plan, err := planner.Plan(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Summary.Fallbacks != 1 {
		t.Fatalf("expected 1 fallback, got %d", plan.Summary.Fallbacks)
	}
	var fallback domain.PlannedAction
	for _, a := range plan.Actions {
		if a.Source.IsFallback() {
			fallback = a
		}
	}
	if !fallback.Source.TakenAt.Equal(modTime) {
		t.Fatalf("expected file time %v, got %v", modTime, fallback.Source.TakenAt)
	}
	if !strings.HasPrefix(fallback.Destination, "/lib/2026-01-22/") {
		t.Fatalf("fallback file filed under wrong day: %s", fallback.Destination)
	}
	if len(plan.Warnings) != 1 || !strings.Contains(plan.Warnings[0], "corrupt header") {
		t.Fatalf("expected a degraded probe warning, got %v", plan.Warnings)
	}
}

func TestPlannerCountsUnsupportedAndSkipsHidden(t *testing.T) {
	fs := newMemFS()
	fs.add("/sd/IMG_001.JPG", "a", baseTime)
	fs.add("/sd/IMG_001.MP4", "video", baseTime)
	fs.add("/sd/notes.txt", "text", baseTime)
	fs.add("/sd/.Trashes/IMG_009.JPG", "trash", baseTime)
	fs.add("/sd/._IMG_001.JPG", "resource fork", baseTime)

	planner := newPlanner(fs, fakeReader{meta: map[string]Metadata{"/sd/IMG_001.JPG": dated(baseTime, "")}})

	plan, err := planner.Plan(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(plan.Actions))
	}
	if plan.Summary.Unsupported != 2 {
		t.Fatalf("expected 2 unsupported files, got %d", plan.Summary.Unsupported)
	}
}

func TestPlannerWarnsAboutExistingDestinations(t *testing.T) {
	fs := newMemFS()
	fs.add("/sd/IMG_001.JPG", "a", baseTime)
	fs.add("/lib/2026-01-24/20260124_001.jpg", "old", baseTime)

	planner := newPlanner(fs, fakeReader{meta: map[string]Metadata{"/sd/IMG_001.JPG": dated(baseTime, "")}})

	plan, err := planner.Plan(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Summary.Existing != 1 {
		t.Fatalf("expected 1 existing destination, got %d", plan.Summary.Existing)
	}
	if len(plan.Warnings) != 1 || !strings.Contains(plan.Warnings[0], "already exists") {
		t.Fatalf("expected existing warning, got %v", plan.Warnings)
	}
}

func TestPlannerReportsStatesAndProgress(t *testing.T) {
	fs := newMemFS()
	fs.add("/sd/IMG_001.JPG", "a", baseTime)
	fs.add("/sd/IMG_002.JPG", "b", baseTime)

	var (
		mu       sync.Mutex
		states   []domain.RunState
		progress []int
	)
	planner := newPlanner(fs, fakeReader{})
	planner.OnState = func(s domain.RunState) { states = append(states, s) }
	planner.OnProgress = func(current, total int) {
		mu.Lock()
		defer mu.Unlock()
		progress = append(progress, current)
	}

	if _, err := planner.Plan(context.Background(), testConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []domain.RunState{domain.StateScanning, domain.StateProbing, domain.StateGrouping, domain.StatePlanBuilt}
	if len(states) != len(want) {
		t.Fatalf("expected states %v, got %v", want, states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("expected states %v, got %v", want, states)
		}
	}
	if len(progress) != 2 || progress[1] != 2 {
		t.Fatalf("unexpected progress: %v", progress)
	}
}

func TestPlannerStopsOnCancel(t *testing.T) {
	fs := newMemFS()
	fs.add("/sd/IMG_001.JPG", "a", baseTime)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPlanner(fs, fakeReader{}).Plan(ctx, testConfig())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPlannerRequiresReader(t *testing.T) {
	planner := Planner{FS: newMemFS()}
	if _, err := planner.Plan(context.Background(), testConfig()); err == nil {
		t.Fatalf("expected error without metadata reader")
	}
}
