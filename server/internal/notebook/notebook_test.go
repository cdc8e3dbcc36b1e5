package notebook

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/growthlab/growthlab/pkg/types"
	"github.com/growthlab/growthlab/server/internal/control"
	"github.com/growthlab/growthlab/server/internal/dataset"
)

type countingRecorder struct {
	mu    sync.Mutex
	calls int
	last  types.Summary
}

func (r *countingRecorder) ObserveView(s types.Summary, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.last = s
}

func newNotebook(t *testing.T) *Notebook {
	t.Helper()
	nb, err := New(dataset.DefaultParams(), control.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return nb
}

func TestView_FilterAndSummaryAgree(t *testing.T) {
	nb := newNotebook(t)
	v, err := nb.View(25)
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if v.Summary.Count != len(v.Filtered) {
		t.Errorf("Count %d != len(Filtered) %d", v.Summary.Count, len(v.Filtered))
	}
	if v.Summary.Total != dataset.DefaultSamples {
		t.Errorf("Total: got %d", v.Summary.Total)
	}
	for _, s := range v.Filtered {
		if s.Temperature < 25 {
			t.Fatalf("sample below threshold: %+v", s)
		}
	}
	if !strings.Contains(v.Markdown, "**Temperature Threshold:** 25°C") {
		t.Errorf("markdown: %s", v.Markdown)
	}
	if v.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
}

func TestView_Recorder(t *testing.T) {
	nb := newNotebook(t)
	rec := &countingRecorder{}
	nb.SetRecorder(rec)

	for _, th := range []float64{20, 30} {
		if _, err := nb.View(th); err != nil {
			t.Fatalf("View: %v", err)
		}
	}
	if rec.calls != 2 {
		t.Errorf("calls: got %d, want 2", rec.calls)
	}
	if rec.last.Threshold != 30 {
		t.Errorf("last threshold: got %v, want 30", rec.last.Threshold)
	}
}

func TestNew_InvalidParams(t *testing.T) {
	p := dataset.DefaultParams()
	p.Samples = 0
	if _, err := New(p, control.Default()); err == nil {
		t.Error("expected error for zero samples")
	}
	if _, err := New(dataset.DefaultParams(), control.Slider{Start: 1, Stop: 0, Step: 1}); err == nil {
		t.Error("expected error for invalid slider")
	}
}

func TestRegenerate_NotifiesListeners(t *testing.T) {
	nb := newNotebook(t)
	var called int
	nb.OnRegenerate(func() { called++ })

	p := dataset.DefaultParams()
	p.Samples = 10
	if err := nb.Regenerate(p, control.Default()); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if called != 1 {
		t.Errorf("listener calls: got %d, want 1", called)
	}
	if nb.Dataset().Len() != 10 {
		t.Errorf("Len: got %d, want 10", nb.Dataset().Len())
	}
}

func TestRegenerate_KeepsStateOnError(t *testing.T) {
	nb := newNotebook(t)
	var called int
	nb.OnRegenerate(func() { called++ })

	p := dataset.DefaultParams()
	p.TempMin = 40
	if err := nb.Regenerate(p, control.Default()); err == nil {
		t.Fatal("expected error")
	}
	if called != 0 {
		t.Error("listener called on failed regenerate")
	}
	if nb.Dataset().Len() != dataset.DefaultSamples {
		t.Errorf("dataset replaced on error")
	}
}

func TestView_ConcurrentWithRegenerate(t *testing.T) {
	nb := newNotebook(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%4 == 0 {
				p := dataset.DefaultParams()
				p.Seed = uint64(i)
				_ = nb.Regenerate(p, control.Default())
				return
			}
			if _, err := nb.View(float64(15 + i)); err != nil {
				t.Errorf("View: %v", err)
			}
		}(i)
	}
	wg.Wait()
}
