package notebook

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/growthlab/growthlab/pkg/types"
	"github.com/growthlab/growthlab/server/internal/analysis"
	"github.com/growthlab/growthlab/server/internal/control"
	"github.com/growthlab/growthlab/server/internal/dataset"
	"github.com/growthlab/growthlab/server/internal/report"
)

// View is every output derived from the dataset at one threshold.
type View struct {
	Threshold   float64
	Filtered    []types.Sample
	Summary     types.Summary
	Markdown    string
	GeneratedAt time.Time
}

// Recorder observes recomputations. Implemented by the metrics package.
type Recorder interface {
	ObserveView(s types.Summary, elapsed time.Duration)
}

// Notebook holds the current dataset and slider template.
type Notebook struct {
	mu        sync.RWMutex
	data      dataset.Dataset
	slider    control.Slider
	listeners []func()

	rec Recorder
	now func() time.Time
}

// New generates the dataset from params and returns a Notebook.
func New(params dataset.Params, slider control.Slider) (*Notebook, error) {
	if err := slider.Validate(); err != nil {
		return nil, fmt.Errorf("notebook: %w", err)
	}
	ds, err := dataset.Generate(params)
	if err != nil {
		return nil, fmt.Errorf("notebook: %w", err)
	}
	return &Notebook{data: ds, slider: slider, now: time.Now}, nil
}

// SetRecorder attaches r; nil disables recording.
func (n *Notebook) SetRecorder(r Recorder) {
	n.mu.Lock()
	n.rec = r
	n.mu.Unlock()
}

// Dataset returns the current dataset. Callers must not modify its samples.
func (n *Notebook) Dataset() dataset.Dataset {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.data
}

// Slider returns a copy of the slider template with its default value.
func (n *Notebook) Slider() control.Slider {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.slider
}

// View recomputes every output at threshold.
func (n *Notebook) View(threshold float64) (View, error) {
	n.mu.RLock()
	ds, rec := n.data, n.rec
	n.mu.RUnlock()

	start := n.now()
	filtered, sum := analysis.Analyze(ds.Samples, threshold)
	md, err := report.Markdown(sum)
	if err != nil {
		return View{}, err
	}
	if rec != nil {
		rec.ObserveView(sum, n.now().Sub(start))
	}

	return View{
		Threshold:   threshold,
		Filtered:    filtered,
		Summary:     sum,
		Markdown:    md,
		GeneratedAt: n.now().UTC(),
	}, nil
}

// Regenerate replaces the dataset and slider template. On error the current
// state is kept. Listeners run after the swap, outside the lock.
func (n *Notebook) Regenerate(params dataset.Params, slider control.Slider) error {
	if err := slider.Validate(); err != nil {
		return fmt.Errorf("notebook: %w", err)
	}
	ds, err := dataset.Generate(params)
	if err != nil {
		return fmt.Errorf("notebook: %w", err)
	}

	n.mu.Lock()
	n.data = ds
	n.slider = slider
	listeners := append([]func(){}, n.listeners...)
	n.mu.Unlock()

	slog.Info("notebook: dataset regenerated", "samples", ds.Len(), "seed", params.Seed)
	for _, fn := range listeners {
		fn()
	}
	return nil
}

// OnRegenerate registers fn to be called after every successful Regenerate.
func (n *Notebook) OnRegenerate(fn func()) {
	n.mu.Lock()
	n.listeners = append(n.listeners, fn)
	n.mu.Unlock()
}
