package service

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/joeblew999/plat-carto/internal/style"
)

// Phase is the controller state.
type Phase string

const (
	PhaseDefault  Phase = "default"  // static layer style, no bins seen yet
	PhaseComputed Phase = "computed" // style derived from the latest bins
)

// Snapshot is the style currently held by a StyleReducer.
type Snapshot struct {
	Phase     Phase
	Document  style.Document
	Legend    []style.LegendEntry
	Buckets   int
	Revision  uint64
	ETag      string
	UpdatedAt time.Time
}

// StyleReducer owns the current style of one page session. It is the only
// writer of that style; the map layer reads it on its next render.
type StyleReducer struct {
	id     string
	cfg    style.Config
	bus    *EventBus
	logger *log.Logger

	mu      sync.Mutex
	current Snapshot
}

// NewStyleReducer starts in PhaseDefault holding initial.
func NewStyleReducer(id string, cfg style.Config, initial style.Document, bus *EventBus, logger *log.Logger) *StyleReducer {
	if logger == nil {
		logger = log.Default()
	}
	return &StyleReducer{
		id:     id,
		cfg:    cfg,
		bus:    bus,
		logger: logger,
		current: Snapshot{
			Phase:     PhaseDefault,
			Document:  initial,
			Legend:    []style.LegendEntry{},
			ETag:      initial.ETag(),
			UpdatedAt: time.Now(),
		},
	}
}

// Current returns the held snapshot. Legend must be treated as read-only.
func (r *StyleReducer) Current() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// OnBucketDataChanged derives a new style from data and replaces the held
// one. On error the previous style stays in effect.
func (r *StyleReducer) OnBucketDataChanged(data style.BucketData) (Snapshot, error) {
	if err := data.Validate(); err != nil {
		return Snapshot{}, err
	}

	r.mu.Lock()
	doc, assigned, err := r.cfg.Build(data.Bins)
	if err != nil {
		r.mu.Unlock()
		return Snapshot{}, err
	}
	next := Snapshot{
		Phase:     PhaseComputed,
		Document:  doc,
		Legend:    style.Legend(assigned),
		Buckets:   len(data.Bins),
		Revision:  r.current.Revision + 1,
		ETag:      doc.ETag(),
		UpdatedAt: time.Now(),
	}
	r.current = next
	r.mu.Unlock()

	r.logger.Info("style updated", "session", r.id, "revision", next.Revision, "buckets", next.Buckets)
	if r.bus != nil {
		r.bus.Publish(Event{Resource: "style", Action: "updated", ID: r.id, Revision: next.Revision})
	}
	return next, nil
}

// OnBucketJSON parses raw widget data and applies it.
func (r *StyleReducer) OnBucketJSON(raw []byte) (Snapshot, error) {
	data, err := style.ParseBucketData(raw)
	if err != nil {
		return Snapshot{}, err
	}
	return r.OnBucketDataChanged(data)
}
