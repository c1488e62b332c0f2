package wizard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Patch holds top-level form fields by JSON name.
type Patch map[string]any

// Coordinator walks a fixed list of steps and accumulates form data of type
// T. Only the form data survives a restart; step position and completion
// start over.
type Coordinator[T any] struct {
	mu        sync.Mutex
	steps     []string
	current   int
	completed []bool
	data      T
	initial   T
	store     Store
}

// NewCoordinator loads previously persisted data from store, falling back to
// initial when there is none or it cannot be decoded. It panics if steps is
// empty.
func NewCoordinator[T any](steps []string, initial T, store Store) *Coordinator[T] {
	if len(steps) == 0 {
		panic("wizard: coordinator needs at least one step")
	}
	if store == nil {
		store = NewMemoryStore()
	}
	c := &Coordinator[T]{
		steps:     append([]string(nil), steps...),
		completed: make([]bool, len(steps)),
		data:      initial,
		initial:   initial,
		store:     store,
	}
	c.load()
	return c
}

func (c *Coordinator[T]) load() {
	raw, ok, err := c.store.Get(StorageKey)
	if err != nil {
		slog.Warn("Error reading persisted form data", "key", StorageKey, "error", err)
		return
	}
	if !ok {
		return
	}
	// null decodes without error into the zero value, which is not the
	// initial data.
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		slog.Warn("Discarding null persisted form data", "key", StorageKey)
		return
	}
	var data T
	if err := json.Unmarshal(raw, &data); err != nil {
		slog.Warn("Discarding corrupt persisted form data", "key", StorageKey, "error", err)
		return
	}
	c.data = data
}

// persist writes the data. Caller holds mu.
func (c *Coordinator[T]) persist() {
	raw, err := json.Marshal(c.data)
	if err == nil {
		err = c.store.Set(StorageKey, raw)
	}
	if err != nil {
		slog.Error("Error persisting form data", "key", StorageKey, "error", err)
	}
}

// Next marks the current step completed and advances. No-op on the last step.
func (c *Coordinator[T]) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current >= len(c.steps)-1 {
		return
	}
	c.completed[c.current] = true
	c.current++
}

// Prev goes back one step without touching completion. No-op on the first step.
func (c *Coordinator[T]) Prev() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current > 0 {
		c.current--
	}
}

// GoToStep jumps to step i and reports whether i was in range.
func (c *Coordinator[T]) GoToStep(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.steps) {
		return false
	}
	c.current = i
	return true
}

// UpdateFormData replaces the top-level fields named in patch and persists
// the result. Fields absent from patch keep their values.
func (c *Coordinator[T]) UpdateFormData(patch Patch) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	merged, err := mergeTopLevel(c.data, patch)
	if err != nil {
		return err
	}
	c.data = merged
	c.persist()
	return nil
}

// Reset returns to the first step with the initial data and no completed steps.
func (c *Coordinator[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = 0
	c.completed = make([]bool, len(c.steps))
	c.data = c.initial
	c.persist()
}

func (c *Coordinator[T]) Data() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data
}

func (c *Coordinator[T]) CurrentStep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Coordinator[T]) CurrentStepName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.steps[c.current]
}

func (c *Coordinator[T]) Steps() []string {
	return append([]string(nil), c.steps...)
}

// CompletedSteps returns one flag per step.
func (c *Coordinator[T]) CompletedSteps() []bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]bool(nil), c.completed...)
}

func (c *Coordinator[T]) IsFirstStep() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current == 0
}

func (c *Coordinator[T]) IsLastStep() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current == len(c.steps)-1
}

// Progress is the percentage of steps reached, counting the current one.
func (c *Coordinator[T]) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(c.current+1) / float64(len(c.steps)) * 100
}

func mergeTopLevel[T any](data T, patch Patch) (T, error) {
	var out T
	raw, err := json.Marshal(data)
	if err != nil {
		return out, fmt.Errorf("encode form data: %w", err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return out, fmt.Errorf("form data is not a JSON object: %w", err)
	}
	for k, v := range patch {
		b, err := json.Marshal(v)
		if err != nil {
			return out, fmt.Errorf("encode field %q: %w", k, err)
		}
		fields[k] = b
	}
	raw, err = json.Marshal(fields)
	if err != nil {
		return out, fmt.Errorf("encode merged form data: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("apply patch: %w", err)
	}
	return out, nil
}
