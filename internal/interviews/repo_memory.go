package interviews

import (
	"context"
	"sort"
	"sync"
)

const defaultMemoryCapacity = 500

// MemoryRepo keeps the most recent runs in process memory.
type MemoryRepo struct {
	mu       sync.RWMutex
	capacity int
	runs     map[string]Run
	order    []string // oldest first
}

// NewMemoryRepo constructs a MemoryRepo holding at most capacity runs
// (500 when capacity is not positive).
func NewMemoryRepo(capacity int) *MemoryRepo {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &MemoryRepo{
		capacity: capacity,
		runs:     make(map[string]Run),
	}
}

// Save stores or replaces a run, evicting the oldest when full.
func (r *MemoryRepo) Save(ctx context.Context, run Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[run.ID]; !ok {
		r.order = append(r.order, run.ID)
	}
	r.runs[run.ID] = cloneRun(run)
	for len(r.order) > r.capacity {
		delete(r.runs, r.order[0])
		r.order = r.order[1:]
	}
	return nil
}

// Get returns a run by ID.
func (r *MemoryRepo) Get(ctx context.Context, id string) (Run, error) {
	if err := ctx.Err(); err != nil {
		return Run{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return Run{}, ErrNotFound
	}
	return cloneRun(run), nil
}

// ListRecent returns up to limit runs, newest first.
func (r *MemoryRepo) ListRecent(ctx context.Context, limit int) ([]Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	runs := make([]Run, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, cloneRun(run))
	}
	r.mu.RUnlock()

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func cloneRun(run Run) Run {
	if run.Banners != nil {
		run.Banners = append([]Banner(nil), run.Banners...)
	}
	if run.CompletedAt != nil {
		completed := *run.CompletedAt
		run.CompletedAt = &completed
	}
	return run
}

var _ RunsRepo = (*MemoryRepo)(nil)
