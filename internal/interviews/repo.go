package interviews

import "context"

// RunsRepo records finished runs.
type RunsRepo interface {
	Save(ctx context.Context, run Run) error
	Get(ctx context.Context, id string) (Run, error)
	ListRecent(ctx context.Context, limit int) ([]Run, error)
}
