package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/tracklist/internal/shared"
)

// Sync sequences a mutation with a re-fetch of the data a view displays.
//
// Refresh is only issued after the mutation resolves successfully. OnMutated runs between the
// two, which is where a caller marks its state as loading.
type Sync[T any] struct {
	Refresh   func(ctx context.Context) (T, error)
	OnMutated func()
	Progress  chan<- ProgressUpdate
}

// Apply runs mutate and then Refresh.
//
// A mutation error is returned unchanged and nothing is re-fetched. A refresh error is wrapped
// with [shared.ErrRefreshAfterMutation] so callers can tell a saved change from a failed one.
// With no Refresh set, Apply returns the zero value after a successful mutation.
func (s Sync[T]) Apply(ctx context.Context, name string, mutate func(ctx context.Context) error) (T, error) {
	var zero T

	sendProgress(s.Progress, mutateUpdate(name))
	if err := mutate(ctx); err != nil {
		return zero, err
	}

	if s.OnMutated != nil {
		s.OnMutated()
	}

	if s.Refresh == nil {
		return zero, nil
	}

	sendProgress(s.Progress, refreshUpdate(name))
	v, err := s.Refresh(ctx)
	if err != nil {
		return zero, fmt.Errorf("%w: %s: %w", shared.ErrRefreshAfterMutation, name, err)
	}
	return v, nil
}
