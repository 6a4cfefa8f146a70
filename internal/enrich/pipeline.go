package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrNotStarted marks items that were never run because the context was
// cancelled first.
var ErrNotStarted = errors.New("enrich: item not started")

// Pipeline coordinates the execution of a sequence of stages for an item.
// Steps within the same stage run in parallel, and stages themselves run
// sequentially. The first stage with a failing step ends the item's run.
//
// Pipeline is generic over the item type T and holds no per-item state, so
// one Pipeline can serve any number of concurrent items.
type Pipeline[T any] struct {
	stages []Stage[T]
}

// NewPipeline constructs a Pipeline from the provided stages. Stages will be
// applied to each item in order.
func NewPipeline[T any](stages ...Stage[T]) *Pipeline[T] {
	return &Pipeline[T]{stages: stages}
}

// Run applies the stages to item. It returns the joined errors of the first
// stage that had any failing step, prefixed with the stage name; later stages
// are not run.
func (p *Pipeline[T]) Run(ctx context.Context, item *T) error {
	for _, stage := range p.stages {
		if err := runStage(ctx, stage, item); err != nil {
			return fmt.Errorf("%s stage: %w", stage.name, err)
		}
	}
	return nil
}

func runStage[T any](ctx context.Context, stage Stage[T], item *T) error {
	if len(stage.steps) == 1 {
		return stage.steps[0](ctx, item)
	}

	errs := make([]error, len(stage.steps))
	var wg sync.WaitGroup
	for i, step := range stage.steps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = step(ctx, item)
		}()
	}
	wg.Wait() // stage barrier: ensure all steps finished before the next stage
	return errors.Join(errs...)
}

// RunAll runs every item through the pipeline on at most workers goroutines
// and returns one error slot per item, in input order. A failing item never
// affects the others. After ctx is cancelled no further item is started;
// those items get an error wrapping ErrNotStarted. RunAll returns once all
// started items have finished.
func (p *Pipeline[T]) RunAll(ctx context.Context, items []*T, workers int) []error {
	if workers < 1 {
		workers = 1
	}
	errs := make([]error, len(items))

	// A plain Group: one item's failure must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(workers)
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(items); j++ {
				errs[j] = fmt.Errorf("%w: %w", ErrNotStarted, err)
			}
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = fmt.Errorf("%w: %w", ErrNotStarted, err)
				return nil
			}
			errs[i] = p.Run(ctx, item)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}
