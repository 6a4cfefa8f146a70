// Package enrich turns registry records into enriched records: a small
// generic pipeline runs the per-record steps, and the Orchestrator wires the
// fetch, parse and transform steps into it and runs records on a bounded pool.
package enrich

import (
	"context"
)

// Step represents a single operation that mutates the given item.
// Implementations should be safe to run concurrently with other steps in the
// same stage operating on the same item. A step that fails returns an error;
// the pipeline then skips the item's remaining stages.
//
// The item pointer allows steps to hand results to later stages.
type Step[T any] func(ctx context.Context, item *T) error

// Stage groups a set of steps that are safe to execute in parallel for a
// single item. All steps in a stage are started together, and the pipeline waits
// for them to complete before moving to the next stage.
//
// Note: Step functions must coordinate on shared fields if they might write to
// the same location concurrently.
type Stage[T any] struct {
	name  string
	steps []Step[T]
}

// NewStage constructs a named Stage from the provided steps.
func NewStage[T any](name string, steps ...Step[T]) Stage[T] {
	return Stage[T]{name: name, steps: steps}
}
