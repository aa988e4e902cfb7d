package worker

import "context"

// Worker is a long-running background process owned by a module. Run
// blocks until the context is cancelled or the worker fails.
type Worker interface {
	Run(ctx context.Context) error
}
