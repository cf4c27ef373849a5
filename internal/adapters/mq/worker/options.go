// Package worker runs the background replay verifiers.
package worker

import (
	"github.com/okian/sideout/pkg/logger"
)

// Option applies a configuration option to the ReplayWorker.
type Option func(*ReplayWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *ReplayWorker) {
		if name != "" {
			w.name = name
			w.logger = logger.Get().Named(name)
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *ReplayWorker) {
		if l != nil {
			w.logger = l
		}
	}
}
