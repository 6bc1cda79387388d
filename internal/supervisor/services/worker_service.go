// Murmur - Realtime Presence and Event Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/murmur

package services

import (
	"context"
	"fmt"
)

// WorkerService adapts a blocking func(ctx) error to suture.Service.
//
// Used for loops that have no type of their own, such as the badger
// session store's value log GC:
//
//	tree.AddDataService(services.NewWorkerService("session-gc", func(ctx context.Context) error {
//	    return store.RunGC(ctx, 10*time.Minute)
//	}))
//
// A nil run waits for cancellation.
type WorkerService struct {
	name string
	run  func(ctx context.Context) error
}

// NewWorkerService creates a named worker.
func NewWorkerService(name string, run func(ctx context.Context) error) *WorkerService {
	return &WorkerService{name: name, run: run}
}

// Serve implements suture.Service. An error returned while ctx is still
// live is wrapped with the worker name so restarts are attributable.
func (w *WorkerService) Serve(ctx context.Context) error {
	if w.run == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	err := w.run(ctx)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("%s: %w", w.name, err)
	}
	return err
}

// String implements fmt.Stringer for suture logging.
func (w *WorkerService) String() string {
	return w.name
}
