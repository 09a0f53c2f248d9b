// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package batch runs independent simulations concurrently.
//
package batch

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// A Job is a unit of work, typically building and running a circuit. Jobs
// must not share mutable state.
//
type Job[T any] func(ctx context.Context) (T, error)

// Run runs jobs on at most workers goroutines and returns their results in
// job order. If workers <= 0, GOMAXPROCS is used.
//
// The first job error cancels the context passed to the remaining jobs and is
// returned once all started jobs have completed.
//
func Run[T any](ctx context.Context, workers int, jobs []Job[T]) ([]T, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	res := make([]T, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := j(gctx)
			if err != nil {
				return err
			}
			res[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// Collect runs all jobs like Run, but does not stop on errors. It returns the
// results and errors of all jobs, in job order.
//
func Collect[T any](ctx context.Context, workers int, jobs []Job[T]) ([]T, []error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	res := make([]T, len(jobs))
	errs := make([]error, len(jobs))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, j := range jobs {
		g.Go(func() error {
			res[i], errs[i] = j(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return res, errs
}
