// Package match implements the bounded-concurrency log-match driver
// described in spec §5 and expanded in spec §6.7: a fixed pool of
// worker goroutines, each holding its own *matchy.Handle (and
// therefore its own query cache) opened against the same underlying
// mmap, draining a buffered channel of input lines.
package match

import (
	"bufio"
	"context"
	"io"
	"runtime"
	"sync"

	"github.com/sethhall/matchy"
	"github.com/sethhall/matchy/cmd/matchy/internal/pattern"
)

// Result is one matched candidate extracted from one line of input.
type Result struct {
	Line      int
	Candidate pattern.Candidate
	Query     matchy.QueryResult
}

// Options configures Run.
type Options struct {
	// Workers is the worker pool size. <= 0 defaults to runtime.NumCPU().
	Workers int
	// CacheCapacity is each worker's own Handle query cache capacity.
	CacheCapacity int
}

type lineJob struct {
	lineNo int
	text   string
}

// Run scans every line of r for indicator candidates via
// pattern.Extract and queries the database at dbPath for each one,
// calling fn for every non-NotFound result. fn may be invoked
// concurrently from multiple workers and is responsible for its own
// synchronization.
//
// Each worker opens its own *matchy.Handle against dbPath: the mmap
// pages are shared by the OS across all of them, but each worker's
// query cache is independent, so no result-cache locking is shared
// across goroutines (spec §5 "Backpressure").
func Run(ctx context.Context, dbPath string, r io.Reader, opts Options, fn func(Result)) error {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	lines := make(chan lineJob, 2*workers)
	errs := make(chan error, workers)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runWorker(dbPath, opts.CacheCapacity, lines, fn, errs)
		}()
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
feed:
	for scanner.Scan() {
		lineNo++
		select {
		case lines <- lineJob{lineNo: lineNo, text: scanner.Text()}:
		case <-ctx.Done():
			break feed
		}
	}
	close(lines)
	wg.Wait()
	close(errs)

	if err := scanner.Err(); err != nil {
		return err
	}
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return ctx.Err()
}

func runWorker(dbPath string, cacheCapacity int, lines <-chan lineJob, fn func(Result), errs chan<- error) {
	h, err := matchy.Open(dbPath, matchy.WithCacheCapacity(cacheCapacity))
	if err != nil {
		errs <- err
		return
	}
	defer h.Close()

	for job := range lines {
		for _, cand := range pattern.Extract(job.text) {
			res, err := h.Query(cand.Value)
			if err != nil {
				errs <- err
				continue
			}
			if res.Kind == matchy.NotFound {
				continue
			}
			fn(Result{Line: job.lineNo, Candidate: cand, Query: res})
		}
	}
}
