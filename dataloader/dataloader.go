/**
 * Copyright (c) 2020, The GraphBind Authors.
 *
 * Permission to use, copy, modify, and/or distribute this software for any
 * purpose with or without fee is hereby granted, provided that the above
 * copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Package dataloader batches and deduplicates per-key lookups issued during
// one resolution pass: loads for the same key share one pending slot, the
// open batch is fetched in a single bulk call when the pass's scheduler can
// make no further progress, and completed keys stay cached for the rest of
// the pass.
package dataloader

import (
	"context"
	"errors"
	"sync"

	"github.com/ricky-hartmann-zocdoc/graphbind/concurrent"
	"github.com/ricky-hartmann-zocdoc/graphbind/concurrent/future"
)

// Key is a unique identifier of a value loaded by a Loader. It must be usable
// as a map key.
type Key interface{}

// Config specifies the way a Loader fetches, batches and caches data.
type Config struct {
	// (Required) Fetch is the bulk-fetch collaborator invoked once per closed
	// batch.
	Fetch BulkFetch

	// (Optional) Runner executes the bulk-fetch jobs dispatched by the loader.
	// When nil, fetches run on the goroutine calling Dispatch.
	Runner concurrent.Executor

	// (Optional) Maximum number of keys handed to Fetch in one call. Batches
	// larger than this are split. 0 means unlimited.
	MaxBatchSize uint

	// (Optional) CacheMap specifies the cache holding requested and loaded
	// tasks. Three possible values:
	//
	//  1. nil: caching enabled with a DefaultCacheMap instance;
	//  2. NoCacheMap: caching (and in-batch deduplication) disabled;
	//  3. anything else: a custom CacheMap implementation.
	CacheMap CacheMap
}

// batchQueue is the open batch: the tasks collected since the last dispatch,
// one per distinct key, in first-request order.
type batchQueue struct {
	tasks []*Task
}

// A Loader coalesces single-key loads into bulk fetches. A Loader is scoped
// to one resolution pass; independent passes own independent Loaders and
// never observe each other's batches or caches.
type Loader struct {
	config *Config

	// Guards queue.
	queueMutex sync.Mutex

	// The open batch.
	queue *batchQueue

	// Caches tasks by key; nil when caching is disabled.
	cacheMap CacheMap
}

var (
	errMissingFetch = errors.New("a bulk fetch is required to construct a Loader")
	errMissingKey   = errors.New("must specify key to identify data to be loaded")
)

// New creates a Loader instance from given config.
func New(config Config) (*Loader, error) {
	if config.Fetch == nil {
		return nil, errMissingFetch
	}

	cacheMap := config.CacheMap
	if cacheMap == nil {
		cacheMap = &DefaultCacheMap{}
	} else if cacheMap == NoCacheMap {
		cacheMap = nil
	}

	return &Loader{
		config:   &config,
		queue:    &batchQueue{},
		cacheMap: cacheMap,
	}, nil
}

// Load requests the value identified by key and returns a future for it.
//
// The returned future resolves to a Result: a value, the not-found sentinel,
// or a cancelled outcome. It resolves to an error only when the fetch itself
// failed (for this key or for the whole batch); a missing record is never an
// error.
//
// If the key has already completed in this pass the future is immediately
// ready (no new fetch). If the key is already waiting in the open batch the
// future shares its pending slot (at most one fetch per key per wave).
func (loader *Loader) Load(key Key) (future.Future, error) {
	if key == nil {
		return nil, errMissingKey
	}

	// Completed and in-flight keys are both found here.
	cacheMap := loader.cacheMap
	if cacheMap != nil {
		task := cacheMap.Get(key)
		if task != nil {
			return task.newFuture(), nil
		}
	}

	queueMutex := &loader.queueMutex
	queueMutex.Lock()
	task := loader.enqueue(key)
	queueMutex.Unlock()

	return task.newFuture(), nil
}

// enqueue adds a task for key to the open batch, deduplicating through the
// cache map. Caller must hold queueMutex.
func (loader *Loader) enqueue(key Key) *Task {
	task := newTask(key)

	cacheMap := loader.cacheMap
	if cacheMap != nil {
		cachedTask := cacheMap.Set(task)
		if cachedTask != task {
			// The key was requested before; share its pending slot.
			return cachedTask
		}
	}

	queue := loader.queue
	queue.tasks = append(queue.tasks, task)
	return task
}

// LoadMany requests the values identified by keys and returns a future
// resolving to an []interface{} of Results in key order.
func (loader *Loader) LoadMany(keys ...Key) (future.Future, error) {
	futures := make([]future.Future, 0, len(keys))
	for _, key := range keys {
		f, err := loader.Load(key)
		if err != nil {
			return nil, err
		}
		futures = append(futures, f)
	}
	return future.Join(futures...), nil
}

// Dispatch closes the open batch and fetches it. Keys loaded after Dispatch
// returns (or while the fetch is in flight) form a new batch.
//
// Dispatch is the batch-close trigger: the pass's scheduler calls it exactly
// when no runnable work remains that could enqueue more keys.
func (loader *Loader) Dispatch(ctx context.Context) {
	queueMutex := &loader.queueMutex
	queueMutex.Lock()

	queue := loader.queue
	if len(queue.tasks) == 0 {
		queueMutex.Unlock()
		return
	}

	// Detach the batch; whoever detached it performs the fetch.
	loader.queue = &batchQueue{}
	queueMutex.Unlock()

	maxBatchSize := int(loader.config.MaxBatchSize)
	tasks := queue.tasks
	if maxBatchSize == 0 || len(tasks) <= maxBatchSize {
		loader.dispatchBatch(ctx, tasks)
		return
	}

	for len(tasks) > 0 {
		n := maxBatchSize
		if n > len(tasks) {
			n = len(tasks)
		}
		loader.dispatchBatch(ctx, tasks[:n])
		tasks = tasks[n:]
	}
}

// dispatchBatch hands one closed batch to the fetch job, either inline or on
// the configured runner.
func (loader *Loader) dispatchBatch(ctx context.Context, tasks []*Task) {
	job := &batchFetchJob{
		ctx:    ctx,
		loader: loader,
		tasks:  tasks,
	}

	runner := loader.config.Runner
	if runner == nil {
		// Run the job on the current goroutine.
		job.Run()
		return
	}

	if _, err := runner.Submit(job); err != nil {
		// The job will never run; settle every pending slot with the rejection
		// so no caller blocks on the batch forever.
		job.failAll(err)
	}
}

// Clear removes the value for the given key from the cache.
func (loader *Loader) Clear(key Key) {
	cacheMap := loader.cacheMap
	if cacheMap != nil {
		cacheMap.Delete(key)
	}
}

// ClearAll clears the entire cache.
func (loader *Loader) ClearAll() {
	cacheMap := loader.cacheMap
	if cacheMap != nil {
		cacheMap.Clear()
	}
}

// Prime adds the provided key and outcome to the cache. If the key already
// exists, no change is made.
func (loader *Loader) Prime(key Key, outcome Result) error {
	cacheMap := loader.cacheMap
	if cacheMap != nil {
		task := newTask(key)
		if err := task.Complete(outcome); err != nil {
			return err
		}
		cacheMap.Set(task)
	}
	return nil
}

// PrimeError adds the provided key with an error to the cache. If the key
// already exists, no change is made.
func (loader *Loader) PrimeError(key Key, err error) error {
	cacheMap := loader.cacheMap
	if cacheMap != nil {
		task := newTask(key)
		if taskErr := task.Fail(err); taskErr != nil {
			return taskErr
		}
		cacheMap.Set(task)
	}
	return nil
}

//===---------------------------------------------------------------------===//
// batchFetchJob
//===---------------------------------------------------------------------===//

// batchFetchJob fetches the data required by the tasks of one closed batch
// and fans the results back out, one outcome per key.
type batchFetchJob struct {
	ctx    context.Context
	loader *Loader
	tasks  []*Task
}

// Run implements concurrent.Task, allowing a batchFetchJob to be executed by
// a concurrent.Executor.
func (job *batchFetchJob) Run() (interface{}, error) {
	tasks := job.tasks

	// A pass cancelled before fetching begins discards the batch: every
	// pending slot observes the terminal cancelled outcome, and no fetch is
	// issued. Cancellation arriving later does not abort the in-flight call;
	// its results still land in the cache below.
	if job.ctx.Err() != nil {
		for _, task := range tasks {
			task.Complete(cancelledResult)
		}
		return nil, nil
	}

	keys := make([]Key, len(tasks))
	for i, task := range tasks {
		keys[i] = task.Key()
	}

	results, err := job.loader.config.Fetch.FetchMany(job.ctx, keys)
	switch {
	case err != nil:
		// A failed bulk fetch cannot be attributed to individual keys; every
		// pending slot fails with the same underlying error.
		job.failAll(err)

	case len(results) != len(keys):
		job.failAll(&BatchSizeMismatchError{
			NumKeys:    len(keys),
			NumResults: len(results),
		})

	default:
		for i, task := range tasks {
			result := results[i]
			if result.kind == resultKindErr {
				task.Fail(result.err)
			} else {
				task.Complete(result)
			}
		}
	}

	return nil, nil
}

func (job *batchFetchJob) failAll(err error) {
	for _, task := range job.tasks {
		task.Fail(err)
	}
}
