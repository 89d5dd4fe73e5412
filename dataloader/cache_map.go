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

package dataloader

import "sync"

// CacheMap stores the Task loading each requested key. It serves double duty:
// it deduplicates keys within the open batch (an enqueued key's task is found
// here and shared) and it is the pass-scoped cache that makes repeated loads
// of a completed key free. Loaders live for one resolution pass, so the cache
// is discarded with them when the pass ends.
//
// All methods must be safe for concurrent use by multiple goroutines.
type CacheMap interface {
	// Get returns the task cached for a key or nil if no task is present.
	Get(key Key) *Task

	// Set caches the task. If a task for the same key already exists, the
	// existing task is returned; otherwise the given task is added and
	// returned.
	Set(task *Task) *Task

	// Delete removes the cached task for the given key.
	Delete(key Key)

	// Clear resets the cache.
	Clear()
}

//===---------------------------------------------------------------------===//
// DefaultCacheMap
//===---------------------------------------------------------------------===//

// DefaultCacheMap is used when Config.CacheMap is not set.
type DefaultCacheMap struct {
	m sync.Map
}

var _ CacheMap = (*DefaultCacheMap)(nil)

// Get implements CacheMap.
func (cacheMap *DefaultCacheMap) Get(key Key) *Task {
	task, ok := cacheMap.m.Load(key)
	if !ok {
		return nil
	}
	return task.(*Task)
}

// Set implements CacheMap.
func (cacheMap *DefaultCacheMap) Set(task *Task) *Task {
	t, _ := cacheMap.m.LoadOrStore(task.Key(), task)
	return t.(*Task)
}

// Delete implements CacheMap.
func (cacheMap *DefaultCacheMap) Delete(key Key) {
	cacheMap.m.Delete(key)
}

// Clear implements CacheMap.
func (cacheMap *DefaultCacheMap) Clear() {
	m := &cacheMap.m
	m.Range(func(key, _ interface{}) bool {
		m.Delete(key)
		return true
	})
}

//===---------------------------------------------------------------------===//
// NoCacheMap
//===---------------------------------------------------------------------===//

// noCacheMap serves as type for NoCacheMap.
type noCacheMap int

var _ CacheMap = NoCacheMap

// Get implements CacheMap.
func (noCacheMap) Get(key Key) *Task {
	return nil
}

// Set implements CacheMap.
func (noCacheMap) Set(task *Task) *Task {
	return nil
}

// Delete implements CacheMap.
func (noCacheMap) Delete(key Key) {}

// Clear implements CacheMap.
func (noCacheMap) Clear() {}

// NoCacheMap is a placeholder given to Config.CacheMap to disable caching for
// a Loader. Note that disabling the cache also disables in-batch key
// deduplication: every Load enqueues its own task.
const NoCacheMap noCacheMap = 0
