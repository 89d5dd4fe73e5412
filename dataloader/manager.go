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

import (
	"context"
	"fmt"
	"sync"

	"github.com/ricky-hartmann-zocdoc/graphbind/concurrent/future"
)

// Manager owns the Loaders of one resolution pass. It gives resolvers named
// access to loaders and tells the pass's scheduler which loaders have an open
// batch waiting for dispatch. Create one Manager per pass; discarding it at
// pass end discards every batch and cache with it.
type Manager struct {
	// Guards loaders and pendingLoaders.
	mutex sync.Mutex

	// Registered loaders by name
	loaders map[string]*Loader

	// Loaders that have an open batch to dispatch
	pendingLoaders map[*Loader]bool
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{
		loaders: map[string]*Loader{},
	}
}

// Register creates a Loader from config and registers it under name. The name
// must not have been registered before.
func (manager *Manager) Register(name string, config Config) (*Loader, error) {
	loader, err := New(config)
	if err != nil {
		return nil, err
	}

	mutex := &manager.mutex
	mutex.Lock()
	defer mutex.Unlock()

	if _, exists := manager.loaders[name]; exists {
		return nil, fmt.Errorf(`a Loader named "%s" has already been registered`, name)
	}
	manager.loaders[name] = loader

	return loader, nil
}

// Loader returns the loader registered under name, or nil.
func (manager *Manager) Loader(name string) *Loader {
	mutex := &manager.mutex
	mutex.Lock()
	defer mutex.Unlock()
	return manager.loaders[name]
}

// Load requests the value at key from the loader registered under name and
// marks that loader pending for dispatch.
func (manager *Manager) Load(name string, key Key) (future.Future, error) {
	loader := manager.Loader(name)
	if loader == nil {
		return nil, fmt.Errorf(`no Loader named "%s" has been registered`, name)
	}
	return manager.LoadWith(loader, key)
}

// LoadWith requests the value at key from the given loader and marks the
// loader pending for dispatch.
func (manager *Manager) LoadWith(loader *Loader, key Key) (future.Future, error) {
	// The pending mark must be placed before anyone can observe the load's
	// future, otherwise the scheduler could drain without dispatching it.
	mutex := &manager.mutex
	mutex.Lock()

	f, err := loader.Load(key)
	if err != nil {
		mutex.Unlock()
		return nil, err
	}

	pendingLoaders := manager.pendingLoaders
	if pendingLoaders == nil {
		pendingLoaders = map[*Loader]bool{}
		manager.pendingLoaders = pendingLoaders
	}
	pendingLoaders[loader] = true

	mutex.Unlock()
	return f, nil
}

// LoadManyWith requests the values at keys from the given loader and marks
// the loader pending for dispatch.
func (manager *Manager) LoadManyWith(loader *Loader, keys ...Key) (future.Future, error) {
	mutex := &manager.mutex
	mutex.Lock()

	f, err := loader.LoadMany(keys...)
	if err != nil {
		mutex.Unlock()
		return nil, err
	}

	pendingLoaders := manager.pendingLoaders
	if pendingLoaders == nil {
		pendingLoaders = map[*Loader]bool{}
		manager.pendingLoaders = pendingLoaders
	}
	pendingLoaders[loader] = true

	mutex.Unlock()
	return f, nil
}

// HasPendingLoaders returns true if any loader has an open batch waiting for
// dispatch.
func (manager *Manager) HasPendingLoaders() bool {
	mutex := &manager.mutex
	mutex.Lock()
	defer mutex.Unlock()
	return len(manager.pendingLoaders) > 0
}

// GetAndResetPendingLoaders reports the loaders waiting for dispatch and
// resets the pending set. Dispatching a reported loader may enqueue new keys
// (dependent loads), so callers loop until the set stays empty.
func (manager *Manager) GetAndResetPendingLoaders() map[*Loader]bool {
	mutex := &manager.mutex
	mutex.Lock()
	pendingLoaders := manager.pendingLoaders
	manager.pendingLoaders = nil
	mutex.Unlock()
	return pendingLoaders
}

// DispatchAll closes and fetches the open batch of every pending loader,
// repeating until no loader is left pending. It is the batch-close entry
// point for the pass's scheduler.
func (manager *Manager) DispatchAll(ctx context.Context) {
	for {
		pendingLoaders := manager.GetAndResetPendingLoaders()
		if len(pendingLoaders) == 0 {
			return
		}
		for loader := range pendingLoaders {
			loader.Dispatch(ctx)
		}
	}
}
