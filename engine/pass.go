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

// Package engine resolves field selections against a binding.Table. A Pass
// walks the selections, dispatches each field through the table, defers fields
// whose resolvers return futures and closes open loader batches once no more
// runnable work remains, so that every load issued by sibling fields lands in
// one bulk fetch.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"github.com/ricky-hartmann-zocdoc/graphbind/binding"
	"github.com/ricky-hartmann-zocdoc/graphbind/dataloader"
	"github.com/ricky-hartmann-zocdoc/graphbind/internal/log"
)

// PassConfig configures a Pass.
type PassConfig struct {
	// Table holds the field bindings to dispatch against (required).
	Table *binding.Table

	// Loaders is the dataloader manager serving the pass. A fresh Manager is
	// created when unset, which leaves resolvers without named loaders but
	// keeps LoadWith usable.
	Loaders *dataloader.Manager

	// Logger for the pass. Discards when unset.
	Logger logr.Logger
}

// yieldTaskState tracks a parked task.
type yieldTaskState int

const (
	// The task is waiting for its waker
	yieldTaskStateWaiting yieldTaskState = iota
	// The task's waker fired; it is runnable again
	yieldTaskStateResumed
)

// Pass runs one resolution pass. It owns the pass-scoped state: the loader
// manager with its caches and open batches, the mutable context bag, and the
// field errors collected along the way. A Pass serves one resolution pass;
// create a new one per pass so caches and context data never leak across.
//
// Tasks run on the goroutine that called ResolveObject, one at a time. Wakers
// may fire from fetch goroutines; they only mark parked tasks runnable.
type Pass struct {
	table       *binding.Table
	loaders     *dataloader.Manager
	contextData *binding.ContextData
	logger      logr.Logger

	// Counts loader dispatch rounds. A deferred task snapshots the counter and
	// only the first pending task of a round closes the open batches; see
	// tryDispatchLoaders.
	cycle uint64

	// Guards runnable, yieldTasks and cond.
	mutex sync.Mutex
	cond  sync.Cond

	// Tasks ready to run, in schedule order
	runnable []task

	// Tasks parked on a pending future
	yieldTasks map[task]yieldTaskState

	// Field errors collected so far; only touched from the pass goroutine
	errs []*FieldError
}

// NewPass creates a Pass from config.
func NewPass(config PassConfig) (*Pass, error) {
	if config.Table == nil {
		return nil, errors.New("a binding table is required to construct a Pass")
	}

	loaders := config.Loaders
	if loaders == nil {
		loaders = dataloader.NewManager()
	}

	pass := &Pass{
		table:       config.Table,
		loaders:     loaders,
		contextData: binding.NewContextData(),
		logger:      config.Logger,
		yieldTasks:  map[task]yieldTaskState{},
	}
	pass.cond.L = &pass.mutex
	return pass, nil
}

// Loaders returns the dataloader manager owned by the pass.
func (pass *Pass) Loaders() *dataloader.Manager {
	return pass.loaders
}

// ContextData returns the pass-scoped mutable context bag.
func (pass *Pass) ContextData() *binding.ContextData {
	return pass.contextData
}

// ResolveObject resolves the given selections on one instance of the named
// type and blocks until every field, including deferred ones, settles. Field
// failures never abort the pass: a failed field resolves to null and is
// reported in Response.Errors with its path.
func (pass *Pass) ResolveObject(
	ctx context.Context,
	typeName string,
	source interface{},
	selections ...Selection) (*Response, error) {

	if pass.table.Type(typeName) == nil {
		return nil, fmt.Errorf(`no bindings for type "%s"`, typeName)
	}

	if pass.logger.GetSink() == nil {
		pass.logger = log.FromContext(ctx)
	}

	result := pass.resolveInto(ctx, typeName, source, selections, nil)
	pass.drain(ctx)

	pass.logger.V(1).Info("resolution pass completed",
		"type", typeName,
		"numFields", len(selections),
		"numErrors", len(pass.errs),
		"loaderDispatches", pass.cycle)

	return &Response{Data: result, Errors: pass.errs}, nil
}

// resolveInto schedules a fieldTask per selection and returns the result map
// the tasks write into.
func (pass *Pass) resolveInto(
	ctx context.Context,
	typeName string,
	source interface{},
	selections []Selection,
	path []interface{}) *ResultMap {

	result := newResultMap(selections)
	for i := range selections {
		fieldPath := append(path[:len(path):len(path)], selections[i].Field)
		pass.schedule(&fieldTask{
			pass:      pass,
			ctx:       ctx,
			typeName:  typeName,
			source:    source,
			selection: selections[i],
			slot:      &result.fields[i].Value,
			path:      fieldPath,
		})
	}
	return result
}

// schedule queues a task for running.
func (pass *Pass) schedule(t task) {
	mutex := &pass.mutex
	mutex.Lock()
	pass.runnable = append(pass.runnable, t)
	mutex.Unlock()
}

// yield parks a task until its waker fires.
func (pass *Pass) yield(t task) {
	mutex := &pass.mutex
	mutex.Lock()
	if _, exists := pass.yieldTasks[t]; !exists {
		pass.yieldTasks[t] = yieldTaskStateWaiting
	}
	mutex.Unlock()
}

// resume marks a parked task runnable again. Safe to call from any goroutine.
func (pass *Pass) resume(t task) {
	mutex := &pass.mutex
	mutex.Lock()
	pass.yieldTasks[t] = yieldTaskStateResumed
	mutex.Unlock()

	// Unblock drain.
	pass.cond.Signal()
}

// drain runs tasks until none is runnable and none is parked. Tasks scheduled
// or resumed while draining are picked up in the same loop.
func (pass *Pass) drain(ctx context.Context) {
	mutex := &pass.mutex
	mutex.Lock()

	for {
		// Run queued tasks first, in schedule order.
		if len(pass.runnable) > 0 {
			t := pass.runnable[0]
			pass.runnable = pass.runnable[1:]
			mutex.Unlock()
			t.run()
			mutex.Lock()
			continue
		}

		// Move resumed tasks back to the queue.
		moved := false
		for t, state := range pass.yieldTasks {
			if state == yieldTaskStateResumed {
				delete(pass.yieldTasks, t)
				pass.runnable = append(pass.runnable, t)
				moved = true
			}
		}
		if moved {
			continue
		}

		if len(pass.yieldTasks) == 0 {
			break
		}

		// Every remaining task is parked. If a loader has an open batch, close
		// it; the fetched values wake their tasks. Otherwise wait for an
		// external waker.
		if pass.loaders.HasPendingLoaders() {
			cycle := pass.cycle
			mutex.Unlock()
			pass.tryDispatchLoaders(ctx, cycle)
			mutex.Lock()
			continue
		}
		pass.cond.Wait()
	}

	mutex.Unlock()
}

// loaderCycle returns the current loader dispatch round.
func (pass *Pass) loaderCycle() uint64 {
	mutex := &pass.mutex
	mutex.Lock()
	defer mutex.Unlock()
	return pass.cycle
}

// tryDispatchLoaders closes the open loader batches unless a dispatch has
// already happened since taskCycle was observed. Tasks created in the same
// round share one dispatch this way: the first pending task triggers it, the
// rest see the advanced cycle and skip.
func (pass *Pass) tryDispatchLoaders(ctx context.Context, taskCycle uint64) (newCycle uint64) {
	if !pass.loaders.HasPendingLoaders() {
		return taskCycle
	}

	mutex := &pass.mutex
	mutex.Lock()
	current := pass.cycle
	if taskCycle != current {
		// Someone already dispatched this round.
		mutex.Unlock()
		return current
	}
	pass.cycle = current + 1
	mutex.Unlock()

	pass.logger.V(1).Info("dispatching data loaders", "cycle", current+1)
	pass.loaders.DispatchAll(ctx)
	return current + 1
}

// appendError records a field error. Tasks run one at a time on the pass
// goroutine, so no locking is needed.
func (pass *Pass) appendError(err *FieldError) {
	pass.logger.V(1).Info("field resolution failed",
		"path", err.Path, "message", err.Message)
	pass.errs = append(pass.errs, err)
}
