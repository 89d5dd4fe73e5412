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
	"fmt"
	"log"
	"reflect"
	"sync/atomic"

	"github.com/ricky-hartmann-zocdoc/graphbind/concurrent/future"
)

//===---------------------------------------------------------------------===//
// taskState
//===---------------------------------------------------------------------===//

type taskStateKind int

const (
	// The task is enqueued or fetching; wakers of interested futures are
	// collected in the state.
	taskPending taskStateKind = iota

	// The fetch for the task's key failed.
	taskFailed

	// The task completed with a Result (value, not-found or cancelled).
	taskCompleted
)

// taskState is the immutable snapshot published through Task.state. A new
// snapshot replaces the old one via compare-and-swap, which lets futures
// register wakers without a lock while a fetch may complete the task from
// another goroutine.
type taskState struct {
	kind taskStateKind

	// Wakers of futures waiting on the task; only meaningful while pending.
	// When the task completes, every waker is fired so the owning scheduler
	// re-polls the corresponding futures.
	wakers []future.Waker

	// The outcome; meaningful once kind is taskCompleted.
	outcome Result

	// The failure; meaningful once kind is taskFailed.
	err error
}

var initialTaskState = &taskState{
	kind:   taskPending,
	wakers: []future.Waker{},
}

//===---------------------------------------------------------------------===//
// resultFuture
//===---------------------------------------------------------------------===//

// resultFuture implements future.Future over the outcome of a Task. Loader's
// Load returns one such future per call; futures for the same key share the
// same underlying Task (and therefore the same pending slot).
type resultFuture struct {
	task *Task

	// The slot in the pending state's waker list owned by this future
	wakerSlot int
}

var _ future.Future = (*resultFuture)(nil)

// Poll implements future.Future.
func (f *resultFuture) Poll(waker future.Waker) (future.PollResult, error) {
	task := f.task

	for {
		state := task.loadState()
		switch state.kind {
		case taskPending:
			wakers := state.wakers
			wakerSlot := f.wakerSlot

			if !reflect.DeepEqual(wakers[wakerSlot], waker) {
				// Record the most recent waker on a copy: the published
				// snapshot may be iterated by a completion on another
				// goroutine, so it is never written in place. The CAS makes
				// sure the update lands on the current snapshot; on
				// contention, reload and retry.
				newWakers := make([]future.Waker, len(wakers))
				copy(newWakers, wakers)
				newWakers[wakerSlot] = waker

				if !task.state.CompareAndSwap(state, &taskState{
					kind:   taskPending,
					wakers: newWakers,
				}) {
					break
				}
			}
			return future.PollResultPending, nil

		case taskFailed:
			return nil, state.err

		default:
			return state.outcome, nil
		}
	}
}

//===---------------------------------------------------------------------===//
// Task
//===---------------------------------------------------------------------===//

// Task is a pending slot for loading the value identified by one key: it is
// created when the key is first requested in a pass, owned by the loader's
// open batch until dispatch, and completed exactly once with either a Result
// or an error. Completion transfers ownership of the outcome to the waiting
// callers.
type Task struct {
	key Key

	// Published task state; see taskState.
	state atomic.Pointer[taskState]
}

func newTask(key Key) *Task {
	task := &Task{key: key}
	task.state.Store(initialTaskState)
	return task
}

// newFuture creates a future.Future that reads the outcome of the task.
func (t *Task) newFuture() future.Future {
	for {
		state := t.loadState()
		switch state.kind {
		case taskPending:
			// Allocate a waker slot for the returned future. The slot must be
			// published before the future can be polled.
			curWakers := state.wakers
			newWakers := make([]future.Waker, len(curWakers)+1)
			copy(newWakers, curWakers)

			newWakerSlot := len(curWakers)
			newWakers[newWakerSlot] = future.NopWaker

			if t.state.CompareAndSwap(state, &taskState{
				kind:   taskPending,
				wakers: newWakers,
			}) {
				return &resultFuture{
					task:      t,
					wakerSlot: newWakerSlot,
				}
			}

			// Lost the race; reload the current state and retry.

		case taskFailed:
			return future.Err(state.err)

		case taskCompleted:
			return future.Ready(state.outcome)

		default:
			panic("unknown task state")
		}
	}
}

func (t *Task) loadState() *taskState {
	return t.state.Load()
}

// Key returns the key whose value the task loads.
func (t *Task) Key() Key {
	return t.key
}

func (t *Task) transition(newState *taskState) error {
	for {
		oldState := t.loadState()
		if oldState.kind != taskPending {
			return fmt.Errorf("task for key %v was already completed", t.key)
		}

		if t.state.CompareAndSwap(oldState, newState) {
			for _, waker := range oldState.wakers {
				if err := waker.Wake(); err != nil {
					log.Printf("[WARN] waker %T failed to wake the pass waiting on key %v\n",
						waker, t.Key())
				}
			}
			return nil
		}
	}
}

// Complete finishes the task with the given outcome. A task can be finished
// only once.
func (t *Task) Complete(outcome Result) error {
	return t.transition(&taskState{
		kind:    taskCompleted,
		outcome: outcome,
	})
}

// Fail finishes the task with an error.
func (t *Task) Fail(err error) error {
	return t.transition(&taskState{
		kind: taskFailed,
		err:  err,
	})
}

func (t *Task) completed() bool {
	return t.loadState().kind != taskPending
}
