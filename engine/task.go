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

package engine

import (
	"context"
	"fmt"
	"reflect"

	"github.com/ricky-hartmann-zocdoc/graphbind/binding"
	"github.com/ricky-hartmann-zocdoc/graphbind/concurrent/future"
	"github.com/ricky-hartmann-zocdoc/graphbind/dataloader"
)

// A task is one unit of work scheduled by a Pass. Only this package provides
// implementations.
type task interface {
	run()
}

//===----------------------------------------------------------------------------------------====//
// fieldTask
//===----------------------------------------------------------------------------------------====//

// fieldTask resolves one selected field of one object and writes the value
// into its result slot.
type fieldTask struct {
	pass *Pass
	ctx  context.Context

	// Schema type the field belongs to
	typeName string

	// The object instance the field is resolved on
	source interface{}

	selection Selection

	// Where the resolved value is written
	slot *interface{}

	// Path from the root to this field, for error reports
	path []interface{}
}

// fieldTask doubles as the ResolveInfo handed to the resolver.
var _ binding.ResolveInfo = (*fieldTask)(nil)

// Args implements binding.ResolveInfo.
func (task *fieldTask) Args() binding.ArgumentValues {
	return task.selection.Args
}

// Loaders implements binding.ResolveInfo.
func (task *fieldTask) Loaders() *dataloader.Manager {
	return task.pass.loaders
}

// ContextData implements binding.ResolveInfo.
func (task *fieldTask) ContextData() *binding.ContextData {
	return task.pass.contextData
}

// run implements task.
func (task *fieldTask) run() {
	value, err := task.pass.table.Resolve(
		task.ctx, task.typeName, task.selection.Field, task.source, task)
	if err != nil {
		task.fail(err)
		return
	}
	task.completeValue(value)
}

// completeValue turns a resolver's return value into the slot's final value,
// descending into nested selections and deferring futures.
func (task *fieldTask) completeValue(value interface{}) {
	// A future defers the field until its value is ready, typically after a
	// batched load.
	if f, ok := value.(future.Future); ok {
		task.pass.schedule(&asyncValueTask{
			fieldTask: task,
			cycle:     task.pass.loaderCycle(),
			value:     f,
		})
		return
	}

	// Loads resolve to a dataloader outcome; unwrap it. A missing or cancelled
	// load resolves the field to null without an error.
	if outcome, ok := value.(dataloader.Result); ok {
		if err := outcome.Err(); err != nil {
			task.fail(err)
			return
		}
		if !outcome.Found() || outcome.Cancelled() {
			*task.slot = nil
			return
		}
		value = outcome.Value()
	}

	if len(task.selection.Selections) == 0 {
		*task.slot = value
		return
	}

	if value == nil {
		*task.slot = nil
		return
	}

	if task.selection.OfType == "" {
		task.fail(fmt.Errorf(
			`selection on field "%s" has nested selections but names no type`,
			task.selection.Field))
		return
	}

	// Streaming list sources resolve element by element as they are yielded.
	if iterable, ok := value.(Iterable); ok {
		iter := iterable.Iterator()
		var elements []interface{}
		for {
			element, err := iter.Next()
			if err == Done {
				break
			}
			if err != nil {
				task.fail(err)
				return
			}
			elements = append(elements, task.pass.resolveInto(
				task.ctx,
				task.selection.OfType,
				element,
				task.selection.Selections,
				append(task.path[:len(task.path):len(task.path)], len(elements))))
		}
		*task.slot = elements
		return
	}

	// Lists resolve element-wise against the element type.
	reflected := reflect.ValueOf(value)
	if kind := reflected.Kind(); kind == reflect.Slice || kind == reflect.Array {
		elements := make([]interface{}, reflected.Len())
		*task.slot = elements
		for i := 0; i < reflected.Len(); i++ {
			elements[i] = task.pass.resolveInto(
				task.ctx,
				task.selection.OfType,
				reflected.Index(i).Interface(),
				task.selection.Selections,
				append(task.path[:len(task.path):len(task.path)], i))
		}
		return
	}

	*task.slot = task.pass.resolveInto(
		task.ctx, task.selection.OfType, value, task.selection.Selections, task.path)
}

// fail records a field error and resolves the field to null. Siblings are not
// affected.
func (task *fieldTask) fail(err error) {
	*task.slot = nil
	task.pass.appendError(&FieldError{
		Message: err.Error(),
		Path:    task.path,
	})
}

//===----------------------------------------------------------------------------------------====//
// asyncValueTask
//===----------------------------------------------------------------------------------------====//

// asyncValueTask polls a future for the value of a deferred field. While the
// value is pending the task parks itself and its waker re-schedules it once
// the value is ready.
type asyncValueTask struct {
	fieldTask *fieldTask

	// Loader dispatch cycle this task last observed. See Pass.loaderCycle.
	cycle uint64

	// The value to wait for
	value future.Future
}

var _ task = (*asyncValueTask)(nil)

// run implements task.
func (task *asyncValueTask) run() {
	value, err := task.value.Poll(future.WakerFunc(task.wake))
	switch {
	case err != nil:
		task.fieldTask.fail(err)
	case value != future.PollResultPending:
		task.fieldTask.completeValue(value)
	default:
		// Not ready yet; park until woken, and close any open batches the value
		// may be waiting on.
		pass := task.fieldTask.pass
		pass.yield(task)
		task.cycle = pass.tryDispatchLoaders(task.fieldTask.ctx, task.cycle)
	}
}

// wake re-schedules the task to poll its value again.
func (task *asyncValueTask) wake() error {
	task.fieldTask.pass.resume(task)
	return nil
}
