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

package concurrent

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// WorkerPoolExecutorConfig configures a WorkerPoolExecutor.
type WorkerPoolExecutorConfig struct {
	// Number of workers processing submitted tasks. Defaults to
	// runtime.GOMAXPROCS(0) when 0.
	NumWorkers int

	// Capacity of the task queue. Submit blocks while the queue is full.
	// Defaults to 64 when 0.
	QueueSize int
}

// WorkerPoolExecutor executes tasks on a fixed-size pool of worker goroutines.
type WorkerPoolExecutor struct {
	queue chan *workerPoolTask

	// Guards shutdown and the submit path: Submit sends on queue under the read
	// lock, Shutdown closes it under the write lock, so a close can never land
	// between a Submit's check and its send.
	mutex    sync.RWMutex
	shutdown bool

	// Closes terminated after the queue is drained and all workers exited.
	workers    sync.WaitGroup
	terminated chan bool

	shutdownOnce sync.Once
}

var _ Executor = (*WorkerPoolExecutor)(nil)

var errExecutorShutdown = errors.New("executor has been shut down")

type workerPoolTaskState int32

const (
	workerPoolTaskPending workerPoolTaskState = iota
	workerPoolTaskRunning
	workerPoolTaskCompleted
	workerPoolTaskCancelled
)

// workerPoolTask wraps a submitted Task with its completion slot.
type workerPoolTask struct {
	task Task

	// Transitions pending -> running -> completed, or pending -> cancelled.
	state int32

	// Closed when the task reaches a terminal state.
	done chan struct{}

	result interface{}
	err    error
}

var _ TaskHandle = (*workerPoolTask)(nil)

// Cancel implements TaskHandle.
func (task *workerPoolTask) Cancel() error {
	if atomic.CompareAndSwapInt32(
		&task.state, int32(workerPoolTaskPending), int32(workerPoolTaskCancelled)) {
		close(task.done)
		return nil
	}
	return errors.New("task is not cancellable")
}

// AwaitResult implements TaskHandle.
func (task *workerPoolTask) AwaitResult(timeout time.Duration) (interface{}, error) {
	if timeout == 0 {
		<-task.done
	} else {
		select {
		case <-task.done:
		case <-time.After(timeout):
			return nil, ErrAwaitTaskResultTimeout
		}
	}

	if workerPoolTaskState(atomic.LoadInt32(&task.state)) == workerPoolTaskCancelled {
		return nil, ErrTaskCancelled
	}
	return task.result, task.err
}

func (task *workerPoolTask) run() {
	if !atomic.CompareAndSwapInt32(
		&task.state, int32(workerPoolTaskPending), int32(workerPoolTaskRunning)) {
		// Cancelled before a worker picked it up.
		return
	}
	task.result, task.err = task.task.Run()
	atomic.StoreInt32(&task.state, int32(workerPoolTaskCompleted))
	close(task.done)
}

// NewWorkerPoolExecutor creates a WorkerPoolExecutor and starts its workers.
func NewWorkerPoolExecutor(config WorkerPoolExecutorConfig) (*WorkerPoolExecutor, error) {
	numWorkers := config.NumWorkers
	if numWorkers < 0 {
		return nil, errors.New("number of workers must not be negative")
	}
	if numWorkers == 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	queueSize := config.QueueSize
	if queueSize < 0 {
		return nil, errors.New("queue size must not be negative")
	}
	if queueSize == 0 {
		queueSize = 64
	}

	executor := &WorkerPoolExecutor{
		queue:      make(chan *workerPoolTask, queueSize),
		terminated: make(chan bool, 1),
	}

	executor.workers.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go executor.worker()
	}

	return executor, nil
}

func (executor *WorkerPoolExecutor) worker() {
	defer executor.workers.Done()
	for task := range executor.queue {
		task.run()
	}
}

// Submit implements Executor. Submit blocks while the queue is full; tasks
// accepted before Shutdown is requested are guaranteed to run.
func (executor *WorkerPoolExecutor) Submit(task Task) (TaskHandle, error) {
	mutex := &executor.mutex
	mutex.RLock()
	if executor.shutdown {
		mutex.RUnlock()
		return nil, errExecutorShutdown
	}

	wrapped := &workerPoolTask{
		task: task,
		done: make(chan struct{}),
	}
	// Workers drain the queue without taking the lock, so a send blocked on a
	// full queue always makes progress; Shutdown waits behind it.
	executor.queue <- wrapped
	mutex.RUnlock()
	return wrapped, nil
}

// Shutdown implements Executor.
func (executor *WorkerPoolExecutor) Shutdown() (<-chan bool, error) {
	executor.shutdownOnce.Do(func() {
		mutex := &executor.mutex
		mutex.Lock()
		executor.shutdown = true
		close(executor.queue)
		mutex.Unlock()

		go func() {
			executor.workers.Wait()
			executor.terminated <- true
		}()
	})
	return executor.terminated, nil
}
