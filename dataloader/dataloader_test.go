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

package dataloader_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ricky-hartmann-zocdoc/graphbind/concurrent"
	"github.com/ricky-hartmann-zocdoc/graphbind/concurrent/future"
	"github.com/ricky-hartmann-zocdoc/graphbind/dataloader"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// fetchLogger records the key slices sent to a bulk fetch.
type fetchLogger struct {
	// mutex that guards fetchCalls
	mutex sync.Mutex

	// keys of each FetchMany invocation, in invocation order
	fetchCalls [][]dataloader.Key
}

func (logger *fetchLogger) Log(keys []dataloader.Key) {
	mutex := &logger.mutex
	mutex.Lock()
	logger.fetchCalls = append(logger.fetchCalls, keys)
	mutex.Unlock()
}

func (logger *fetchLogger) FetchCalls() [][]dataloader.Key {
	mutex := &logger.mutex
	mutex.Lock()
	defer mutex.Unlock()
	return logger.fetchCalls
}

// identityLoader wraps a Loader whose bulk fetch returns each key as its own
// value and logs every fetch call.
type identityLoader struct {
	*dataloader.Loader
	logger *fetchLogger
}

func newIdentityLoader(config dataloader.Config) identityLoader {
	Expect(config.Fetch).Should(BeNil())

	logger := &fetchLogger{}
	config.Fetch = dataloader.BulkFetchFunc(
		func(ctx context.Context, keys []dataloader.Key) ([]dataloader.Result, error) {
			logger.Log(keys)
			results := make([]dataloader.Result, len(keys))
			for i, key := range keys {
				results[i] = dataloader.OK(key)
			}
			return results, nil
		})

	loader, err := dataloader.New(config)
	Expect(err).ShouldNot(HaveOccurred())

	return identityLoader{loader, logger}
}

func (loader identityLoader) FetchCalls() [][]dataloader.Key {
	return loader.logger.FetchCalls()
}

// loadValue loads one key, dispatches the batch and blocks on the outcome.
func loadValue(loader *dataloader.Loader, key dataloader.Key) (interface{}, error) {
	f, err := loader.Load(key)
	Expect(err).ShouldNot(HaveOccurred())
	go loader.Dispatch(context.Background())

	result, err := future.BlockOn(f)
	if err != nil {
		return nil, err
	}
	return result.(dataloader.Result).Value(), nil
}

var _ = Describe("Loader: Primary API", func() {
	var idLoader identityLoader

	BeforeEach(func() {
		idLoader = newIdentityLoader(dataloader.Config{})
	})

	It("throws error if bulk fetch is not given", func() {
		_, err := dataloader.New(dataloader.Config{})
		Expect(err).Should(MatchError("a bulk fetch is required to construct a Loader"))
	})

	It("throws error when load with nil key", func() {
		_, err := idLoader.Load(nil)
		Expect(err).Should(HaveOccurred())

		_, err = idLoader.LoadMany(nil)
		Expect(err).Should(HaveOccurred())
	})

	It("builds a really really simple data loader", func() {
		Expect(loadValue(idLoader.Loader, 1)).Should(Equal(1))
	})

	It("supports loading multiple keys in one call", func() {
		f, err := idLoader.LoadMany(1, 2)
		Expect(err).ShouldNot(HaveOccurred())
		go idLoader.Dispatch(context.Background())

		results, err := future.BlockOn(f)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(results).Should(HaveLen(2))
		Expect(results.([]interface{})[0].(dataloader.Result).Value()).Should(Equal(1))
		Expect(results.([]interface{})[1].(dataloader.Result).Value()).Should(Equal(2))

		f, err = idLoader.LoadMany()
		Expect(err).ShouldNot(HaveOccurred())
		go idLoader.Dispatch(context.Background())
		Expect(future.BlockOn(f)).Should(BeEmpty())
	})

	It("batches multiple requests into one fetch", func() {
		f1, err := idLoader.Load(1)
		Expect(err).ShouldNot(HaveOccurred())

		f2, err := idLoader.Load(2)
		Expect(err).ShouldNot(HaveOccurred())

		go idLoader.Dispatch(context.Background())

		result1, err := future.BlockOn(f1)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result1.(dataloader.Result).Value()).Should(Equal(1))

		result2, err := future.BlockOn(f2)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result2.(dataloader.Result).Value()).Should(Equal(2))

		Expect(idLoader.FetchCalls()).Should(Equal([][]dataloader.Key{{1, 2}}))
	})

	It("coalesces identical requests: one key, one pending slot, one fetch", func() {
		f1a, err := idLoader.Load(1)
		Expect(err).ShouldNot(HaveOccurred())

		f1b, err := idLoader.Load(1)
		Expect(err).ShouldNot(HaveOccurred())

		go idLoader.Dispatch(context.Background())

		result1a, err := future.BlockOn(f1a)
		Expect(err).ShouldNot(HaveOccurred())
		result1b, err := future.BlockOn(f1b)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result1a).Should(Equal(result1b))
		Expect(result1a.(dataloader.Result).Value()).Should(Equal(1))

		// Both loads were satisfied by one fetch carrying the key once.
		Expect(idLoader.FetchCalls()).Should(Equal([][]dataloader.Key{{1}}))
	})

	It("caches repeated requests across batches", func() {
		Expect(loadValue(idLoader.Loader, "A")).Should(Equal("A"))
		Expect(loadValue(idLoader.Loader, "B")).Should(Equal("B"))

		// "A" and "B" come from the pass cache; only "C" hits the backend.
		Expect(loadValue(idLoader.Loader, "A")).Should(Equal("A"))
		Expect(loadValue(idLoader.Loader, "C")).Should(Equal("C"))
		Expect(idLoader.FetchCalls()).Should(Equal([][]dataloader.Key{{"A"}, {"B"}, {"C"}}))
	})

	It("splits batches larger than MaxBatchSize", func() {
		idLoader = newIdentityLoader(dataloader.Config{MaxBatchSize: 2})

		f, err := idLoader.LoadMany(1, 2, 3)
		Expect(err).ShouldNot(HaveOccurred())
		go idLoader.Dispatch(context.Background())

		results, err := future.BlockOn(f)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(results).Should(HaveLen(3))

		Expect(idLoader.FetchCalls()).Should(Equal([][]dataloader.Key{{1, 2}, {3}}))
	})

	It("dispatches nothing when the batch is empty", func() {
		idLoader.Dispatch(context.Background())
		Expect(idLoader.FetchCalls()).Should(BeEmpty())
	})

	It("runs fetches on the configured runner", func() {
		runner, err := concurrent.NewWorkerPoolExecutor(concurrent.WorkerPoolExecutorConfig{
			NumWorkers: 2,
		})
		Expect(err).ShouldNot(HaveOccurred())

		idLoader = newIdentityLoader(dataloader.Config{Runner: runner})

		f, err := idLoader.Load(1)
		Expect(err).ShouldNot(HaveOccurred())
		idLoader.Dispatch(context.Background())

		result, err := future.BlockOn(f)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result.(dataloader.Result).Value()).Should(Equal(1))
	})

	It("settles the batch when the runner rejects the fetch job", func() {
		runner, err := concurrent.NewWorkerPoolExecutor(concurrent.WorkerPoolExecutorConfig{
			NumWorkers: 1,
		})
		Expect(err).ShouldNot(HaveOccurred())

		terminated, err := runner.Shutdown()
		Expect(err).ShouldNot(HaveOccurred())
		Eventually(terminated).Should(Receive())

		idLoader = newIdentityLoader(dataloader.Config{Runner: runner})

		f, err := idLoader.Load(1)
		Expect(err).ShouldNot(HaveOccurred())
		idLoader.Dispatch(context.Background())

		// The rejected batch must not leave the future pending forever.
		_, err = future.BlockOn(f)
		Expect(err).Should(MatchError("executor has been shut down"))
		Expect(idLoader.FetchCalls()).Should(BeEmpty())
	})

	It("keeps waker registration safe while completion races the poller", func() {
		runner, err := concurrent.NewWorkerPoolExecutor(concurrent.WorkerPoolExecutorConfig{
			NumWorkers: 2,
		})
		Expect(err).ShouldNot(HaveOccurred())

		idLoader = newIdentityLoader(dataloader.Config{Runner: runner})

		// Re-register a fresh waker on every poll while the fetch completes the
		// task on a runner goroutine; registration must never write into the
		// waker list a concurrent completion is reading.
		for round := 0; round < 100; round++ {
			f, err := idLoader.Load(round)
			Expect(err).ShouldNot(HaveOccurred())
			idLoader.Dispatch(context.Background())

			woke := make(chan struct{}, 1)
			for {
				result, err := f.Poll(future.WakerFunc(func() error {
					select {
					case woke <- struct{}{}:
					default:
					}
					return nil
				}))
				Expect(err).ShouldNot(HaveOccurred())
				if result != future.PollResultPending {
					Expect(result.(dataloader.Result).Value()).Should(Equal(round))
					break
				}
				select {
				case <-woke:
				case <-time.After(time.Millisecond):
				}
			}
		}
	})
})

var _ = Describe("Loader: per-key outcomes", func() {
	It("yields the not-found sentinel for keys the backend has no record of", func() {
		loader, err := dataloader.New(dataloader.Config{
			Fetch: dataloader.MapFetch(
				func(ctx context.Context, keys []dataloader.Key) (map[dataloader.Key]dataloader.Result, error) {
					// No matches at all.
					return nil, nil
				}),
		})
		Expect(err).ShouldNot(HaveOccurred())

		f, err := loader.LoadMany("1", "2")
		Expect(err).ShouldNot(HaveOccurred())
		go loader.Dispatch(context.Background())

		results, err := future.BlockOn(f)
		Expect(err).ShouldNot(HaveOccurred())
		for _, result := range results.([]interface{}) {
			Expect(result.(dataloader.Result).Found()).Should(BeFalse())
			Expect(result.(dataloader.Result).Err()).ShouldNot(HaveOccurred())
		}
	})

	It("reconciles keyed fetches positionally", func() {
		loader, err := dataloader.New(dataloader.Config{
			Fetch: dataloader.MapFetch(
				func(ctx context.Context, keys []dataloader.Key) (map[dataloader.Key]dataloader.Result, error) {
					return map[dataloader.Key]dataloader.Result{
						"2": dataloader.OK("two"),
					}, nil
				}),
		})
		Expect(err).ShouldNot(HaveOccurred())

		f1, err := loader.Load("1")
		Expect(err).ShouldNot(HaveOccurred())
		f2, err := loader.Load("2")
		Expect(err).ShouldNot(HaveOccurred())
		go loader.Dispatch(context.Background())

		result1, err := future.BlockOn(f1)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result1.(dataloader.Result).Found()).Should(BeFalse())

		result2, err := future.BlockOn(f2)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result2.(dataloader.Result).Value()).Should(Equal("two"))
	})

	It("isolates a per-key failure to that key's slot", func() {
		keyErr := errors.New("no access to 2")
		loader, err := dataloader.New(dataloader.Config{
			Fetch: dataloader.BulkFetchFunc(
				func(ctx context.Context, keys []dataloader.Key) ([]dataloader.Result, error) {
					results := make([]dataloader.Result, len(keys))
					for i, key := range keys {
						if key == "2" {
							results[i] = dataloader.Failed(keyErr)
						} else {
							results[i] = dataloader.OK(key)
						}
					}
					return results, nil
				}),
		})
		Expect(err).ShouldNot(HaveOccurred())

		f1, err := loader.Load("1")
		Expect(err).ShouldNot(HaveOccurred())
		f2, err := loader.Load("2")
		Expect(err).ShouldNot(HaveOccurred())
		go loader.Dispatch(context.Background())

		result1, err := future.BlockOn(f1)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result1.(dataloader.Result).Value()).Should(Equal("1"))

		_, err = future.BlockOn(f2)
		Expect(err).Should(MatchError(keyErr))
	})

	It("propagates a failed bulk fetch to every pending key", func() {
		batchErr := errors.New("backend is down")
		loader, err := dataloader.New(dataloader.Config{
			Fetch: dataloader.BulkFetchFunc(
				func(ctx context.Context, keys []dataloader.Key) ([]dataloader.Result, error) {
					return nil, batchErr
				}),
		})
		Expect(err).ShouldNot(HaveOccurred())

		f1, err := loader.Load(1)
		Expect(err).ShouldNot(HaveOccurred())
		f2, err := loader.Load(2)
		Expect(err).ShouldNot(HaveOccurred())
		go loader.Dispatch(context.Background())

		_, err1 := future.BlockOn(f1)
		Expect(err1).Should(MatchError(batchErr))

		_, err2 := future.BlockOn(f2)
		Expect(err2).Should(MatchError(batchErr))
	})

	It("fails the batch when the fetch violates the size contract", func() {
		loader, err := dataloader.New(dataloader.Config{
			Fetch: dataloader.BulkFetchFunc(
				func(ctx context.Context, keys []dataloader.Key) ([]dataloader.Result, error) {
					// One result short.
					return make([]dataloader.Result, len(keys)-1), nil
				}),
		})
		Expect(err).ShouldNot(HaveOccurred())

		f, err := loader.LoadMany(1, 2)
		Expect(err).ShouldNot(HaveOccurred())
		go loader.Dispatch(context.Background())

		_, err = future.BlockOn(f)
		var mismatchErr *dataloader.BatchSizeMismatchError
		Expect(errors.As(err, &mismatchErr)).Should(BeTrue())
		Expect(mismatchErr.NumKeys).Should(Equal(2))
		Expect(mismatchErr.NumResults).Should(Equal(1))
	})

	It("completes pending slots with the cancelled outcome when the pass is cancelled", func() {
		fetched := false
		loader, err := dataloader.New(dataloader.Config{
			Fetch: dataloader.BulkFetchFunc(
				func(ctx context.Context, keys []dataloader.Key) ([]dataloader.Result, error) {
					fetched = true
					return make([]dataloader.Result, len(keys)), nil
				}),
		})
		Expect(err).ShouldNot(HaveOccurred())

		f, err := loader.Load(1)
		Expect(err).ShouldNot(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		go loader.Dispatch(ctx)

		result, err := future.BlockOn(f)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result.(dataloader.Result).Cancelled()).Should(BeTrue())
		Expect(fetched).Should(BeFalse())
	})
})

var _ = Describe("Loader: cache controls", func() {
	It("primes values and errors without fetching", func() {
		idLoader := newIdentityLoader(dataloader.Config{})

		Expect(idLoader.Prime("A", dataloader.OK("primed"))).Should(Succeed())
		Expect(loadValue(idLoader.Loader, "A")).Should(Equal("primed"))

		primedErr := errors.New("primed error")
		Expect(idLoader.PrimeError("B", primedErr)).Should(Succeed())
		_, err := loadValue(idLoader.Loader, "B")
		Expect(err).Should(MatchError(primedErr))

		Expect(idLoader.FetchCalls()).Should(BeEmpty())
	})

	It("clears single keys and the whole cache", func() {
		idLoader := newIdentityLoader(dataloader.Config{})

		Expect(loadValue(idLoader.Loader, "A")).Should(Equal("A"))
		idLoader.Clear("A")
		Expect(loadValue(idLoader.Loader, "A")).Should(Equal("A"))
		Expect(idLoader.FetchCalls()).Should(Equal([][]dataloader.Key{{"A"}, {"A"}}))

		idLoader.ClearAll()
		Expect(loadValue(idLoader.Loader, "A")).Should(Equal("A"))
		Expect(idLoader.FetchCalls()).Should(HaveLen(3))
	})

	It("disables caching and deduplication with NoCacheMap", func() {
		idLoader := newIdentityLoader(dataloader.Config{CacheMap: dataloader.NoCacheMap})

		f1, err := idLoader.Load(1)
		Expect(err).ShouldNot(HaveOccurred())
		f2, err := idLoader.Load(1)
		Expect(err).ShouldNot(HaveOccurred())
		go idLoader.Dispatch(context.Background())

		result1, err := future.BlockOn(f1)
		Expect(err).ShouldNot(HaveOccurred())
		result2, err := future.BlockOn(f2)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(result1.(dataloader.Result).Value()).Should(Equal(1))
		Expect(result2.(dataloader.Result).Value()).Should(Equal(1))

		// Without the cache every load enqueues its own task.
		Expect(idLoader.FetchCalls()).Should(Equal([][]dataloader.Key{{1, 1}}))
	})
})
