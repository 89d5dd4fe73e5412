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

	"github.com/ricky-hartmann-zocdoc/graphbind/concurrent/future"
	"github.com/ricky-hartmann-zocdoc/graphbind/dataloader"
)

// Await blocks until the given future settles, closing the manager's open
// loader batches whenever the value is pending on one. It lets loader-backed
// futures be used outside a resolution pass, e.g. in scripts and tests.
func Await(ctx context.Context, loaders *dataloader.Manager, f future.Future) (interface{}, error) {
	// Buffer one wake so wakers never block; coalescing repeated wakes into
	// one pending signal is fine for a single poller.
	wake := make(chan struct{}, 1)
	waker := future.WakerFunc(func() error {
		select {
		case wake <- struct{}{}:
		default:
		}
		return nil
	})

	for {
		value, err := f.Poll(waker)
		if err != nil {
			return nil, err
		}
		if value != future.PollResultPending {
			return value, nil
		}

		if loaders != nil && loaders.HasPendingLoaders() {
			loaders.DispatchAll(ctx)
			continue
		}

		select {
		case <-wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
