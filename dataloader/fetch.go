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
)

// BulkFetch is the loader's only required outside collaborator. Given the
// distinct, ordered keys of one closed batch it returns exactly one Result per
// key, positionally.
//
// Returning a non-nil error fails the whole batch: the error cannot be
// attributed to individual keys, so every pending key in the batch observes
// it. Per-key failures belong in the Result slice instead (see Failed).
// A result slice whose length differs from len(keys) is a contract violation
// reported as *BatchSizeMismatchError to every pending key.
//
// Implementations must be safe for concurrent invocation: independent
// resolution passes may fetch at the same time. Each call is atomic from the
// loader's perspective; no partial results are applied.
type BulkFetch interface {
	FetchMany(ctx context.Context, keys []Key) ([]Result, error)
}

// The BulkFetchFunc type is an adapter to allow the use of ordinary functions
// as BulkFetch.
type BulkFetchFunc func(ctx context.Context, keys []Key) ([]Result, error)

// FetchMany implements BulkFetch by calling f(ctx, keys).
func (f BulkFetchFunc) FetchMany(ctx context.Context, keys []Key) ([]Result, error) {
	return f(ctx, keys)
}

// MapFetch adapts a keyed fetch function to the positional BulkFetch contract.
// Keys absent from the returned map are reconciled to the not-found sentinel,
// so a backend that naturally answers with a key→value map never has to care
// about result ordering or padding.
func MapFetch(fetch func(ctx context.Context, keys []Key) (map[Key]Result, error)) BulkFetch {
	return BulkFetchFunc(func(ctx context.Context, keys []Key) ([]Result, error) {
		byKey, err := fetch(ctx, keys)
		if err != nil {
			return nil, err
		}

		results := make([]Result, len(keys))
		for i, key := range keys {
			result, found := byKey[key]
			if !found {
				result = NotFound()
			}
			results[i] = result
		}
		return results, nil
	})
}

// BatchSizeMismatchError indicates a BulkFetch violated its contract by
// returning a result slice whose length differs from the number of keys it
// was given. It is fatal for the batch and surfaces on every pending key.
type BatchSizeMismatchError struct {
	// Number of distinct keys sent to the fetch
	NumKeys int
	// Number of results it returned
	NumResults int
}

// Error implements the error interface.
func (e *BatchSizeMismatchError) Error() string {
	return fmt.Sprintf(
		"bulk fetch returned %d results for %d keys; it must return exactly one result per key",
		e.NumResults, e.NumKeys)
}
