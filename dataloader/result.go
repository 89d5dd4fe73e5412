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

import "fmt"

type resultKind int

const (
	// The key matched a record; Result carries its value.
	resultKindValue resultKind = iota

	// The key is valid but no matching record exists. Distinct from a fetch
	// error: a missing record never fails the caller's load.
	resultKindNotFound

	// The batch was discarded because the pass was cancelled before fetching
	// began. Terminal, but not an error.
	resultKindCancelled

	// The fetch for this key failed; Result carries the error.
	resultKindErr
)

// Result is the outcome of loading a single key. A bulk fetch yields exactly
// one Result per distinct key it is given, so that per-key success, per-key
// failure and "no such record" stay independent of each other.
type Result struct {
	kind  resultKind
	value interface{}
	err   error
}

// OK creates a Result carrying the value loaded for a key.
func OK(value interface{}) Result {
	return Result{kind: resultKindValue, value: value}
}

// NotFound creates the not-found sentinel: the key was understood by the data
// backend but matched nothing.
func NotFound() Result {
	return Result{kind: resultKindNotFound}
}

// Failed creates a Result recording a fetch failure for a single key.
func Failed(err error) Result {
	return Result{kind: resultKindErr, err: err}
}

// cancelledResult is handed to every pending task when a batch is discarded
// due to pass cancellation.
var cancelledResult = Result{kind: resultKindCancelled}

// Found reports whether the result carries a loaded value.
func (r Result) Found() bool {
	return r.kind == resultKindValue
}

// Cancelled reports whether the load was abandoned due to pass cancellation.
func (r Result) Cancelled() bool {
	return r.kind == resultKindCancelled
}

// Value returns the loaded value, or nil for any other outcome.
func (r Result) Value() interface{} {
	if r.kind != resultKindValue {
		return nil
	}
	return r.value
}

// Err returns the per-key fetch error, or nil for any other outcome.
func (r Result) Err() error {
	return r.err
}

// String implements fmt.Stringer to pretty-print a Result in logs and test
// failures.
func (r Result) String() string {
	switch r.kind {
	case resultKindValue:
		return fmt.Sprintf("value(%v)", r.value)
	case resultKindNotFound:
		return "not-found"
	case resultKindCancelled:
		return "cancelled"
	case resultKindErr:
		return fmt.Sprintf("error(%v)", r.err)
	}
	return "unknown"
}
