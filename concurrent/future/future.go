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

package future

// A Future is a deferred value: a handle to the result of a computation that
// may not have finished yet. Futures are inert. They make progress only when
// polled, and a pending future arranges (via the Waker handed to Poll) to have
// its owner re-polled once the value becomes available.
//
// The poll-based design follows Rust's std::future rather than a
// channel-per-value scheme: it lets a scheduler interleave many field
// resolutions on one logical thread of control and observe the exact moment at
// which no further progress can be made without external data. That moment is
// what the dataloader package uses as its batch-close trigger.
type Future interface {
	// Poll attempts to resolve the future to a final value.
	//
	// It returns:
	//
	//	* (value, nil) when the future finished with value;
	//	* (nil, err) when the future finished with an error;
	//	* (PollResultPending, nil) when the value is not ready yet.
	//
	// When pending, the future stores waker and calls its Wake once the value
	// can make progress; only the most recent waker passed to Poll is woken.
	// Poll must never block; once a future has finished, callers should not
	// poll it again.
	Poll(waker Waker) (PollResult, error)
}
