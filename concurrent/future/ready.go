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

import "errors"

// readyFuture implements a Future that resolves immediately with a value.
type readyFuture struct {
	value interface{}
}

// Poll implements Future.
func (f readyFuture) Poll(waker Waker) (PollResult, error) {
	return f.value, nil
}

// Ready creates a Future that is immediately ready with the given value.
func Ready(value interface{}) Future {
	return readyFuture{value}
}

// errFuture implements a Future that resolves immediately with an error.
type errFuture struct {
	err error
}

// Poll implements Future.
func (f errFuture) Poll(waker Waker) (PollResult, error) {
	return nil, f.err
}

// Err creates a Future that is immediately finished with the given error.
func Err(err error) Future {
	if err == nil {
		err = errors.New("")
	}
	return errFuture{err}
}
