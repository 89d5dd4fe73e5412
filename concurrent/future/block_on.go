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

// BlockOn runs the given future to completion on the calling goroutine,
// parking between polls until the future's waker fires. It is mainly useful in
// tests and at the outermost boundary of a program; schedulers should poll
// futures cooperatively instead.
func BlockOn(f Future) (PollResult, error) {
	wakeCh := make(chan struct{}, 1)
	waker := WakerFunc(func() error {
		// Coalesce multiple wakes between polls into one.
		select {
		case wakeCh <- struct{}{}:
		default:
		}
		return nil
	})

	for {
		result, err := f.Poll(waker)
		if err != nil {
			return nil, err
		}
		if result != PollResultPending {
			return result, nil
		}
		<-wakeCh
	}
}
