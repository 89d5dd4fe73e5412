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

// done is defined to serve as type for Done. It allows us to define an immutable global variable.
type done int

// Error implements Go's error interface for "done".
func (done) Error() string {
	return "no more items in iterator"
}

var _ error = done(0)

// Done is returned by an Iterator's Next method when the iteration is
// complete; when there are no more items to return.
const Done done = 0

// An Iterator yields the elements of a list-valued field one at a time. Next
// returns Done after the last element; any other error aborts the field.
type Iterator interface {
	Next() (interface{}, error)
}

// Iterable lets a resolver return a list value without materializing a slice.
// The engine iterates it element-wise against the selection's element type.
// Slices and arrays are always accepted; Iterable covers streaming sources.
type Iterable interface {
	Iterator() Iterator
}

// SliceIterable adapts a []interface{} to Iterable, mainly for tests.
type SliceIterable []interface{}

type sliceIterator struct {
	elements []interface{}
}

// Iterator implements Iterable.
func (s SliceIterable) Iterator() Iterator {
	return &sliceIterator{elements: s}
}

// Next implements Iterator.
func (iter *sliceIterator) Next() (interface{}, error) {
	if len(iter.elements) == 0 {
		return nil, Done
	}
	element := iter.elements[0]
	iter.elements = iter.elements[1:]
	return element, nil
}
