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

import "github.com/ricky-hartmann-zocdoc/graphbind/binding"

// A Selection names one field to resolve on a type and, for object-valued
// fields, the nested selections to resolve on the field's value.
type Selection struct {
	// Field is the schema field name to resolve.
	Field string

	// Args are the argument values given to the field call.
	Args binding.ArgumentValues

	// OfType names the schema type of the field's object value. It is required
	// when Selections is non-empty and ignored otherwise. For list-valued
	// fields it names the element type.
	OfType string

	// Selections to resolve on the field's value
	Selections []Selection
}

// Select is a convenience constructor for a scalar field selection.
func Select(field string) Selection {
	return Selection{Field: field}
}

// SelectObject is a convenience constructor for an object-valued field
// selection.
func SelectObject(field string, ofType string, selections ...Selection) Selection {
	return Selection{
		Field:      field,
		OfType:     ofType,
		Selections: selections,
	}
}
