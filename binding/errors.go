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

package binding

import "fmt"

// The errors in this file are build-time errors: any one of them aborts
// schema construction entirely, no partial table is ever produced.

// UnresolvedTargetError indicates a resolver extension references a target
// type that is not declared as a complex type in the same descriptor set.
type UnresolvedTargetError struct {
	// Name of the extension descriptor
	Extension string

	// The target type it references
	Target string
}

// Error implements the error interface.
func (e *UnresolvedTargetError) Error() string {
	return fmt.Sprintf(
		`resolver extension "%s" targets type "%s" which is not declared as a complex type`,
		e.Extension, e.Target)
}

// FieldNameCollisionError indicates two origins bind the same field name on
// one schema type. There is no silent override; both origins are reported.
type FieldNameCollisionError struct {
	// Schema type the field belongs to
	TypeName string

	// The colliding field name (after normalization)
	FieldName string

	// The two origins binding the name, e.g. "own" and "extension:Foo"
	First  Origin
	Second Origin
}

// Error implements the error interface.
func (e *FieldNameCollisionError) Error() string {
	return fmt.Sprintf(
		`field "%s.%s" is bound by both %s and %s`,
		e.TypeName, e.FieldName, e.First, e.Second)
}

// UnboundFieldError indicates the schema declares a field for which no
// resolver is bound after merging own fields and extensions.
type UnboundFieldError struct {
	// Schema type declaring the field
	TypeName string

	// The declared field without a resolver
	FieldName string
}

// Error implements the error interface.
func (e *UnboundFieldError) Error() string {
	return fmt.Sprintf(
		`schema declares field "%s.%s" but no resolver is bound for it`,
		e.TypeName, e.FieldName)
}
