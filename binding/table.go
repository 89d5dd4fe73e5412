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

import (
	"context"
	"fmt"
	"sort"
)

// Origin records where a field binding came from: the type's own descriptor
// or a named resolver extension.
type Origin struct {
	extension string
}

var ownOrigin = Origin{}

func extensionOrigin(name string) Origin {
	return Origin{extension: name}
}

// IsExtension reports whether the binding came from a resolver extension.
func (o Origin) IsExtension() bool {
	return o.extension != ""
}

// Extension returns the extension's name, or "" for own fields.
func (o Origin) Extension() string {
	return o.extension
}

// String implements fmt.Stringer: "own" or `extension:<Name>`.
func (o Origin) String() string {
	if o.extension == "" {
		return "own"
	}
	return "extension:" + o.extension
}

// FieldBinding is one resolved field of a schema type.
type FieldBinding struct {
	// Schema field name (normalized)
	Name string

	// Description for the field
	Description string

	// Where the binding came from
	Origin Origin

	// Resolver producing the field's value
	Resolver ResolverFunc
}

// TypeBinding holds the merged, ordered field bindings of one schema type:
// the type's own fields first, then extension fields in registration order.
type TypeBinding struct {
	name   string
	fields []FieldBinding
	index  map[string]int
}

// Name returns the schema type's name.
func (binding *TypeBinding) Name() string {
	return binding.name
}

// Fields returns the type's field bindings in merge order. The returned slice
// is shared; callers must not modify it.
func (binding *TypeBinding) Fields() []FieldBinding {
	return binding.fields
}

// Field returns the binding for the named field and whether it exists.
func (binding *TypeBinding) Field(name string) (FieldBinding, bool) {
	i, found := binding.index[name]
	if !found {
		return FieldBinding{}, false
	}
	return binding.fields[i], true
}

// Table is the resolved binding table produced by Build: schema type name to
// its merged field bindings. It is immutable once built and safe for use by
// any number of concurrent resolution passes.
type Table struct {
	types map[string]*TypeBinding
}

// Type returns the binding for the named schema type, or nil.
func (table *Table) Type(name string) *TypeBinding {
	return table.types[name]
}

// TypeNames returns the names of all bound schema types, sorted.
func (table *Table) TypeNames() []string {
	names := make([]string, 0, len(table.types))
	for name := range table.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve dispatches one field call through the table. It is the primitive
// lookup-and-invoke step; scheduling of deferred results is the engine's job.
func (table *Table) Resolve(
	ctx context.Context,
	typeName string,
	fieldName string,
	source interface{},
	info ResolveInfo) (interface{}, error) {

	typeBinding := table.Type(typeName)
	if typeBinding == nil {
		return nil, fmt.Errorf(`no bindings for type "%s"`, typeName)
	}

	field, found := typeBinding.Field(fieldName)
	if !found {
		return nil, fmt.Errorf(`type "%s" has no bound field "%s"`, typeName, fieldName)
	}

	return field.Resolver(ctx, source, info)
}
