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

// Package binding maps declared source types to schema types and their field
// resolvers. Types are declared as descriptors, explicit registration data
// rather than anything discovered by reflection, and compiled by Build into
// an immutable table the execution engine dispatches against.
package binding

import (
	"context"

	"github.com/ricky-hartmann-zocdoc/graphbind/dataloader"
)

// Kind classifies a TypeDescriptor.
type Kind int

const (
	// KindComplexType marks a type that resolves its own fields.
	KindComplexType Kind = iota

	// KindResolverExtension marks a descriptor that supplies additional fields
	// for a type it does not own. It names exactly one target type.
	KindResolverExtension
)

// String implements fmt.Stringer.
func (kind Kind) String() string {
	switch kind {
	case KindComplexType:
		return "complex type"
	case KindResolverExtension:
		return "resolver extension"
	}
	return "unknown"
}

// ArgumentValues holds the argument values given to one field call.
type ArgumentValues map[string]interface{}

// Get returns the value of the argument with given name, or nil.
func (args ArgumentValues) Get(name string) interface{} {
	return args[name]
}

// ContextData is the mutable bag threaded through every resolver call of one
// resolution pass. An earlier resolver can leave data for a later one, e.g.
// values computed at the root. It is pass-scoped, never shared across passes,
// and must only be touched from the pass's logical thread of control.
type ContextData struct {
	values map[string]interface{}
}

// NewContextData creates an empty ContextData.
func NewContextData() *ContextData {
	return &ContextData{values: map[string]interface{}{}}
}

// Get returns the value stored under key and whether it is present.
func (data *ContextData) Get(key string) (interface{}, bool) {
	value, found := data.values[key]
	return value, found
}

// Set stores value under key, replacing any previous value.
func (data *ContextData) Set(key string, value interface{}) {
	data.values[key] = value
}

// ResolveInfo carries per-pass state into a resolver call.
type ResolveInfo interface {
	// Args returns the argument values given to the field.
	Args() ArgumentValues

	// Loaders returns the dataloader manager owned by the current pass.
	Loaders() *dataloader.Manager

	// ContextData returns the pass-scoped mutable context bag.
	ContextData() *ContextData
}

// ResolverFunc resolves one field. For fields bound through a resolver
// extension, source is the target type's instance; the implicit
// first-argument convention of attribute-based binding is made an explicit
// parameter here.
//
// Returning a future.Future defers the field: the engine completes it once
// the future resolves, typically after a batched load.
type ResolverFunc func(ctx context.Context, source interface{}, info ResolveInfo) (interface{}, error)

// FieldDef declares one resolvable field of a descriptor.
type FieldDef struct {
	// Name of the field. Go-style exported names are normalized to schema
	// lower camel case ("DisplayName" becomes "displayName"); names already in
	// schema form are kept as is.
	Name string

	// Description for the field
	Description string

	// Resolver invoked to produce the field's value
	Resolver ResolverFunc
}

// TypeDescriptor declares one source type for Build. Use NewComplexType and
// NewResolverExtension to construct well-formed descriptors.
type TypeDescriptor struct {
	// Name of the schema type (complex types) or of the extension itself
	// (resolver extensions, where the name only identifies the origin in
	// collision reports).
	Name string

	// Classification of the descriptor
	Kind Kind

	// Target names the complex type an extension attaches to. It must be empty
	// for complex types and non-empty for resolver extensions.
	Target string

	// Fields declared by the descriptor, in declaration order
	Fields []FieldDef
}

// NewComplexType declares a self-resolving schema type.
func NewComplexType(name string, fields ...FieldDef) TypeDescriptor {
	return TypeDescriptor{
		Name:   name,
		Kind:   KindComplexType,
		Fields: fields,
	}
}

// NewResolverExtension declares a resolver supplying additional fields for
// the named target type.
func NewResolverExtension(name string, target string, fields ...FieldDef) TypeDescriptor {
	return TypeDescriptor{
		Name:   name,
		Kind:   KindResolverExtension,
		Target: target,
		Fields: fields,
	}
}
