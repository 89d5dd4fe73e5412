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

// Package schema supplies the field shapes a GraphQL schema expects of each
// type. The binding registry only consumes this narrow view; parsing and
// validating the schema language is gqlparser's job, not ours.
package schema

import (
	"strings"

	gqlparser "github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// An Argument describes one argument a schema field declares.
type Argument struct {
	// Name of the argument
	Name string

	// Type is the argument's type in schema syntax, e.g. "ID!" or "[String]".
	Type string
}

// A Field describes one field a schema type declares.
type Field struct {
	// Name of the field
	Name string

	// Type is the field's type in schema syntax.
	Type string

	// Arguments declared on the field, in declaration order
	Arguments []Argument
}

// Source enumerates the fields each schema type expects. The binding registry
// uses it to verify that every declared field has a bound resolver after
// merge.
type Source interface {
	// ExpectedFields returns the fields declared for the named object type in
	// declaration order, and whether the source declares that type at all.
	ExpectedFields(typeName string) ([]Field, bool)
}

// sdlSource implements Source over a parsed and validated SDL document.
type sdlSource struct {
	schema *ast.Schema
}

var _ Source = (*sdlSource)(nil)

// LoadSDL parses and validates a schema document and returns it as a Source.
// The name is used in parse error locations.
func LoadSDL(name, input string) (Source, error) {
	schema, err := gqlparser.LoadSchema(&ast.Source{
		Name:  name,
		Input: input,
	})
	if err != nil {
		return nil, err
	}
	return &sdlSource{schema: schema}, nil
}

// FromAST wraps an already-built gqlparser schema as a Source.
func FromAST(schema *ast.Schema) Source {
	return &sdlSource{schema: schema}
}

// ExpectedFields implements Source.
func (source *sdlSource) ExpectedFields(typeName string) ([]Field, bool) {
	def := source.schema.Types[typeName]
	if def == nil || def.Kind != ast.Object {
		return nil, false
	}

	fields := make([]Field, 0, len(def.Fields))
	for _, fieldDef := range def.Fields {
		// Introspection meta fields are served by the execution engine, not by
		// bound resolvers.
		if strings.HasPrefix(fieldDef.Name, "__") {
			continue
		}

		field := Field{
			Name: fieldDef.Name,
			Type: fieldDef.Type.String(),
		}
		for _, argDef := range fieldDef.Arguments {
			field.Arguments = append(field.Arguments, Argument{
				Name: argDef.Name,
				Type: argDef.Type.String(),
			})
		}
		fields = append(fields, field)
	}

	return fields, true
}

// FieldMap is an in-memory Source mainly useful in tests: a map from type
// name to its declared field names.
type FieldMap map[string][]string

var _ Source = (FieldMap)(nil)

// ExpectedFields implements Source.
func (m FieldMap) ExpectedFields(typeName string) ([]Field, bool) {
	names, found := m[typeName]
	if !found {
		return nil, false
	}
	fields := make([]Field, len(names))
	for i, name := range names {
		fields[i] = Field{Name: name}
	}
	return fields, true
}
