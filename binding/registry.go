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
	"fmt"

	"github.com/ricky-hartmann-zocdoc/graphbind/schema"
)

// Build scans the descriptor set, classifies each descriptor, merges resolver
// extensions into their target types and produces the resolved binding table.
//
// Build fails with:
//
//	* *UnresolvedTargetError when an extension targets a type not declared as
//	  a complex type in the same set;
//	* *FieldNameCollisionError when two origins bind the same field name on
//	  one type;
//	* *UnboundFieldError when source declares a field no resolver covers.
//
// source may be nil to skip schema coverage validation. Build never mutates
// the given descriptors, and any error aborts construction entirely.
//
// Up to the ordering of extension fields (which follows descriptor
// registration order), the resulting table does not depend on the order of
// the descriptor sequence.
func Build(source schema.Source, descriptors ...TypeDescriptor) (*Table, error) {
	types := map[string]*TypeBinding{}

	// Seed complex types with their own fields.
	for _, descriptor := range descriptors {
		if descriptor.Kind != KindComplexType {
			continue
		}
		if descriptor.Target != "" {
			return nil, fmt.Errorf(
				`complex type "%s" must not declare a target`, descriptor.Name)
		}
		if _, exists := types[descriptor.Name]; exists {
			return nil, fmt.Errorf(
				`type "%s" is declared by more than one descriptor`, descriptor.Name)
		}

		typeBinding := &TypeBinding{
			name:  descriptor.Name,
			index: map[string]int{},
		}
		if err := mergeFields(typeBinding, descriptor.Fields, ownOrigin); err != nil {
			return nil, err
		}
		types[descriptor.Name] = typeBinding
	}

	// Attach resolver extensions to their targets.
	for _, descriptor := range descriptors {
		if descriptor.Kind != KindResolverExtension {
			continue
		}
		if descriptor.Target == "" {
			return nil, fmt.Errorf(
				`resolver extension "%s" must name a target type`, descriptor.Name)
		}

		typeBinding := types[descriptor.Target]
		if typeBinding == nil {
			return nil, &UnresolvedTargetError{
				Extension: descriptor.Name,
				Target:    descriptor.Target,
			}
		}

		origin := extensionOrigin(descriptor.Name)
		if err := mergeFields(typeBinding, descriptor.Fields, origin); err != nil {
			return nil, err
		}
	}

	table := &Table{types: types}

	if source != nil {
		if err := validateCoverage(source, table); err != nil {
			return nil, err
		}
	}

	return table, nil
}

// mergeFields appends the given fields to the type binding, normalizing names
// and rejecting collisions with previously merged origins.
func mergeFields(typeBinding *TypeBinding, fields []FieldDef, origin Origin) error {
	for _, field := range fields {
		if field.Resolver == nil {
			return fmt.Errorf(
				`field "%s.%s" (%s) has no resolver`, typeBinding.name, field.Name, origin)
		}

		name := schemaFieldName(field.Name)
		if existing, found := typeBinding.Field(name); found {
			return &FieldNameCollisionError{
				TypeName:  typeBinding.name,
				FieldName: name,
				First:     existing.Origin,
				Second:    origin,
			}
		}

		typeBinding.index[name] = len(typeBinding.fields)
		typeBinding.fields = append(typeBinding.fields, FieldBinding{
			Name:        name,
			Description: field.Description,
			Origin:      origin,
			Resolver:    field.Resolver,
		})
	}
	return nil
}

// validateCoverage verifies that every field the schema declares for a bound
// type has a resolver after merge.
func validateCoverage(source schema.Source, table *Table) error {
	for _, typeName := range table.TypeNames() {
		expected, declared := source.ExpectedFields(typeName)
		if !declared {
			continue
		}

		typeBinding := table.Type(typeName)
		for _, field := range expected {
			if _, bound := typeBinding.Field(field.Name); !bound {
				return &UnboundFieldError{
					TypeName:  typeName,
					FieldName: field.Name,
				}
			}
		}
	}
	return nil
}
