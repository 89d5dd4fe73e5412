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

import (
	"encoding/json"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// ResultField is one resolved field of a ResultMap.
type ResultField struct {
	// Schema field name
	Name string

	// Resolved value: a scalar, a *ResultMap for object fields, or a
	// []interface{} for list fields
	Value interface{}
}

// ResultMap is the resolved value of one object: its fields in selection
// order. Unlike a plain map it preserves field order when serialized.
type ResultMap struct {
	fields []ResultField
}

func newResultMap(selections []Selection) *ResultMap {
	fields := make([]ResultField, len(selections))
	for i, selection := range selections {
		fields[i].Name = selection.Field
	}
	return &ResultMap{fields: fields}
}

// Fields returns the resolved fields in selection order. The returned slice is
// shared; callers must not modify it.
func (result *ResultMap) Fields() []ResultField {
	return result.fields
}

// Get returns the value resolved for the named field and whether the field was
// selected.
func (result *ResultMap) Get(name string) (interface{}, bool) {
	for i := range result.fields {
		if result.fields[i].Name == name {
			return result.fields[i].Value, true
		}
	}
	return nil, false
}

// MarshalJSON implements json.Marshaler, writing the fields as a JSON object
// in selection order.
func (result *ResultMap) MarshalJSON() ([]byte, error) {
	stream := jsoniter.ConfigCompatibleWithStandardLibrary.BorrowStream(nil)
	defer jsoniter.ConfigCompatibleWithStandardLibrary.ReturnStream(stream)

	stream.WriteObjectStart()
	for i := range result.fields {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(result.fields[i].Name)
		stream.WriteVal(result.fields[i].Value)
	}
	stream.WriteObjectEnd()

	if err := stream.Error; err != nil {
		return nil, err
	}

	// The stream buffer is reused after ReturnStream; hand out a copy.
	buf := stream.Buffer()
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}

var _ json.Marshaler = (*ResultMap)(nil)

// FieldError describes the failed resolution of one field. A field error never
// aborts the pass; the failing field resolves to null and its siblings
// continue.
type FieldError struct {
	// Message describing the failure
	Message string `json:"message"`

	// Path from the root to the failed field: field names and list indices
	Path []interface{} `json:"path,omitempty"`
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if len(e.Path) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (at %v)", e.Message, e.Path)
}

// Response is the outcome of one resolution pass: the resolved data plus the
// field errors collected along the way.
type Response struct {
	Data   *ResultMap    `json:"data"`
	Errors []*FieldError `json:"errors,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (response *Response) MarshalJSON() ([]byte, error) {
	stream := jsoniter.ConfigCompatibleWithStandardLibrary.BorrowStream(nil)
	defer jsoniter.ConfigCompatibleWithStandardLibrary.ReturnStream(stream)

	stream.WriteObjectStart()
	stream.WriteObjectField("data")
	stream.WriteVal(response.Data)
	if len(response.Errors) > 0 {
		stream.WriteMore()
		stream.WriteObjectField("errors")
		stream.WriteVal(response.Errors)
	}
	stream.WriteObjectEnd()

	if err := stream.Error; err != nil {
		return nil, err
	}

	buf := stream.Buffer()
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}

var _ json.Marshaler = (*Response)(nil)
