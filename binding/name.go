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
	"strings"
	"unicode"

	"github.com/huandu/xstrings"
)

// schemaFieldName normalizes a Go-style exported field name to schema lower
// camel case. A leading run of upper-case letters is treated as an acronym:
// "ID" becomes "id" and "IDNumber" becomes "idNumber". Names that already
// start with a lower-case rune are kept untouched.
func schemaFieldName(name string) string {
	if name == "" {
		return name
	}

	runes := []rune(name)
	if !unicode.IsUpper(runes[0]) {
		return name
	}

	// Length of the leading upper-case run
	upper := 0
	for upper < len(runes) && unicode.IsUpper(runes[upper]) {
		upper++
	}

	if upper == len(runes) {
		// The whole name is an acronym.
		return strings.ToLower(name)
	}
	if upper == 1 {
		return xstrings.FirstRuneToLower(name)
	}

	// All but the last upper-case rune belong to the acronym; the last one
	// starts the next word ("IDNumber" -> "id" + "Number").
	return strings.ToLower(string(runes[:upper-1])) + string(runes[upper-1:])
}
