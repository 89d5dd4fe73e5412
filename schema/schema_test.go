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

package schema_test

import (
	"github.com/MakeNowJust/heredoc/v2"

	"github.com/ricky-hartmann-zocdoc/graphbind/schema"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("LoadSDL", func() {
	It("enumerates declared fields with their argument shapes", func() {
		source, err := schema.LoadSDL("providers.graphql", heredoc.Doc(`
			type Query {
				provider(id: ID!): Provider
			}

			type Provider {
				id: ID!
				name: String!
				reviews(first: Int): [String!]
			}
		`))
		Expect(err).ShouldNot(HaveOccurred())

		fields, found := source.ExpectedFields("Provider")
		Expect(found).Should(BeTrue())
		Expect(fields).Should(Equal([]schema.Field{
			{Name: "id", Type: "ID!"},
			{Name: "name", Type: "String!"},
			{Name: "reviews", Type: "[String!]", Arguments: []schema.Argument{
				{Name: "first", Type: "Int"},
			}},
		}))

		fields, found = source.ExpectedFields("Query")
		Expect(found).Should(BeTrue())
		Expect(fields).Should(HaveLen(1))
		Expect(fields[0].Name).Should(Equal("provider"))
	})

	It("does not report undeclared or non-object types", func() {
		source, err := schema.LoadSDL("scalars.graphql", heredoc.Doc(`
			type Query {
				when: Instant
			}

			scalar Instant
		`))
		Expect(err).ShouldNot(HaveOccurred())

		_, found := source.ExpectedFields("Office")
		Expect(found).Should(BeFalse())

		_, found = source.ExpectedFields("Instant")
		Expect(found).Should(BeFalse())
	})

	It("rejects invalid schema documents", func() {
		_, err := schema.LoadSDL("broken.graphql", `type Query { provider: Missing }`)
		Expect(err).Should(HaveOccurred())
	})
})

var _ = Describe("FieldMap", func() {
	It("serves fields from a plain map", func() {
		source := schema.FieldMap{
			"Provider": {"id", "name"},
		}

		fields, found := source.ExpectedFields("Provider")
		Expect(found).Should(BeTrue())
		Expect(fields).Should(HaveLen(2))
		Expect(fields[0].Name).Should(Equal("id"))

		_, found = source.ExpectedFields("Office")
		Expect(found).Should(BeFalse())
	})
})
