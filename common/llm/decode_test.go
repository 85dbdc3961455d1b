package llm_test

import (
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/agora/common/llm"
)

type pick struct {
	Index    int    `json:"index"`
	Reason   string `json:"reason,omitempty"`
	Category string `json:"category,omitempty"`
}

var _ = Describe("StripFence", func() {
	DescribeTable("removes a wrapping code fence",
		func(input, expected string) {
			Expect(llm.StripFence(input)).To(Equal(expected))
		},
		Entry("plain text untouched", `{"a":1}`, `{"a":1}`),
		Entry("surrounding whitespace trimmed", "  {\"a\":1}\n", `{"a":1}`),
		Entry("json fence", "```json\n{\"a\":1}\n```", `{"a":1}`),
		Entry("bare fence", "```\n[1, 2]\n```", `[1, 2]`),
		Entry("unterminated fence", "```json\n{\"a\":1}", `{"a":1}`),
		Entry("single-line fence", "```{\"a\":1}```", `{"a":1}`),
		Entry("multi-line body kept", "```\n{\n\"a\": 1\n}\n```", "{\n\"a\": 1\n}"),
	)
})

var _ = Describe("RequiredFields", func() {
	It("lists fields without omitempty", func() {
		Expect(llm.RequiredFields[articleResult]()).To(Equal([]string{"content", "title"}))
		Expect(llm.RequiredFields[pick]()).To(Equal([]string{"index"}))
	})
})

var _ = Describe("Decode", func() {
	It("reports missing required fields by name", func() {
		_, err := llm.Decode[articleResult](`{"title": "only a title"}`)

		var mErr *llm.MalformedOutputError
		Expect(errors.As(err, &mErr)).To(BeTrue())
		Expect(mErr.Reason).To(ContainSubstring("content"))
		Expect(mErr.Schema).To(Equal("articleResult"))
	})

	It("treats null and empty strings as missing", func() {
		_, err := llm.Decode[articleResult](`{"title": null, "content": ""}`)

		Expect(err).To(MatchError(llm.ErrMalformedOutput))
		Expect(err.Error()).To(ContainSubstring("content, title"))
	})

	It("keeps only the first 200 characters of the raw text", func() {
		raw := "not json " + strings.Repeat("x", 500)

		_, err := llm.Decode[articleResult](raw)

		var mErr *llm.MalformedOutputError
		Expect(errors.As(err, &mErr)).To(BeTrue())
		Expect(mErr.Raw).To(HaveLen(200))
		Expect(raw).To(HavePrefix(mErr.Raw))
	})

	It("rejects a field of the wrong type", func() {
		_, err := llm.Decode[pick](`{"index": "two"}`)

		Expect(err).To(MatchError(llm.ErrMalformedOutput))
	})

	It("ignores unknown fields", func() {
		res, err := llm.Decode[pick](`{"index": 0, "mood": "curious"}`)

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Index).To(Equal(0))
	})
})

var _ = Describe("DecodeList", func() {
	It("wraps a single object into a list", func() {
		items, err := llm.DecodeList[pick](`{"index": 2, "reason": "big news"}`)

		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(Equal([]pick{{Index: 2, Reason: "big news"}}))
	})

	It("decodes a fenced array", func() {
		items, err := llm.DecodeList[pick]("```json\n[{\"index\": 0}, {\"index\": 3, \"category\": \"economy\"}]\n```")

		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(2))
		Expect(items[1].Category).To(Equal("economy"))
	})

	It("accepts an empty array", func() {
		items, err := llm.DecodeList[pick](`[]`)

		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(BeEmpty())
	})

	It("fails when any element lacks a required field", func() {
		_, err := llm.DecodeList[pick](`[{"index": 1}, {"reason": "no index"}]`)

		var mErr *llm.MalformedOutputError
		Expect(errors.As(err, &mErr)).To(BeTrue())
		Expect(mErr.Schema).To(Equal("pick[1]"))
	})

	It("rejects scalars", func() {
		_, err := llm.DecodeList[pick](`42`)

		Expect(err).To(MatchError(llm.ErrMalformedOutput))
	})
})
