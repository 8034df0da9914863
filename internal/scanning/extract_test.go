package scanning

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractXML", func() {
	It("returns a bare document unchanged", func() {
		fragment, err := ExtractXML("<receipt><store_name>Mart</store_name></receipt>")
		Expect(err).NotTo(HaveOccurred())
		Expect(fragment).To(Equal("<receipt><store_name>Mart</store_name></receipt>"))
	})

	It("strips surrounding prose", func() {
		text := "Sure! Here is the extracted receipt:\n<receipt><items></items></receipt>\nLet me know if you need anything else."
		fragment, err := ExtractXML(text)
		Expect(err).NotTo(HaveOccurred())
		Expect(fragment).To(Equal("<receipt><items></items></receipt>"))
	})

	It("strips fenced code blocks", func() {
		text := "```xml\n<receipt>\n    <store_name>Mart</store_name>\n</receipt>\n```"
		fragment, err := ExtractXML(text)
		Expect(err).NotTo(HaveOccurred())
		Expect(fragment).To(HavePrefix("<receipt>"))
		Expect(fragment).To(HaveSuffix("</receipt>"))
		Expect(fragment).NotTo(ContainSubstring("```"))
	})

	It("spans to the last closing tag when several appear", func() {
		text := "<receipt><items></items></receipt> trailing <receipt></receipt>"
		fragment, err := ExtractXML(text)
		Expect(err).NotTo(HaveOccurred())
		Expect(fragment).To(HaveSuffix("<receipt></receipt>"))
		Expect(fragment).To(HavePrefix("<receipt><items>"))
	})

	When("no document is present", func() {
		It("fails for prose-only responses", func() {
			_, err := ExtractXML("I could not read the image, sorry.")
			Expect(err).To(MatchError(ErrExtraction))
		})

		It("fails when only the opening tag exists", func() {
			_, err := ExtractXML("<receipt><store_name>Mart</store_name>")
			Expect(err).To(MatchError(ErrExtraction))
		})

		It("fails when the closing tag precedes the opening tag", func() {
			_, err := ExtractXML("</receipt> noise <receipt>")
			Expect(err).To(MatchError(ErrExtraction))
		})
	})
})
