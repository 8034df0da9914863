package scanning

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Normalize", func() {
	It("re-indents a compact document into the canonical form", func() {
		in := "<receipt><store_name>Corner Mart</store_name><datetime>2025-03-01 14:05</datetime><total_amount>6.50</total_amount><items><item><name>Milk</name><category>Food</category><total_price>2.50</total_price></item></items></receipt>"
		out, err := Normalize(in)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(`<receipt>
    <store_name>Corner Mart</store_name>
    <datetime>2025-03-01 14:05</datetime>
    <total_amount>6.50</total_amount>
    <items>
        <item>
            <name>Milk</name>
            <category>Food</category>
            <total_price>2.50</total_price>
        </item>
    </items>
</receipt>
`))
	})

	It("is idempotent", func() {
		in := "<receipt>\n\n  <store_name> Corner Mart </store_name><items>\n<item><name>Milk</name></item>   </items></receipt>"
		once, err := Normalize(in)
		Expect(err).NotTo(HaveOccurred())
		twice, err := Normalize(once)
		Expect(err).NotTo(HaveOccurred())
		Expect(twice).To(Equal(once))
	})

	It("keeps the closing tag of an empty items collection on its own line", func() {
		out, err := Normalize("<receipt><store_name>Mart</store_name><items></items></receipt>")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(`<receipt>
    <store_name>Mart</store_name>
    <items>
    </items>
</receipt>
`))
	})

	It("collapses empty leaf elements to an inline pair", func() {
		out, err := Normalize("<receipt><items><item><name>Milk</name><unit_price></unit_price></item></items></receipt>")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("            <unit_price></unit_price>\n"))
	})

	It("escapes markup characters in text", func() {
		out, err := Normalize("<receipt><store_name>Bread &amp; Butter</store_name><items></items></receipt>")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("<store_name>Bread &amp; Butter</store_name>"))

		again, err := Normalize(out)
		Expect(err).NotTo(HaveOccurred())
		Expect(again).To(Equal(out))
	})

	When("a line item has no usable name", func() {
		It("inserts the placeholder for a missing name element", func() {
			out, err := Normalize("<receipt><items><item><category>Food</category></item></items></receipt>")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("<name>" + PlaceholderItemName + "</name>"))
			// The name must come before the other item fields.
			Expect(out).To(MatchRegexp(`(?s)<name>.*<category>`))
		})

		It("replaces a blank name with the placeholder", func() {
			out, err := Normalize("<receipt><items><item><name>   </name></item></items></receipt>")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("<name>" + PlaceholderItemName + "</name>"))
		})
	})

	When("the document is not a receipt", func() {
		It("rejects malformed markup", func() {
			_, err := Normalize("<receipt><store_name>Mart</receipt>")
			Expect(err).To(MatchError(ErrFormat))
		})

		It("rejects a foreign root element", func() {
			_, err := Normalize("<invoice><items></items></invoice>")
			Expect(err).To(MatchError(ErrFormat))
		})

		It("rejects unknown elements inside the receipt", func() {
			_, err := Normalize("<receipt><discount>0.50</discount></receipt>")
			Expect(err).To(MatchError(ErrFormat))
			Expect(err.Error()).To(ContainSubstring("discount"))
		})

		It("rejects unknown elements inside an item", func() {
			_, err := Normalize("<receipt><items><item><name>Milk</name><sku>123</sku></item></items></receipt>")
			Expect(err).To(MatchError(ErrFormat))
		})

		It("rejects markup nested inside leaf elements", func() {
			_, err := Normalize("<receipt><items><item><name><b>Milk</b></name></item></items></receipt>")
			Expect(err).To(MatchError(ErrFormat))
			Expect(err.Error()).To(ContainSubstring("<b>"))
		})
	})
})
