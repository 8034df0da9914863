package scanning

import (
	"encoding/csv"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ConvertXMLToCSV", func() {
	canonical := `<receipt>
    <store_name>Corner Mart</store_name>
    <datetime>2025-03-01 14:05</datetime>
    <total_amount>6.50</total_amount>
    <items>
        <item>
            <name>Milk</name>
            <category>Food</category>
            <subcategory>Dairy and Eggs</subcategory>
            <unit_price>2.50</unit_price>
            <quantity>1</quantity>
            <total_price>2.50</total_price>
        </item>
        <item>
            <name>Paper Towels</name>
            <category>Household</category>
        </item>
    </items>
</receipt>
`

	It("emits the header and one row per line item", func() {
		out, err := ConvertXMLToCSV(canonical)
		Expect(err).NotTo(HaveOccurred())

		records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(3))
		Expect(records[0]).To(Equal([]string{
			"store_name", "datetime", "total_amount",
			"item_name", "category", "subcategory",
			"unit_price", "quantity", "total_price",
		}))
	})

	It("repeats the document fields on every row", func() {
		out, err := ConvertXMLToCSV(canonical)
		Expect(err).NotTo(HaveOccurred())

		records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
		Expect(err).NotTo(HaveOccurred())
		for _, row := range records[1:] {
			Expect(row[0]).To(Equal("Corner Mart"))
			Expect(row[1]).To(Equal("2025-03-01 14:05"))
			Expect(row[2]).To(Equal("6.50"))
		}
	})

	It("leaves missing item fields as empty cells", func() {
		out, err := ConvertXMLToCSV(canonical)
		Expect(err).NotTo(HaveOccurred())

		records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
		Expect(err).NotTo(HaveOccurred())
		towels := records[2]
		Expect(towels).To(HaveLen(9))
		Expect(towels[3]).To(Equal("Paper Towels"))
		Expect(towels[5]).To(Equal(""))
		Expect(towels[6]).To(Equal(""))
		Expect(towels[8]).To(Equal(""))
	})

	It("yields only the header for a receipt without items", func() {
		out, err := ConvertXMLToCSV("<receipt>\n    <store_name>Mart</store_name>\n    <items>\n    </items>\n</receipt>\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.Count(strings.TrimSpace(out), "\n")).To(Equal(0))
		Expect(out).To(HavePrefix("store_name,"))
	})

	It("quotes values containing delimiters", func() {
		doc := "<receipt><store_name>Mart, Inc.</store_name><items><item><name>Salt \"n\" Pepper</name></item></items></receipt>"
		formatted, err := Normalize(doc)
		Expect(err).NotTo(HaveOccurred())
		out, err := ConvertXMLToCSV(formatted)
		Expect(err).NotTo(HaveOccurred())

		records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
		Expect(err).NotTo(HaveOccurred())
		Expect(records[1][0]).To(Equal("Mart, Inc."))
		Expect(records[1][3]).To(Equal(`Salt "n" Pepper`))
	})

	It("rejects text that is not a receipt document", func() {
		_, err := ConvertXMLToCSV("store_name: Mart")
		Expect(err).To(MatchError(ErrFormat))
	})
})
