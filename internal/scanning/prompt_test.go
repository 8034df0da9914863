package scanning

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("buildPrompt", func() {
	It("renders the task, the target shape and the taxonomy", func() {
		prompt, err := buildPrompt("", "<product_categories></product_categories>")
		Expect(err).NotTo(HaveOccurred())
		Expect(prompt).To(ContainSubstring("Analyze this receipt image"))
		Expect(prompt).To(ContainSubstring("<receipt>"))
		Expect(prompt).To(ContainSubstring("<product_categories></product_categories>"))
		Expect(prompt).To(ContainSubstring("Output only the XML tags"))
	})

	It("places caller instructions before the task", func() {
		prompt, err := buildPrompt("Prices are in JPY.", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(prompt).To(ContainSubstring("Follow these additional instructions exactly:\nPrices are in JPY."))
		Expect(prompt).To(HavePrefix("Follow these additional instructions"))
	})

	It("drops the instructions block when instructions trim to nothing", func() {
		prompt, err := buildPrompt("   \n\t", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(prompt).NotTo(ContainSubstring("additional instructions"))
		Expect(prompt).To(HavePrefix("Analyze this receipt image"))
	})
})
