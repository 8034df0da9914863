package category

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Provider", func() {
	When("neither store nor cache is configured", func() {
		It("serves the bundled taxonomy", func() {
			p := NewProvider(nil, nil)
			Expect(p.Snapshot(context.Background())).To(Equal(Static()))
		})

		It("refuses to sync", func() {
			p := NewProvider(nil, nil)
			_, err := p.Sync(context.Background())
			Expect(err).To(HaveOccurred())
		})
	})

	When("only the on-disk cache is configured", func() {
		var cache *SnapshotCache

		BeforeEach(func() {
			var err error
			cache, err = NewSnapshotCache(filepath.Join(GinkgoT().TempDir(), "snapshots.db"))
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			cache.Close()
		})

		It("serves the cached snapshot when one exists", func() {
			Expect(cache.Put("<product_categories><category name=\"Cached\"></category></product_categories>")).To(Succeed())
			p := NewProvider(nil, cache)
			Expect(p.Snapshot(context.Background())).To(ContainSubstring(`name="Cached"`))
		})

		It("keeps serving the snapshot from memory afterwards", func() {
			Expect(cache.Put("cached-snapshot")).To(Succeed())
			p := NewProvider(nil, cache)
			Expect(p.Snapshot(context.Background())).To(Equal("cached-snapshot"))

			// A later cache failure does not matter once published.
			Expect(cache.Close()).To(Succeed())
			Expect(p.Snapshot(context.Background())).To(Equal("cached-snapshot"))

			var err error
			cache, err = NewSnapshotCache(filepath.Join(GinkgoT().TempDir(), "reopen.db"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("falls back to the bundled taxonomy when the cache is empty", func() {
			p := NewProvider(nil, cache)
			Expect(p.Snapshot(context.Background())).To(Equal(Static()))
		})
	})
})
