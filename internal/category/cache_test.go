package category

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SnapshotCache", func() {
	var (
		path  string
		cache *SnapshotCache
	)

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "snapshots.db")
		var err error
		cache, err = NewSnapshotCache(path)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if cache != nil {
			cache.Close()
		}
	})

	It("returns an empty snapshot before anything was stored", func() {
		snapshot, err := cache.Get()
		Expect(err).NotTo(HaveOccurred())
		Expect(snapshot).To(BeEmpty())
	})

	It("round-trips a snapshot", func() {
		Expect(cache.Put("<product_categories></product_categories>")).To(Succeed())
		snapshot, err := cache.Get()
		Expect(err).NotTo(HaveOccurred())
		Expect(snapshot).To(Equal("<product_categories></product_categories>"))
	})

	It("replaces the previous snapshot", func() {
		Expect(cache.Put("first")).To(Succeed())
		Expect(cache.Put("second")).To(Succeed())
		snapshot, err := cache.Get()
		Expect(err).NotTo(HaveOccurred())
		Expect(snapshot).To(Equal("second"))
	})

	It("survives reopening the file", func() {
		Expect(cache.Put("persisted")).To(Succeed())
		Expect(cache.Close()).To(Succeed())

		reopened, err := NewSnapshotCache(path)
		Expect(err).NotTo(HaveOccurred())
		cache = reopened

		snapshot, err := cache.Get()
		Expect(err).NotTo(HaveOccurred())
		Expect(snapshot).To(Equal("persisted"))
	})
})
