package inmemory_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/synergyreader/synergy/pkg/storage"
	"github.com/synergyreader/synergy/pkg/storage/inmemory"
	"github.com/synergyreader/synergy/pkg/storage/storagetest"
)

var _ = Describe("Driver", func() {
	storagetest.DriverSpecs(func() storage.Driver {
		return inmemory.NewDriver()
	})

	It("does not share stored entries with callers", func() {
		ctx := context.Background()
		d := inmemory.NewDriver()

		e := storagetest.NewEntry("q", "a")
		e.Errors = []string{"first"}
		id, err := d.Put(ctx, e)
		Expect(err).NotTo(HaveOccurred())

		e.Errors[0] = "changed"
		got, err := d.Get(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Errors).To(Equal([]string{"first"}))

		got.Question = "mutated"
		again, err := d.Get(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		Expect(again.Question).To(Equal("q"))
	})
})
