// Package storagetest holds the behaviour every storage.Driver must share,
// as Ginkgo specs that driver packages run against their implementation.
package storagetest

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/synergyreader/synergy/pkg/answer"
	"github.com/synergyreader/synergy/pkg/storage"
)

// NewEntry returns an entry with the given question and answer.
func NewEntry(question, ans string) *storage.Entry {
	return &storage.Entry{
		Question:     question,
		SelectedText: "selected: " + question,
		Answer:       ans,
		Model:        "llama3.1:8b",
	}
}

// DriverSpecs registers the shared driver specs. newDriver is called before
// each test and must return an empty store.
func DriverSpecs(newDriver func() storage.Driver) {
	var (
		driver storage.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = nil
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
		}
	})

	put := func(e *storage.Entry) int64 {
		id, err := driver.Put(ctx, e)
		Expect(err).NotTo(HaveOccurred())
		return id
	}

	Describe("Put and Get", func() {
		It("round-trips every field", func() {
			backendID := int64(77)
			score := 0.82
			page := 4
			created := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
			e := &storage.Entry{
				BackendID:    &backendID,
				Question:     "What is photosynthesis?",
				SelectedText: "Plants convert light.",
				Answer:       "A process.",
				Model:        "llama3.1:8b",
				Context: &answer.Context{
					ContextChunks:   []string{"chunk one"},
					Citations:       []answer.Citation{{Source: "bio.pdf", Page: &page}},
					SimilarityScore: &score,
				},
				Errors:    []string{"Database error occurred"},
				CreatedAt: created,
			}

			id := put(e)
			Expect(id).To(BeNumerically(">", 0))
			Expect(e.ID).To(Equal(id))

			got, err := driver.Get(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(id))
			Expect(*got.BackendID).To(Equal(int64(77)))
			Expect(got.Question).To(Equal(e.Question))
			Expect(got.SelectedText).To(Equal(e.SelectedText))
			Expect(got.Answer).To(Equal(e.Answer))
			Expect(got.Model).To(Equal(e.Model))
			Expect(got.Context.ContextChunks).To(Equal([]string{"chunk one"}))
			Expect(got.Context.Citations[0].Source).To(Equal("bio.pdf"))
			Expect(*got.Context.Citations[0].Page).To(Equal(4))
			Expect(*got.Context.SimilarityScore).To(Equal(0.82))
			Expect(got.Errors).To(Equal([]string{"Database error occurred"}))
			Expect(got.Rating).To(BeNil())
			Expect(got.CreatedAt.Equal(created)).To(BeTrue())
		})

		It("keeps optional fields empty", func() {
			id := put(NewEntry("q", "a"))

			got, err := driver.Get(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.BackendID).To(BeNil())
			Expect(got.Context).To(BeNil())
			Expect(got.Errors).To(BeEmpty())
			Expect(got.CreatedAt.IsZero()).To(BeFalse())
		})

		It("assigns increasing ids", func() {
			first := put(NewEntry("one", "a"))
			second := put(NewEntry("two", "b"))
			Expect(second).To(BeNumerically(">", first))
		})

		It("rejects a nil entry", func() {
			_, err := driver.Put(ctx, nil)
			Expect(err).To(HaveOccurred())
		})

		It("returns NotFoundError for unknown ids", func() {
			_, err := driver.Get(ctx, 999)
			Expect(storage.IsNotFound(err)).To(BeTrue())
			Expect(err).To(MatchError(storage.NotFoundError{ID: 999}))
		})
	})

	Describe("List", func() {
		It("returns newest first and honours the limit", func() {
			put(NewEntry("one", "a"))
			put(NewEntry("two", "b"))
			put(NewEntry("three", "c"))

			all, err := driver.List(ctx, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(3))
			Expect(all[0].Question).To(Equal("three"))
			Expect(all[2].Question).To(Equal("one"))

			limited, err := driver.List(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(limited).To(HaveLen(2))
			Expect(limited[1].Question).To(Equal("two"))
		})

		It("returns nothing for an empty store", func() {
			all, err := driver.List(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(BeEmpty())
		})
	})

	Describe("Search", func() {
		BeforeEach(func() {
			put(NewEntry("What is Photosynthesis?", "Light to sugar."))
			put(NewEntry("Who wrote Hamlet?", "Shakespeare."))
			put(&storage.Entry{Question: "Define ratio", SelectedText: "50% of 10_000", Answer: "Half."})
		})

		It("matches question and answer case-insensitively", func() {
			found, err := driver.Search(ctx, "photosynthesis", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))

			found, err = driver.Search(ctx, "SHAKESPEARE", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))
			Expect(found[0].Question).To(Equal("Who wrote Hamlet?"))
		})

		It("matches selected text", func() {
			found, err := driver.Search(ctx, "selected: who", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))
		})

		It("treats wildcard characters literally", func() {
			found, err := driver.Search(ctx, "50%", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))

			found, err = driver.Search(ctx, "%", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))

			found, err = driver.Search(ctx, "0_0", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))
		})

		It("honours the limit", func() {
			found, err := driver.Search(ctx, "?", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))
			Expect(found[0].Question).To(Equal("Who wrote Hamlet?"))
		})
	})

	Describe("Rate", func() {
		It("stores rating and comment", func() {
			id := put(NewEntry("q", "a"))
			Expect(driver.Rate(ctx, id, 4, "helpful")).To(Succeed())

			got, err := driver.Get(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(*got.Rating).To(Equal(4))
			Expect(got.Comment).To(Equal("helpful"))
		})

		It("rejects ratings outside 1 to 5", func() {
			id := put(NewEntry("q", "a"))
			Expect(driver.Rate(ctx, id, 0, "")).To(MatchError(storage.ErrInvalidRating))
			Expect(driver.Rate(ctx, id, 6, "")).To(MatchError(storage.ErrInvalidRating))
		})

		It("returns NotFoundError for unknown ids", func() {
			err := driver.Rate(ctx, 12345, 3, "")
			Expect(storage.IsNotFound(err)).To(BeTrue())
		})
	})
}
