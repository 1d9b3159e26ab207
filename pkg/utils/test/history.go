package testutils

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/aletheia/pkg/storage"
)

// DescribeHistoryDriver registers the behaviour every storage.Driver must
// share. newDriver is called before each spec and must return an empty store.
func DescribeHistoryDriver(newDriver func() storage.Driver) {
	var (
		ctx    context.Context
		driver storage.Driver
		base   time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = newDriver()
		base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	})

	record := func(id string, offset time.Duration) *storage.Record {
		conf := 0.82
		return &storage.Record{
			ID:          id,
			Claim:       "A taxa de juros foi reduzida",
			Label:       "VERDADEIRA",
			Confidence:  &conf,
			Rationale:   "O Copom reduziu a Selic.",
			UsedSources: []string{"Copom corta juros | https://g1.globo.com/a | VERDADEIRA"},
			CreatedAt:   base.Add(offset),
		}
	}

	It("stores and retrieves a record", func() {
		inserted, err := driver.Put(ctx, record("a", 0))
		Expect(err).NotTo(HaveOccurred())
		Expect(inserted).To(BeTrue())

		got, err := driver.Get(ctx, "a")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Claim).To(Equal("A taxa de juros foi reduzida"))
		Expect(got.Label).To(Equal("VERDADEIRA"))
		Expect(got.Confidence).NotTo(BeNil())
		Expect(*got.Confidence).To(BeNumerically("~", 0.82, 1e-9))
		Expect(got.UsedSources).To(ConsistOf("Copom corta juros | https://g1.globo.com/a | VERDADEIRA"))
		Expect(got.CreatedAt.Equal(base)).To(BeTrue())
	})

	It("treats a repeated id as a no-op", func() {
		_, err := driver.Put(ctx, record("a", 0))
		Expect(err).NotTo(HaveOccurred())

		again := record("a", time.Hour)
		again.Label = "FALSA"
		inserted, err := driver.Put(ctx, again)
		Expect(err).NotTo(HaveOccurred())
		Expect(inserted).To(BeFalse())

		got, err := driver.Get(ctx, "a")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Label).To(Equal("VERDADEIRA"))
		Expect(driver.Count(ctx)).To(Equal(1))
	})

	It("keeps error records and a missing confidence", func() {
		r := &storage.Record{
			ID:        "err",
			Claim:     "x",
			Error:     "Resposta do modelo não é um JSON válido.",
			UsedWeb:   true,
			CreatedAt: base,
		}
		_, err := driver.Put(ctx, r)
		Expect(err).NotTo(HaveOccurred())

		got, err := driver.Get(ctx, "err")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Error).To(Equal(r.Error))
		Expect(got.Confidence).To(BeNil())
		Expect(got.UsedWeb).To(BeTrue())
		Expect(got.UsedSources).To(BeEmpty())
	})

	It("returns NotFoundError for an unknown id", func() {
		_, err := driver.Get(ctx, "missing")
		Expect(err).To(MatchError(storage.NotFoundError{ID: "missing"}))
	})

	It("lists newest first within the limit", func() {
		for i, id := range []string{"old", "new", "mid"} {
			offsets := []time.Duration{0, 2 * time.Minute, time.Minute}
			_, err := driver.Put(ctx, record(id, offsets[i]))
			Expect(err).NotTo(HaveOccurred())
		}

		all, err := driver.List(ctx, 0)
		Expect(err).NotTo(HaveOccurred())
		ids := make([]string, len(all))
		for i, r := range all {
			ids[i] = r.ID
		}
		Expect(ids).To(Equal([]string{"new", "mid", "old"}))

		top, err := driver.List(ctx, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(top).To(HaveLen(2))
		Expect(top[0].ID).To(Equal("new"))
	})

	It("rejects records without an id", func() {
		_, err := driver.Put(ctx, &storage.Record{Claim: "x"})
		Expect(err).To(HaveOccurred())
	})
}
