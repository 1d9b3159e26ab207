package knowledge_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/aletheia/pkg/knowledge"
	"github.com/papercomputeco/aletheia/pkg/logger"
	testutils "github.com/papercomputeco/aletheia/pkg/utils/test"
	"github.com/papercomputeco/aletheia/pkg/vector"
	"github.com/papercomputeco/aletheia/pkg/vector/inmemory"
)

var _ = Describe("Store", func() {
	var (
		ctx      context.Context
		embedder *testutils.MockEmbedder
		store    *knowledge.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		embedder = testutils.NewMockEmbedder()
		embedder.Embeddings["juros"] = []float32{1, 0, 0}
		embedder.Embeddings["chuva"] = []float32{0, 1, 0}
		embedder.Embeddings["vacina"] = []float32{0, 0, 1}
		embedder.Embeddings["taxa de juros"] = []float32{0.9, 0.1, 0}

		var err error
		store, err = knowledge.NewStore(knowledge.Config{
			Driver:   inmemory.NewDriver(),
			Embedder: embedder,
			Logger:   logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	seed := func() {
		Expect(store.AddDocuments(ctx,
			[]string{"juros", "chuva", "vacina"},
			[]vector.Metadata{{Title: "BC"}, {Title: "Clima"}, {Title: "Saude"}},
			[]string{"doc-0", "doc-1", "doc-2"},
		)).To(Succeed())
	}

	Describe("AddDocuments", func() {
		It("should reject mismatched lengths before any embedding", func() {
			err := store.AddDocuments(ctx, []string{"juros", "chuva"}, []vector.Metadata{{}}, []string{"a", "b"})
			Expect(err).To(MatchError(knowledge.ErrValidation))
			Expect(embedder.Calls).To(BeZero())
		})

		It("should embed each text exactly once", func() {
			seed()
			Expect(embedder.Calls).To(Equal(3))
			Expect(store.Count(ctx)).To(Equal(3))
		})

		It("should refuse an id already in the collection without embedding", func() {
			seed()
			embedder.Calls = 0

			err := store.AddDocuments(ctx, []string{"x"}, []vector.Metadata{{}}, []string{"doc-1"})
			Expect(err).To(MatchError(vector.ErrDuplicateID))
			Expect(embedder.Calls).To(BeZero())
		})

		It("should refuse ids repeated within the batch", func() {
			err := store.AddDocuments(ctx, []string{"a", "b"}, []vector.Metadata{{}, {}}, []string{"x", "x"})
			Expect(err).To(MatchError(vector.ErrDuplicateID))
		})

		It("should propagate embedding failures and store nothing", func() {
			embedder.FailOn = "chuva"
			err := store.AddDocuments(ctx,
				[]string{"juros", "chuva"}, []vector.Metadata{{}, {}}, []string{"a", "b"})
			Expect(err).To(HaveOccurred())
			Expect(store.Count(ctx)).To(Equal(0))
		})
	})

	Describe("QuerySimilar", func() {
		It("should return an empty result for an empty collection", func() {
			results, err := store.QuerySimilar(ctx, "juros", 6)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("should return nearest first using one embedding call", func() {
			seed()
			embedder.Calls = 0

			results, err := store.QuerySimilar(ctx, "taxa de juros", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(embedder.Calls).To(Equal(1))
			Expect(results).To(HaveLen(2))
			Expect(results[0].ID).To(Equal("doc-0"))
			Expect(results[0].Metadata.Title).To(Equal("BC"))
			Expect(results[0].Distance).To(BeNumerically("<=", results[1].Distance))
		})

		It("should reject a non-positive top_k", func() {
			_, err := store.QuerySimilar(ctx, "juros", 0)
			Expect(err).To(MatchError(knowledge.ErrValidation))
		})
	})

	Describe("DeleteByIDs", func() {
		It("should be idempotent", func() {
			seed()
			Expect(store.DeleteByIDs(ctx, []string{"doc-1"})).To(Succeed())
			Expect(store.DeleteByIDs(ctx, []string{"doc-1"})).To(Succeed())
			Expect(store.Count(ctx)).To(Equal(2))
		})

		It("should free the id for re-use", func() {
			seed()
			Expect(store.DeleteByIDs(ctx, []string{"doc-1"})).To(Succeed())
			Expect(store.AddDocuments(ctx, []string{"chuva"}, []vector.Metadata{{}}, []string{"doc-1"})).To(Succeed())
		})
	})

	Describe("ResetCollection", func() {
		It("should leave an empty collection that answers queries", func() {
			seed()
			Expect(store.ResetCollection(ctx)).To(Succeed())

			results, err := store.QuerySimilar(ctx, "juros", 6)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("should succeed on a collection that was never populated", func() {
			Expect(store.ResetCollection(ctx)).To(Succeed())
		})
	})
})
