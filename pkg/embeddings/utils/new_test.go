package embeddingutils_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/aletheia/pkg/embeddings/ollama"
	embeddingutils "github.com/papercomputeco/aletheia/pkg/embeddings/utils"
	testutils "github.com/papercomputeco/aletheia/pkg/utils/test"
	"github.com/papercomputeco/aletheia/pkg/vector"
)

var _ = Describe("NewEmbedder", func() {
	It("builds the ollama embedder by default", func() {
		e, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{Model: "nomic-embed-text"})
		Expect(err).NotTo(HaveOccurred())
		Expect(e).To(BeAssignableToTypeOf(&ollama.Embedder{}))
	})

	It("embeds through the configured target", func() {
		fake := testutils.NewFakeOllama("")
		DeferCleanup(fake.Close)

		e, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: "ollama",
			TargetURL:    fake.URL,
		})
		Expect(err).NotTo(HaveOccurred())

		vec, err := e.Embed(context.Background(), "taxa de juros")
		Expect(err).NotTo(HaveOccurred())
		Expect(vec).To(HaveLen(testutils.FakeOllamaDimensions))
	})

	It("enforces the configured dimensions", func() {
		fake := testutils.NewFakeOllama("")
		DeferCleanup(fake.Close)

		ok, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			TargetURL:  fake.URL,
			Dimensions: testutils.FakeOllamaDimensions,
		})
		Expect(err).NotTo(HaveOccurred())
		_, err = ok.Embed(context.Background(), "vacina")
		Expect(err).NotTo(HaveOccurred())

		mismatched, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			TargetURL:  fake.URL,
			Dimensions: 768,
		})
		Expect(err).NotTo(HaveOccurred())
		_, err = mismatched.Embed(context.Background(), "vacina")
		Expect(err).To(MatchError(vector.ErrEmbedding))
		Expect(err).To(MatchError(ContainSubstring("got 4 dimensions")))
	})

	It("rejects unknown providers", func() {
		e, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{ProviderType: "openai"})
		Expect(err).To(MatchError(ContainSubstring("unsupported embedding provider")))
		Expect(e).To(BeNil())
	})
})
