package retriever_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/aletheia/pkg/logger"
	"github.com/papercomputeco/aletheia/pkg/retriever"
	testutils "github.com/papercomputeco/aletheia/pkg/utils/test"
	"github.com/papercomputeco/aletheia/pkg/vector"
)

type fixedSearcher struct {
	hits     []vector.QueryResult
	err      error
	lastTopK int
}

func (f *fixedSearcher) QuerySimilar(_ context.Context, _ string, topK int) ([]vector.QueryResult, error) {
	f.lastTopK = topK
	if f.err != nil {
		return nil, f.err
	}
	if len(f.hits) > topK {
		return f.hits[:topK], nil
	}
	return f.hits, nil
}

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("palavra%d", i%10)
	}
	return strings.Join(parts, " ")
}

var _ = Describe("Retriever", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("BuildContext", func() {
		It("should format ranked blocks with label, source and similarity", func() {
			s := &fixedSearcher{hits: []vector.QueryResult{
				testutils.Hit("doc-0", "Copom reduz a Selic", " Juros caem ", "VERDADEIRA", "https://g1.globo.com/a", 0.125),
			}}
			r := retriever.New(s, retriever.Config{}, logger.Nop())

			out, err := r.BuildContext(ctx, "juros", 0, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.lastTopK).To(Equal(retriever.DefaultTopK))
			Expect(out.Hits).To(Equal(1))
			Expect(out.Context).To(Equal(
				"[1] Juros caem (label=VERDADEIRA)\n" +
					"Fonte: https://g1.globo.com/a\n" +
					"Similaridade: 0.875\n" +
					"Trecho: Copom reduz a Selic"))
			Expect(out.Sources).To(Equal([]string{"Juros caem | https://g1.globo.com/a | VERDADEIRA"}))
		})

		It("should fall back to a numbered title and omit absent fields", func() {
			s := &fixedSearcher{hits: []vector.QueryResult{
				testutils.Hit("doc-0", "a", "Primeiro", "", "", 0.1),
				testutils.Hit("doc-1", "b", "", "", "", 0.2),
			}}
			r := retriever.New(s, retriever.Config{}, logger.Nop())

			out, err := r.BuildContext(ctx, "q", 6, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Context).To(Equal("[1] Primeiro\nTrecho: a" + retriever.BlockSeparator + "[2] Documento 2\nTrecho: b"))
			Expect(out.Raw.Distances).To(BeEmpty())
			Expect(out.Raw.Documents).To(Equal([]string{"a", "b"}))
		})

		It("should treat an empty retrieval as a valid empty context", func() {
			r := retriever.New(&fixedSearcher{}, retriever.Config{}, logger.Nop())

			out, err := r.BuildContext(ctx, "nada", 6, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Context).To(BeEmpty())
			Expect(out.Hits).To(BeZero())
			Expect(out.Sources).NotTo(BeNil())
			Expect(out.Sources).To(BeEmpty())
		})

		It("should propagate store errors", func() {
			r := retriever.New(&fixedSearcher{err: errors.New("ollama down")}, retriever.Config{}, logger.Nop())
			_, err := r.BuildContext(ctx, "q", 6, true)
			Expect(err).To(MatchError("ollama down"))
		})

		It("should always admit the first block even when it exceeds the budget", func() {
			s := &fixedSearcher{hits: []vector.QueryResult{
				testutils.Hit("doc-0", words(200), "Longo", "", "", 0.1),
				testutils.Hit("doc-1", "curto", "Curto", "", "", 0.2),
			}}
			r := retriever.New(s, retriever.Config{ContextMaxChars: 50, SnippetMaxChars: 800}, logger.Nop())

			out, err := r.BuildContext(ctx, "q", 6, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Hits).To(Equal(1))
			Expect(utf8.RuneCountInString(out.Context)).To(BeNumerically(">", 50))
		})

		It("should deduplicate sources across all hits, not only admitted blocks", func() {
			s := &fixedSearcher{hits: []vector.QueryResult{
				testutils.Hit("doc-0", words(50), "A", "VERDADEIRA", "u1", 0.1),
				testutils.Hit("doc-1", words(50), "B", "FALSA", "u2", 0.2),
				testutils.Hit("doc-2", words(50), "A", "VERDADEIRA", "u1", 0.3),
				testutils.Hit("doc-3", words(50), "C", "", "", 0.4),
				testutils.Hit("doc-4", words(50), " B ", "FALSA", "u2 ", 0.5),
			}}
			r := retriever.New(s, retriever.Config{ContextMaxChars: 10}, logger.Nop())

			out, err := r.BuildContext(ctx, "q", 6, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Hits).To(Equal(1))
			Expect(out.Sources).To(Equal([]string{
				"A | u1 | VERDADEIRA",
				"B | u2 | FALSA",
				"C |  | ",
			}))
		})

		It("should return every hit in Raw while admitting only the blocks that fit", func() {
			hits := []vector.QueryResult{
				testutils.Hit("doc-0", words(30), "A", "VERDADEIRA", "u1", 0.1),
				testutils.Hit("doc-1", words(30), "B", "FALSA", "u2", 0.2),
				testutils.Hit("doc-2", words(30), "C", "ENGANOSA", "u3", 0.3),
			}
			r := retriever.New(&fixedSearcher{hits: hits}, retriever.Config{ContextMaxChars: 10}, logger.Nop())

			out, err := r.BuildContext(ctx, "q", 3, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Hits).To(Equal(1))
			Expect(out.Raw.Documents).To(HaveLen(len(hits)))
			Expect(out.Raw.Metadatas).To(HaveLen(len(hits)))
			Expect(out.Raw.Distances).To(Equal([]float32{0.1, 0.2, 0.3}))
			Expect(out.Sources).To(Equal([]string{
				"A | u1 | VERDADEIRA",
				"B | u2 | FALSA",
				"C | u3 | ENGANOSA",
			}))
		})

		DescribeTable("should keep the context within budget unless a lone first block overflows",
			func(budget, docs, wordsPerDoc int) {
				hits := make([]vector.QueryResult, docs)
				for i := range hits {
					hits[i] = testutils.Hit(fmt.Sprintf("doc-%d", i), words(wordsPerDoc), fmt.Sprintf("T%d", i), "VERDADEIRA", "src", float32(i)/100)
				}
				r := retriever.New(&fixedSearcher{hits: hits}, retriever.Config{TopK: docs, ContextMaxChars: budget}, logger.Nop())

				out, err := r.BuildContext(ctx, "q", docs, true)
				Expect(err).NotTo(HaveOccurred())
				Expect(out.Hits).To(BeNumerically(">=", 1))
				if out.Hits > 1 {
					Expect(utf8.RuneCountInString(out.Context)).To(BeNumerically("<=", budget))
				}
				Expect(strings.Count(out.Context, retriever.BlockSeparator)).To(Equal(out.Hits - 1))
			},
			Entry("tight budget", 300, 8, 20),
			Entry("default budget", retriever.DefaultContextMaxChars, 12, 150),
			Entry("budget fits all", 100000, 5, 30),
			Entry("budget equals one block", 120, 6, 5),
		)
	})

	Describe("Truncate", func() {
		It("should leave short text untouched", func() {
			Expect(retriever.Truncate("curto", 800)).To(Equal("curto"))
			Expect(retriever.Truncate("", 800)).To(Equal(""))
		})

		It("should back off to the last space inside the tail window", func() {
			txt := "abc defghij"
			Expect(retriever.Truncate(txt, 8)).To(Equal("abc..."))
		})

		It("should cut mid-word when the last space is outside the window", func() {
			txt := strings.Repeat("a", 60) + " " + strings.Repeat("b", 60)
			out := retriever.Truncate(txt, 110)
			Expect(out).To(Equal(strings.Repeat("a", 60) + " " + strings.Repeat("b", 49) + "..."))
		})

		It("should count runes, not bytes", func() {
			txt := strings.Repeat("ç", 10)
			Expect(retriever.Truncate(txt, 10)).To(Equal(txt))
			Expect(retriever.Truncate(txt+"ã", 10)).To(Equal(txt + "..."))
		})

		DescribeTable("should bound length and avoid splitting words beyond the window",
			func(n, limit int) {
				txt := words(n)
				out := retriever.Truncate(txt, limit)
				if utf8.RuneCountInString(txt) <= limit {
					Expect(out).To(Equal(txt))
					return
				}
				Expect(out).To(HaveSuffix(retriever.Ellipsis))
				Expect(utf8.RuneCountInString(out)).To(BeNumerically("<=", limit+len(retriever.Ellipsis)))

				body := strings.TrimSuffix(out, retriever.Ellipsis)
				Expect(strings.HasPrefix(txt, body)).To(BeTrue())
				// either a clean word boundary, or the cut lies beyond the window
				next := txt[len(body)]
				Expect(next == ' ' || utf8.RuneCountInString(body) > limit-40).To(BeTrue())
			},
			Entry("default snippet", 300, 800),
			Entry("small limit", 30, 25),
			Entry("limit on boundary", 10, 89),
			Entry("no truncation", 5, 800),
		)
	})

	Describe("BuildPrompt", func() {
		It("should embed claim and context verbatim in the fixed framing", func() {
			p := retriever.BuildPrompt("A taxa de juros foi reduzida", "[1] BC\nTrecho: x")
			Expect(p).To(HavePrefix("Você é um verificador de fatos. Use APENAS as evidências abaixo para avaliar o enunciado.\n\n"))
			Expect(p).To(ContainSubstring("```\nA taxa de juros foi reduzida\n```"))
			Expect(p).To(ContainSubstring("Evidências (contexto recuperado):\n[1] BC\nTrecho: x\n\n"))
			Expect(p).To(ContainSubstring("1) Se as evidências contradizem, responda FALSA."))
			Expect(p).To(HaveSuffix("reduza a confiança.\n"))
		})
	})
})
