package chroma_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/aletheia/pkg/logger"
	"github.com/papercomputeco/aletheia/pkg/vector"
	"github.com/papercomputeco/aletheia/pkg/vector/chroma"
)

var _ = Describe("Driver", func() {
	var log *slog.Logger

	BeforeEach(func() {
		log = logger.Nop()
	})

	Describe("NewDriver", func() {
		It("should return an error when URL is empty", func() {
			_, err := chroma.NewDriver(chroma.Config{URL: ""}, log)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("chroma URL is required"))
		})

		It("should create the default collection with cosine space", func() {
			var created map[string]any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodGet {
					http.Error(w, "not found", http.StatusNotFound)
					return
				}
				_ = json.NewDecoder(r.Body).Decode(&created)
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{"id": "c1", "name": "news"})
			}))
			defer server.Close()

			_, err := chroma.NewDriver(chroma.Config{URL: server.URL, MaxRetries: 1}, log)
			Expect(err).NotTo(HaveOccurred())
			Expect(created["name"]).To(Equal("news"))
			Expect(created["metadata"]).To(HaveKeyWithValue("hnsw:space", "cosine"))
		})

		It("should succeed after retrying when Chroma becomes available", func() {
			var attempts atomic.Int32

			// Each retry cycle is a GET for the collection followed by a POST
			// to create it. Fail two full cycles, then succeed on the GET.
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempt := attempts.Add(1)
				if attempt <= 4 {
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{
					"id":   "test-collection-id",
					"name": "news",
				})
			}))
			defer server.Close()

			driver, err := chroma.NewDriver(chroma.Config{
				URL:           server.URL,
				MaxRetries:    5,
				RetryDelay:    10 * time.Millisecond,
				MaxRetryDelay: 50 * time.Millisecond,
			}, log)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver).NotTo(BeNil())
			Expect(attempts.Load()).To(BeNumerically(">=", int32(5)))
		})

		It("should return an error after exhausting all retries", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			}))
			defer server.Close()

			_, err := chroma.NewDriver(chroma.Config{
				URL:           server.URL,
				MaxRetries:    3,
				RetryDelay:    10 * time.Millisecond,
				MaxRetryDelay: 50 * time.Millisecond,
			}, log)
			Expect(err).To(HaveOccurred())
			Expect(err).To(MatchError(vector.ErrConnection))
			Expect(err.Error()).To(ContainSubstring("after 3 attempts"))
		})
	})

	Describe("Interface compliance", func() {
		It("should implement vector.Driver interface", func() {
			var _ vector.Driver = (*chroma.Driver)(nil)
		})
	})

	Describe("against a Chroma server", func() {
		var (
			fake   *fakeChroma
			server *httptest.Server
			driver *chroma.Driver
			ctx    context.Context
		)

		BeforeEach(func() {
			ctx = context.Background()
			fake = newFakeChroma()
			server = httptest.NewServer(fake)

			var err error
			driver, err = chroma.NewDriver(chroma.Config{URL: server.URL, MaxRetries: 1}, log)
			Expect(err).NotTo(HaveOccurred())

			Expect(driver.Add(ctx, []vector.Document{
				{ID: "doc-0", Text: "juros caem", Metadata: vector.Metadata{Title: "BC", Label: "VERDADEIRA", Source: "g1"}, Embedding: []float32{1, 0, 0}},
				{ID: "doc-1", Text: "chuva forte", Metadata: vector.Metadata{Title: "Clima"}, Embedding: []float32{0, 1, 0}},
				{ID: "doc-2", Text: "juros estaveis", Embedding: []float32{0.7, 0.7, 0}},
			})).To(Succeed())
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
			server.Close()
		})

		It("should return nearest documents first with text and metadata", func() {
			results, err := driver.Query(ctx, []float32{1, 0, 0}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].ID).To(Equal("doc-0"))
			Expect(results[0].Text).To(Equal("juros caem"))
			Expect(results[0].Metadata).To(Equal(vector.Metadata{Title: "BC", Label: "VERDADEIRA", Source: "g1"}))
			Expect(results[0].Distance).To(BeNumerically("<=", results[1].Distance))
		})

		It("should refuse duplicate IDs without writing any of the batch", func() {
			err := driver.Add(ctx, []vector.Document{
				{ID: "doc-9", Embedding: []float32{0, 0, 1}},
				{ID: "doc-0", Embedding: []float32{0, 0, 1}},
			})
			Expect(err).To(MatchError(vector.ErrDuplicateID))
			Expect(driver.Count(ctx)).To(Equal(3))
		})

		It("should refuse IDs repeated within one batch", func() {
			err := driver.Add(ctx, []vector.Document{
				{ID: "doc-9", Embedding: []float32{0, 0, 1}},
				{ID: "doc-9", Embedding: []float32{0, 0, 1}},
			})
			Expect(err).To(MatchError(vector.ErrDuplicateID))
		})

		It("should delete idempotently", func() {
			Expect(driver.Delete(ctx, []string{"doc-1"})).To(Succeed())
			Expect(driver.Delete(ctx, []string{"doc-1"})).To(Succeed())
			Expect(driver.Count(ctx)).To(Equal(2))
		})

		It("should reset to an empty usable collection", func() {
			Expect(driver.Reset(ctx)).To(Succeed())
			Expect(fake.deletes).To(Equal(1))
			Expect(driver.Count(ctx)).To(Equal(0))

			results, err := driver.Query(ctx, []float32{1, 0, 0}, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())

			Expect(driver.Add(ctx, []vector.Document{{ID: "doc-0", Embedding: []float32{1, 0, 0}}})).To(Succeed())
		})
	})
})
