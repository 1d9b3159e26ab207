package websearch_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/aletheia/pkg/logger"
	"github.com/papercomputeco/aletheia/pkg/websearch"
)

const resultsPage = `<!DOCTYPE html>
<html><body>
<div class="result results_links result--ad">
  <h2 class="result__title"><a class="result__a" href="https://duckduckgo.com/y.js?ad_provider=x">Anuncio</a></h2>
  <a class="result__snippet" href="#">compre agora</a>
</div>
<div class="result results_links web-result">
  <h2 class="result__title">
    <a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fg1.globo.com%2Feconomia%2Fselic.html&amp;rut=abc">Copom <b>reduz</b> a Selic</a>
  </h2>
  <a class="result__snippet" href="#">O Banco Central   reduziu a taxa
  de juros.</a>
</div>
<div class="result results_links web-result">
  <h2 class="result__title"><a class="result__a" href="">Sem link</a></h2>
  <a class="result__snippet" href="#">ignorado</a>
</div>
<div class="result results_links web-result">
  <h2 class="result__title"><a class="result__a" href="https://www.bcb.gov.br/copom">Copom</a></h2>
</div>
<div class="result results_links web-result">
  <h2 class="result__title"><a class="result__a" href="https://example.com/3">Terceiro</a></h2>
  <a class="result__snippet" href="#">mais um</a>
</div>
</body></html>`

var _ = Describe("Web search", func() {
	Describe("Format", func() {
		It("should return the sentinel for no results", func() {
			Expect(websearch.Format(nil)).To(Equal("Nenhuma evidência encontrada via DuckDuckGo.\n"))
		})

		It("should number results under the header", func() {
			out := websearch.Format([]websearch.Result{
				{Title: "A", URL: "https://a", Snippet: "sa"},
				{Title: "B", URL: "https://b", Snippet: ""},
			})
			Expect(out).To(Equal("Resultados da web (DuckDuckGo):\n" +
				"[W1] A\nURL: https://a\nTrecho: sa\n\n" +
				"[W2] B\nURL: https://b\nTrecho: \n"))
		})
	})

	Describe("DuckDuckGo", func() {
		var (
			server *httptest.Server
			query  string
			status int
		)

		BeforeEach(func() {
			status = http.StatusOK
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				query = r.URL.Query().Get("q")
				if status != http.StatusOK {
					w.WriteHeader(status)
					return
				}
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				_, _ = w.Write([]byte(resultsPage))
			}))
		})

		AfterEach(func() {
			server.Close()
		})

		It("should parse titles, unwrap redirect links and skip incomplete hits", func() {
			ddg := websearch.NewDuckDuckGo(websearch.DuckDuckGoConfig{Endpoint: server.URL, Logger: logger.Nop()})

			results, err := ddg.Search(context.Background(), "taxa de juros", 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(query).To(Equal("taxa de juros"))
			Expect(results).To(Equal([]websearch.Result{
				{Title: "Copom reduz a Selic", URL: "https://g1.globo.com/economia/selic.html", Snippet: "O Banco Central reduziu a taxa de juros."},
				{Title: "Copom", URL: "https://www.bcb.gov.br/copom", Snippet: ""},
				{Title: "Terceiro", URL: "https://example.com/3", Snippet: "mais um"},
			}))
		})

		It("should cap the number of results", func() {
			ddg := websearch.NewDuckDuckGo(websearch.DuckDuckGoConfig{Endpoint: server.URL})

			results, err := ddg.Search(context.Background(), "juros", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
		})

		It("should fail with ErrSearch on a non-200 reply", func() {
			status = http.StatusForbidden
			ddg := websearch.NewDuckDuckGo(websearch.DuckDuckGoConfig{Endpoint: server.URL})

			_, err := ddg.Search(context.Background(), "juros", 5)
			Expect(err).To(MatchError(websearch.ErrSearch))
		})
	})
})
