package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/aletheia/pkg/classifier"
	"github.com/papercomputeco/aletheia/pkg/logger"
	"github.com/papercomputeco/aletheia/pkg/storage"
	testutils "github.com/papercomputeco/aletheia/pkg/utils/test"
)

const trueReply = `{"label":"VERDADEIRA","confidence":0.8,"rationale":"O Copom confirmou.","used_sources":["Copom | https://bcb.gov.br | VERDADEIRA"]}`

func decode[T any](resp *http.Response) T {
	var out T
	body, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	Expect(json.Unmarshal(body, &out)).To(Succeed(), string(body))
	return out
}

func postJSON(path, body string) *http.Request {
	req, err := http.NewRequest(http.MethodPost, path, strings.NewReader(body))
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")
	return req
}

var _ = Describe("Server", func() {
	var (
		fixture *testutils.PipelineFixture
		server  *Server
	)

	BeforeEach(func() {
		var err error
		fixture, err = testutils.NewPipelineFixture(trueReply)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(fixture.Pipeline.Close)

		server = NewServer(Config{ListenAddr: ":0", CORSOrigins: "http://localhost:5173"}, fixture.Pipeline, logger.Nop())
	})

	Describe("GET /", func() {
		It("reports that the backend is running", func() {
			resp, err := server.app.Test(httptestGet("/"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(decode[map[string]string](resp)).To(HaveKeyWithValue("message", RootMessage))
		})
	})

	Describe("CORS", func() {
		It("allows the frontend origin", func() {
			req := httptestGet("/ping")
			req.Header.Set("Origin", "http://localhost:5173")
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("http://localhost:5173"))
		})
	})

	Describe("POST /api/verify", func() {
		It("returns the parsed verdict", func() {
			resp, err := server.app.Test(postJSON("/api/verify", `{"text":"A taxa de juros foi reduzida"}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			res := decode[classifier.Result](resp)
			Expect(res.Label).To(Equal(classifier.LabelTrue))
			Expect(*res.Confidence).To(BeNumerically("~", 0.8))
			Expect(res.UsedSources).To(ConsistOf("Copom | https://bcb.gov.br | VERDADEIRA"))
			Expect(res.Debug.Hits).To(Equal(2))
		})

		It("rejects an empty text", func() {
			resp, err := server.app.Test(postJSON("/api/verify", `{"text":"  "}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("returns 500 with the detail when the model reply is not JSON", func() {
			fixture.Chat.Response = "acho que é verdade"
			resp, err := server.app.Test(postJSON("/api/verify", `{"text":"juros"}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))

			body := decode[ErrorResponse](resp)
			Expect(body.Detail).To(Equal(classifier.InvalidJSONMessage))
			Expect(body.Raw).To(Equal("acho que é verdade"))
		})

		It("returns 500 with the detail on a backend failure", func() {
			fixture.Chat.Fail = true
			resp, err := server.app.Test(postJSON("/api/verify", `{"text":"juros"}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))
			Expect(decode[ErrorResponse](resp).Detail).To(ContainSubstring("mock chat failure"))
		})

		It("checks a URL when no text is given", func() {
			fixture.Extractor.Text = "Vacina altera o DNA humano"
			resp, err := server.app.Test(postJSON("/api/verify", `{"url":"https://exemplo.com"}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(fixture.Extractor.URLs).To(ConsistOf("https://exemplo.com"))
		})

		It("returns 422 when the URL has no text", func() {
			resp, err := server.app.Test(postJSON("/api/verify", `{"url":"https://vazio"}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusUnprocessableEntity))
		})

		It("honours use_web", func() {
			resp, err := server.app.Test(postJSON("/api/verify", `{"text":"juros","use_web":true,"max_web_results":3}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(fixture.Web.MaxResults).To(Equal([]int{3}))
		})
	})

	Describe("GET /api/search", func() {
		It("requires a query", func() {
			resp, err := server.app.Test(httptestGet("/api/search"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("rejects an invalid top_k", func() {
			resp, err := server.app.Test(httptestGet("/api/search?query=juros&top_k=0"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("returns the evidence context", func() {
			resp, err := server.app.Test(httptestGet("/api/search?query=juros&top_k=1"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			body := decode[map[string]any](resp)
			Expect(body).To(HaveKeyWithValue("hits", BeNumerically("==", 1)))
		})
	})

	Describe("GET /api/history", func() {
		waitForHistory := func(n int) {
			Eventually(func() (int, error) {
				return fixture.History.Count(context.Background())
			}).WithTimeout(2 * time.Second).Should(Equal(n))
		}

		It("lists verified claims newest first", func() {
			for i, text := range []string{"primeira", "segunda"} {
				resp, err := server.app.Test(postJSON("/api/verify", `{"text":"`+text+`"}`))
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
				waitForHistory(i + 1)
			}

			resp, err := server.app.Test(httptestGet("/api/history?limit=10"))
			Expect(err).NotTo(HaveOccurred())
			body := decode[HistoryResponse](resp)
			Expect(body.Total).To(Equal(2))
			Expect(body.Items).To(HaveLen(2))
			Expect(body.Items[0].Claim).To(Equal("segunda"))
			Expect(body.Items[0].Label).To(Equal(classifier.LabelTrue))
		})

		It("rejects an invalid limit", func() {
			resp, err := server.app.Test(httptestGet("/api/history?limit=abc"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("returns one verdict by id", func() {
			_, err := fixture.History.Put(context.Background(), &storage.Record{ID: "abc", Claim: "x", CreatedAt: time.Now()})
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(httptestGet("/api/history/abc"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(decode[storage.Record](resp).Claim).To(Equal("x"))

			resp, err = server.app.Test(httptestGet("/api/history/missing"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})
	})
})

func httptestGet(path string) *http.Request {
	req, err := http.NewRequest(http.MethodGet, path, nil)
	Expect(err).NotTo(HaveOccurred())
	return req
}
