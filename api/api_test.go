package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/synergyreader/synergy/pkg/logger"
	"github.com/synergyreader/synergy/pkg/storage"
	"github.com/synergyreader/synergy/pkg/storage/inmemory"
	"github.com/synergyreader/synergy/pkg/storage/storagetest"
)

// doJSON performs req against the server and decodes the JSON body into out.
func doJSON(server *Server, req *http.Request, out any) int {
	resp, err := server.app.Test(req, -1)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	if out != nil {
		Expect(json.Unmarshal(body, out)).To(Succeed(), string(body))
	}
	return resp.StatusCode
}

var _ = Describe("API Server", func() {
	var (
		server *Server
		driver *inmemory.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = inmemory.NewDriver()

		var err error
		server, err = NewServer(Config{ListenAddr: ":0"}, driver, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = server.Shutdown()
	})

	put := func(question, ans string) int64 {
		id, err := driver.Put(ctx, storagetest.NewEntry(question, ans))
		Expect(err).NotTo(HaveOccurred())
		return id
	}

	Describe("GET /ping", func() {
		It("answers pong", func() {
			var body string
			Expect(doJSON(server, httptest.NewRequest(http.MethodGet, "/ping", nil), &body)).To(Equal(http.StatusOK))
			Expect(body).To(Equal("pong"))
		})
	})

	Describe("GET /v1/entries", func() {
		It("returns an empty list for an empty store", func() {
			var body ListResponse
			Expect(doJSON(server, httptest.NewRequest(http.MethodGet, "/v1/entries", nil), &body)).To(Equal(http.StatusOK))
			Expect(body.Count).To(Equal(0))
			Expect(body.Entries).NotTo(BeNil())
		})

		It("returns the newest entries first up to limit", func() {
			put("first", "a")
			put("second", "b")
			put("third", "c")

			var body ListResponse
			Expect(doJSON(server, httptest.NewRequest(http.MethodGet, "/v1/entries?limit=2", nil), &body)).To(Equal(http.StatusOK))
			Expect(body.Count).To(Equal(2))
			Expect(body.Entries[0].Question).To(Equal("third"))
			Expect(body.Entries[1].Question).To(Equal("second"))
		})

		It("rejects a bad limit", func() {
			var body ErrorResponse
			Expect(doJSON(server, httptest.NewRequest(http.MethodGet, "/v1/entries?limit=-3", nil), &body)).To(Equal(http.StatusBadRequest))
			Expect(body.Error).To(ContainSubstring("limit"))
		})
	})

	Describe("GET /v1/entries/:id", func() {
		It("returns the entry", func() {
			id := put("What is ATP?", "Energy currency.")

			var body storage.Entry
			Expect(doJSON(server, httptest.NewRequest(http.MethodGet, "/v1/entries/1", nil), &body)).To(Equal(http.StatusOK))
			Expect(body.ID).To(Equal(id))
			Expect(body.Answer).To(Equal("Energy currency."))
		})

		It("returns 404 for unknown ids", func() {
			var body ErrorResponse
			Expect(doJSON(server, httptest.NewRequest(http.MethodGet, "/v1/entries/42", nil), &body)).To(Equal(http.StatusNotFound))
			Expect(body.Error).To(Equal("entry not found"))
		})

		It("returns 400 for malformed ids", func() {
			Expect(doJSON(server, httptest.NewRequest(http.MethodGet, "/v1/entries/abc", nil), nil)).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("PUT /v1/entries/:id/rating", func() {
		rate := func(path, body string) *http.Request {
			req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			return req
		}

		It("stores the rating", func() {
			put("q", "a")

			var body storage.Entry
			Expect(doJSON(server, rate("/v1/entries/1/rating", `{"rating":4,"comment":"clear"}`), &body)).To(Equal(http.StatusOK))
			Expect(body.Rating).NotTo(BeNil())
			Expect(*body.Rating).To(Equal(4))
			Expect(body.Comment).To(Equal("clear"))
		})

		It("rejects out of range ratings", func() {
			put("q", "a")
			Expect(doJSON(server, rate("/v1/entries/1/rating", `{"rating":9}`), nil)).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 for unknown ids", func() {
			Expect(doJSON(server, rate("/v1/entries/5/rating", `{"rating":3}`), nil)).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GET /v1/stats", func() {
		It("summarises ratings", func() {
			put("a", "1")
			put("b", "2")
			put("c", "3")
			Expect(driver.Rate(ctx, 1, 5, "")).To(Succeed())
			Expect(driver.Rate(ctx, 2, 3, "")).To(Succeed())

			var body storage.Stats
			Expect(doJSON(server, httptest.NewRequest(http.MethodGet, "/v1/stats", nil), &body)).To(Equal(http.StatusOK))
			Expect(body.TotalEntries).To(Equal(3))
			Expect(body.TotalRatings).To(Equal(2))
			Expect(body.AverageRating).To(BeNumerically("~", 4.0))
			Expect(body.Distribution).To(HaveKeyWithValue("5", 1))
			Expect(body.Distribution).To(HaveKeyWithValue("3", 1))
			Expect(body.Distribution).To(HaveKeyWithValue("1", 0))
		})
	})

	Describe("/mcp", func() {
		It("is mounted by default", func() {
			resp, err := server.app.Test(httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}")), -1)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).NotTo(Equal(http.StatusNotFound))
		})

		It("is absent when disabled", func() {
			noMCP, err := NewServer(Config{DisableMCP: true}, driver, logger.Nop())
			Expect(err).NotTo(HaveOccurred())

			resp, err := noMCP.app.Test(httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}")), -1)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})
})
