package api

import (
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apisearch "github.com/synergyreader/synergy/api/search"
	"github.com/synergyreader/synergy/pkg/logger"
	"github.com/synergyreader/synergy/pkg/storage/inmemory"
	"github.com/synergyreader/synergy/pkg/storage/storagetest"
)

var _ = Describe("handleSearchEndpoint", func() {
	var (
		server *Server
		inMem  *inmemory.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		inMem = inmemory.NewDriver()
		ctx = context.Background()

		var err error
		server, err = NewServer(Config{ListenAddr: ":0", DisableMCP: true}, inMem, logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		for _, qa := range [][2]string{
			{"Define entropy", "A measure of disorder."},
			{"Entropy in information theory?", "Average surprise of outcomes."},
			{"What is enthalpy?", "Heat content at constant pressure."},
		} {
			_, err := inMem.Put(ctx, storagetest.NewEntry(qa[0], qa[1]))
			Expect(err).NotTo(HaveOccurred())
		}
	})

	It("returns 400 when q is missing", func() {
		var body ErrorResponse
		Expect(doJSON(server, httptest.NewRequest(http.MethodGet, "/v1/search", nil), &body)).To(Equal(http.StatusBadRequest))
		Expect(body.Error).To(Equal("q parameter is required"))
	})

	It("returns 400 for a bad limit", func() {
		Expect(doJSON(server, httptest.NewRequest(http.MethodGet, "/v1/search?q=x&limit=zero", nil), nil)).To(Equal(http.StatusBadRequest))
	})

	It("returns matches case-insensitively", func() {
		var body apisearch.Output
		Expect(doJSON(server, httptest.NewRequest(http.MethodGet, "/v1/search?q=ENTROPY", nil), &body)).To(Equal(http.StatusOK))
		Expect(body.Query).To(Equal("ENTROPY"))
		Expect(body.Count).To(Equal(2))
		Expect(body.Results[0].Question).To(Equal("Entropy in information theory?"))
		Expect(body.Results[0].Matched).To(ContainElement("question"))
	})

	It("honours the limit", func() {
		var body apisearch.Output
		Expect(doJSON(server, httptest.NewRequest(http.MethodGet, "/v1/search?q=e&limit=1", nil), &body)).To(Equal(http.StatusOK))
		Expect(body.Count).To(Equal(1))
	})
})
