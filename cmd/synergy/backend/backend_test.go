package backend_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/synergyreader/synergy/cmd/synergy/backend"
	"github.com/synergyreader/synergy/pkg/config"
	"github.com/synergyreader/synergy/pkg/credentials"
	"github.com/synergyreader/synergy/pkg/dotdir"
)

var _ = Describe("Conn", func() {
	var tmpDir string

	resolve := func(args ...string) *backend.Conn {
		var conn *backend.Conn
		var backendURL string

		cmd := &cobra.Command{
			Use: "test",
			RunE: func(cmd *cobra.Command, _ []string) error {
				var err error
				conn, err = backend.Resolve(cmd, backend.Flags, config.FlagBackend)
				return err
			},
		}
		cmd.PersistentFlags().String("config-dir", "", "")
		config.AddStringFlag(cmd, backend.Flags, config.FlagBackend, &backendURL)
		cmd.SetArgs(append(args, "--config-dir", tmpDir))
		Expect(cmd.Execute()).To(Succeed())
		return conn
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "backend-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("uses the configured defaults", func() {
		conn := resolve()
		Expect(conn.BackendURL()).To(Equal("http://localhost:5000"))
		Expect(conn.APITarget()).To(Equal("http://localhost:8081"))
		Expect(conn.ConfigDir).To(Equal(tmpDir))
	})

	It("prefers the flag over the config file", func() {
		cfger, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfger.SetConfigValue("client.backend_url", "http://from-file:5000")).To(Succeed())

		Expect(resolve().BackendURL()).To(Equal("http://from-file:5000"))
		Expect(resolve("--backend", "http://from-flag:5000").BackendURL()).To(Equal("http://from-flag:5000"))
	})

	It("attaches the stored session token to the client", func() {
		mgr, err := credentials.NewManager(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(mgr.SetSession("http://reader:5000/", credentials.Session{Username: "ada", Token: "tok-1"})).To(Succeed())

		conn := resolve("--backend", "http://reader:5000")
		token, err := conn.RequireToken()
		Expect(err).NotTo(HaveOccurred())
		Expect(token).To(Equal("tok-1"))

		cl, err := conn.Client()
		Expect(err).NotTo(HaveOccurred())
		Expect(cl.Token()).To(Equal("tok-1"))
		Expect(cl.BaseURL()).To(Equal("http://reader:5000"))
	})

	It("reports a missing session", func() {
		_, err := resolve().RequireToken()
		Expect(err).To(MatchError(backend.ErrSignedOut))
	})
})

var _ = Describe("local API helpers", func() {
	var server *httptest.Server

	BeforeEach(func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			switch r.URL.Path {
			case "/v1/entries":
				_, _ = w.Write([]byte(`{"count":1,"entries":[{"id":3,"question":"q","answer":"a"}]}`))
			case "/v1/search":
				if r.URL.Query().Get("q") == "" {
					w.WriteHeader(http.StatusBadRequest)
					_, _ = w.Write([]byte(`{"error":"q parameter is required"}`))
					return
				}
				_, _ = w.Write([]byte(`{"query":"tort","count":1,"results":[{"id":3,"question":"q","matched":["answer"]}]}`))
			default:
				http.NotFound(w, r)
			}
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("lists entries", func() {
		out, err := backend.ListLocal(context.Background(), server.URL, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Count).To(Equal(1))
		Expect(out.Entries[0].ID).To(Equal(int64(3)))
	})

	It("searches entries", func() {
		out, err := backend.SearchLocal(context.Background(), server.URL, "tort", 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Results[0].Matched).To(ConsistOf("answer"))
	})

	It("surfaces API errors", func() {
		_, err := backend.SearchLocal(context.Background(), server.URL, "", 5)
		Expect(err).To(MatchError(ContainSubstring("q parameter is required")))
	})
})

var _ = Describe("EntryID", func() {
	var (
		tmpDir string
		conn   *backend.Conn
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "entry-id-test-*")
		Expect(err).NotTo(HaveOccurred())
		conn = &backend.Conn{ConfigDir: tmpDir}
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("parses numeric ids", func() {
		id, err := conn.EntryID("17")
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(int64(17)))
	})

	It("rejects non-positive and non-numeric ids", func() {
		_, err := conn.EntryID("0")
		Expect(err).To(HaveOccurred())
		_, err = conn.EntryID("abc")
		Expect(err).To(HaveOccurred())
	})

	It("resolves last from the saved answer", func() {
		_, err := conn.EntryID("last")
		Expect(err).To(MatchError(ContainSubstring("no previous answer")))

		err = dotdir.NewManager().SaveLastAsk(&dotdir.LastAsk{EntryID: 99, AskedAt: time.Now()}, tmpDir)
		Expect(err).NotTo(HaveOccurred())

		id, err := conn.EntryID("last")
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(int64(99)))
	})
})
