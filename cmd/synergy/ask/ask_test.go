package askcmder_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	askcmder "github.com/synergyreader/synergy/cmd/synergy/ask"
	"github.com/synergyreader/synergy/pkg/dotdir"
)

const answerStream = "__READY__\n\nThe clause limits liability.__CONTEXT__{\"context_chunks\":[\"c\"],\"citations\":[\"contract.pdf\"]}__\n\n__ENTRY_ID__42__"

var _ = Describe("Ask command", func() {
	var (
		tmpDir   string
		server   *httptest.Server
		mu       sync.Mutex
		received map[string]any
		status   int
		body     string
	)

	newCmd := func(args ...string) (*cobra.Command, *bytes.Buffer) {
		cmd := askcmder.NewAskCmd()
		cmd.PersistentFlags().String("config-dir", "", "Override path to .synergy/ config directory")
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append(args, "--config-dir", tmpDir, "--backend", server.URL))
		return cmd, out
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "ask-test-*")
		Expect(err).NotTo(HaveOccurred())

		status = http.StatusOK
		body = answerStream
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/ask" {
				http.NotFound(w, r)
				return
			}
			var payload map[string]any
			_ = json.NewDecoder(r.Body).Decode(&payload)

			mu.Lock()
			received = payload
			mu.Unlock()

			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}))
	})

	AfterEach(func() {
		server.Close()
		os.RemoveAll(tmpDir)
	})

	It("has the expected flags", func() {
		cmd := askcmder.NewAskCmd()
		for _, name := range []string{"backend", "model", "selected", "file", "raw", "render", "tui"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
	})

	It("streams the answer without markers and prints the footer", func() {
		cmd, out := newCmd("What", "does", "it", "mean?", "--selected", "The seller is not liable.")
		Expect(cmd.Execute()).To(Succeed())

		Expect(out.String()).To(ContainSubstring("The clause limits liability."))
		Expect(out.String()).NotTo(ContainSubstring("__"))
		Expect(out.String()).To(ContainSubstring("42"))
		Expect(out.String()).To(ContainSubstring("contract.pdf"))

		mu.Lock()
		defer mu.Unlock()
		Expect(received["question"]).To(Equal("What does it mean?"))
		Expect(received["selected_text"]).To(Equal("The seller is not liable."))
		Expect(received["model"]).To(Equal("llama3.1:8b"))
	})

	It("remembers the entry id of the answer", func() {
		cmd, _ := newCmd("Why?", "-s", "text", "--model", "mistral")
		Expect(cmd.Execute()).To(Succeed())

		last, err := dotdir.NewManager().LoadLastAsk(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(last).NotTo(BeNil())
		Expect(last.EntryID).To(Equal(int64(42)))
		Expect(last.Question).To(Equal("Why?"))
		Expect(last.Model).To(Equal("mistral"))
	})

	It("writes the raw stream byte for byte", func() {
		rawPath := filepath.Join(tmpDir, "answer.stream")
		cmd, _ := newCmd("Why?", "-s", "text", "--raw", rawPath)
		Expect(cmd.Execute()).To(Succeed())

		raw, err := os.ReadFile(rawPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).To(Equal(answerStream))
	})

	It("reports backend errors embedded in the stream", func() {
		body = "Partial answer __ERROR__model crashed__"
		cmd, out := newCmd("Why?", "-s", "text")
		Expect(cmd.Execute()).To(Succeed())

		Expect(out.String()).To(ContainSubstring("Partial answer"))
		Expect(out.String()).To(ContainSubstring("model crashed"))

		last, err := dotdir.NewManager().LoadLastAsk(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(last).To(BeNil())
	})

	It("uses a text document as the selected text", func() {
		path := filepath.Join(tmpDir, "notes.txt")
		Expect(os.WriteFile(path, []byte("From the notes file."), 0o600)).To(Succeed())

		cmd, _ := newCmd("Why?", "--file", path)
		Expect(cmd.Execute()).To(Succeed())

		mu.Lock()
		defer mu.Unlock()
		Expect(received["selected_text"]).To(Equal("From the notes file."))
	})

	It("fails when the backend rejects the question", func() {
		status = http.StatusUnauthorized
		body = `{"detail":"Invalid token"}`

		cmd, _ := newCmd("Why?", "-s", "text")
		err := cmd.Execute()
		Expect(err).To(MatchError(ContainSubstring("could not get answer from backend")))
		Expect(err).To(MatchError(ContainSubstring("Invalid token")))
	})

	It("requires selected text", func() {
		cmd, _ := newCmd("Why?")
		Expect(cmd.Execute()).To(MatchError(ContainSubstring("selected text is required")))
	})

	It("rejects --selected together with --file", func() {
		cmd, _ := newCmd("Why?", "-s", "a", "-f", "b.txt")
		Expect(cmd.Execute()).To(MatchError(ContainSubstring("either --selected or --file")))
	})
})
