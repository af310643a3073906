package uploadcmder_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	uploadcmder "github.com/synergyreader/synergy/cmd/synergy/upload"
)

var _ = Describe("Upload command", func() {
	var (
		tmpDir  string
		server  *httptest.Server
		uploads atomic.Int32
	)

	run := func(args ...string) (string, error) {
		cmd := uploadcmder.NewUploadCmd()
		cmd.PersistentFlags().String("config-dir", "", "Override path to .synergy/ config directory")
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append(args, "--config-dir", tmpDir, "--backend", server.URL))
		err := cmd.Execute()
		return out.String(), err
	}

	writeFile := func(name, content string) string {
		path := filepath.Join(tmpDir, name)
		Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "upload-cmd-test-*")
		Expect(err).NotTo(HaveOccurred())

		uploads.Store(0)
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/upload" {
				http.NotFound(w, r)
				return
			}
			n := uploads.Add(1)

			_, header, err := r.FormFile("files")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `[{"filename":%q,"document_id":%d,"chunks_count":2}]`, header.Filename, n)
		}))
	})

	AfterEach(func() {
		server.Close()
		os.RemoveAll(tmpDir)
	})

	It("has the expected flags", func() {
		cmd := uploadcmder.NewUploadCmd()
		Expect(cmd.Flags().Lookup("backend")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("workers").DefValue).To(Equal("3"))
		Expect(cmd.Flags().Lookup("watch")).NotTo(BeNil())
	})

	It("uploads every file and prints one line each", func() {
		a := writeFile("a.txt", "first document")
		b := writeFile("b.json", `{"k":"v"}`)

		out, err := run(a, b)
		Expect(err).NotTo(HaveOccurred())
		Expect(uploads.Load()).To(Equal(int32(2)))
		Expect(out).To(ContainSubstring(a))
		Expect(out).To(ContainSubstring(b))
		Expect(out).To(ContainSubstring("2 chunks"))
	})

	It("fails when a file cannot be extracted", func() {
		good := writeFile("good.txt", "fine")
		bad := writeFile("image.png", "not a document")

		out, err := run(good, bad, "--workers", "1")
		Expect(err).To(MatchError("1 of 2 uploads failed"))
		Expect(out).To(ContainSubstring(bad))
		Expect(uploads.Load()).To(Equal(int32(1)))
	})

	It("requires files or a watch directory", func() {
		_, err := run()
		Expect(err).To(MatchError(ContainSubstring("no files given")))
	})
})
