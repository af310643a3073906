package servecmder

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/synergyreader/synergy/pkg/config"
	"github.com/synergyreader/synergy/pkg/eventstream/kafka"
	"github.com/synergyreader/synergy/pkg/eventstream/nop"
	"github.com/synergyreader/synergy/pkg/storage/inmemory"
	"github.com/synergyreader/synergy/pkg/storage/sqlite"
)

var _ = Describe("Serve command", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "serve-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	// parse builds the serve tree, parses args against sub and resolves it.
	parse := func(sub string, keys []string, args ...string) *services {
		root := NewServeCmd()
		root.PersistentFlags().String("config-dir", "", "")
		root.PersistentFlags().Bool("debug", false, "")
		root.SetErr(&bytes.Buffer{})

		target := root
		if sub != "" {
			var err error
			target, _, err = root.Find([]string{sub})
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(target.ParseFlags(append(args, "--config-dir", tmpDir))).To(Succeed())

		s, err := resolve(target, keys...)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(s.close)
		return s
	}

	It("has api and proxy subcommands", func() {
		cmd := NewServeCmd()
		names := []string{}
		for _, c := range cmd.Commands() {
			names = append(names, c.Name())
		}
		Expect(names).To(ConsistOf("api", "proxy"))
	})

	It("uses --listen on the standalone subcommands", func() {
		for _, c := range NewServeCmd().Commands() {
			Expect(c.Flags().Lookup("listen")).NotTo(BeNil(), c.Name())
		}
	})

	Describe("resolve", func() {
		It("applies defaults when nothing is set", func() {
			s := parse("", []string{config.FlagUpstream, config.FlagProxyListen, config.FlagAPIListen})
			Expect(s.v.GetString("proxy.upstream")).To(Equal("http://localhost:5000"))
			Expect(s.v.GetString("proxy.listen")).To(Equal(":8080"))
			Expect(s.v.GetString("api.listen")).To(Equal(":8081"))
		})

		It("prefers flags over defaults", func() {
			s := parse("proxy", []string{config.FlagUpstream, config.FlagProxyListenStandalone},
				"--upstream", "http://reader:5000", "--listen", ":9999")
			Expect(s.v.GetString("proxy.upstream")).To(Equal("http://reader:5000"))
			Expect(s.v.GetString("proxy.listen")).To(Equal(":9999"))
		})

		It("tees logs into --log-file as JSON", func() {
			path := filepath.Join(tmpDir, "logs", "serve.log")
			s := parse("", nil, "--log-file", path)
			s.logger.Info("hello from serve")

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`"msg":"hello from serve"`))
		})
	})

	Describe("openDriver", func() {
		It("defaults to in-memory storage", func() {
			s := parse("api", storageKeys)
			driver, err := s.openDriver(context.Background())
			Expect(err).NotTo(HaveOccurred())
			defer driver.Close()
			Expect(driver).To(BeAssignableToTypeOf(&inmemory.Driver{}))
		})

		It("opens sqlite when a path is given", func() {
			s := parse("api", storageKeys, "--sqlite", filepath.Join(tmpDir, "synergy.db"))
			driver, err := s.openDriver(context.Background())
			Expect(err).NotTo(HaveOccurred())
			defer driver.Close()
			Expect(driver).To(BeAssignableToTypeOf(&sqlite.Driver{}))
		})
	})

	Describe("openPublisher", func() {
		It("defaults to the nop publisher", func() {
			s := parse("proxy", eventKeys)
			pub, err := s.openPublisher()
			Expect(err).NotTo(HaveOccurred())
			Expect(pub).To(BeAssignableToTypeOf(&nop.Publisher{}))
		})

		It("builds a kafka publisher from brokers and topic", func() {
			s := parse("proxy", eventKeys, "--eventstream", "kafka", "--kafka-brokers", "k1:9092,k2:9092")
			Expect(s.brokers()).To(Equal([]string{"k1:9092", "k2:9092"}))

			pub, err := s.openPublisher()
			Expect(err).NotTo(HaveOccurred())
			defer pub.Close()
			Expect(pub).To(BeAssignableToTypeOf(&kafka.Publisher{}))
		})

		It("rejects kafka without brokers", func() {
			s := parse("proxy", eventKeys, "--eventstream", "kafka")
			_, err := s.openPublisher()
			Expect(err).To(HaveOccurred())
		})

		It("rejects unknown providers", func() {
			s := parse("proxy", eventKeys, "--eventstream", "pigeon")
			_, err := s.openPublisher()
			Expect(err).To(MatchError(ContainSubstring("unknown event stream provider")))
		})
	})

	It("stops when the context is cancelled", func() {
		s := parse("", nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Expect(wait(ctx, s, make(chan error))).To(Succeed())
	})
})
