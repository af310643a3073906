package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/synergyreader/synergy/pkg/logger"
)

// decode parses one JSON log line.
func decode(buf *bytes.Buffer) map[string]any {
	var parsed map[string]any
	ExpectWithOffset(1, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &parsed)).To(Succeed())
	return parsed
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("disk full")
}

var _ = Describe("New", func() {
	It("writes text at Info level by default", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf))
		l.Debug("hidden")
		l.Info("answer streamed", "entry_id", 42)

		Expect(buf.String()).NotTo(ContainSubstring("hidden"))
		Expect(buf.String()).To(ContainSubstring("answer streamed"))
		Expect(buf.String()).To(ContainSubstring("entry_id=42"))
	})

	It("logs Debug records with WithDebug", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithDebug(true)).Debug("parser state")
		Expect(buf.String()).To(ContainSubstring("parser state"))
	})

	It("writes JSON with WithJSON", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithJSON(true)).Info("entry recorded", "count", 3)

		parsed := decode(&buf)
		Expect(parsed["msg"]).To(Equal("entry recorded"))
		Expect(parsed["count"]).To(BeNumerically("==", 3))
	})

	It("prefers pretty output over JSON whatever the option order", func() {
		var a, b bytes.Buffer
		logger.New(logger.WithWriter(&a), logger.WithPretty(true), logger.WithJSON(true)).Info("one")
		logger.New(logger.WithWriter(&b), logger.WithJSON(true), logger.WithPretty(true)).Info("two")

		Expect(json.Valid(a.Bytes())).To(BeFalse())
		Expect(json.Valid(b.Bytes())).To(BeFalse())
		Expect(a.String()).To(ContainSubstring("one"))
		Expect(b.String()).To(ContainSubstring("two"))
	})

	It("writes to every writer given to WithWriters", func() {
		var a, b bytes.Buffer
		logger.New(logger.WithWriters(&a, &b)).Info("both")
		Expect(a.String()).To(ContainSubstring("both"))
		Expect(b.String()).To(ContainSubstring("both"))
	})

	It("adds the source location with WithSource", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithJSON(true), logger.WithSource(true)).Info("where")
		Expect(decode(&buf)).To(HaveKey("source"))
	})
})

var _ = Describe("Console", func() {
	It("writes pretty records and honours debug", func() {
		var buf bytes.Buffer
		l := logger.Console(&buf, false)
		l.Debug("quiet")
		l.Warn("backend slow")

		Expect(buf.String()).NotTo(ContainSubstring("quiet"))
		Expect(buf.String()).To(ContainSubstring("backend slow"))
		Expect(json.Valid(buf.Bytes())).To(BeFalse())
	})
})

var _ = Describe("Nop", func() {
	It("is disabled at every level", func() {
		l := logger.Nop()
		Expect(l.Enabled(context.Background(), slog.LevelError)).To(BeFalse())
		Expect(func() { l.With("k", "v").WithGroup("g").Error("dropped") }).NotTo(Panic())
	})
})

var _ = Describe("Multi", func() {
	It("writes each record to every logger", func() {
		var term, file bytes.Buffer
		l := logger.Multi(
			logger.New(logger.WithWriter(&term)),
			logger.New(logger.WithWriter(&file), logger.WithJSON(true)),
		)
		l.Info("entry recorded", "id", 9)

		Expect(term.String()).To(ContainSubstring("entry recorded"))
		Expect(decode(&file)["id"]).To(BeNumerically("==", 9))
	})

	It("respects each logger's level", func() {
		var info, debug bytes.Buffer
		l := logger.Multi(
			logger.New(logger.WithWriter(&info)),
			logger.New(logger.WithWriter(&debug), logger.WithDebug(true)),
		)
		l.Debug("details")

		Expect(info.String()).To(BeEmpty())
		Expect(debug.String()).To(ContainSubstring("details"))
	})

	It("carries attributes and groups to every logger", func() {
		var buf bytes.Buffer
		l := logger.Multi(logger.New(logger.WithWriter(&buf), logger.WithJSON(true)))
		l.With("component", "api").WithGroup("request").Info("served", "path", "/v1/entries")

		parsed := decode(&buf)
		Expect(parsed["component"]).To(Equal("api"))
		group, ok := parsed["request"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(group["path"]).To(Equal("/v1/entries"))
	})

	It("keeps writing when one handler fails", func() {
		var buf bytes.Buffer
		h := logger.Multi(
			slog.New(failingHandler{}),
			logger.New(logger.WithWriter(&buf)),
		).Handler()

		r := slog.NewRecord(time.Time{}, slog.LevelInfo, "still here", 0)
		err := h.Handle(context.Background(), r)

		Expect(err).To(MatchError(ContainSubstring("disk full")))
		Expect(buf.String()).To(ContainSubstring("still here"))
	})

	It("skips nil loggers", func() {
		Expect(func() { logger.Multi(nil, logger.Nop()).Info("ok") }).NotTo(Panic())
	})
})
