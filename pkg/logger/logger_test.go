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

	"github.com/papercomputeco/aletheia/pkg/logger"
)

func decode(buf *bytes.Buffer) map[string]any {
	var parsed map[string]any
	ExpectWithOffset(1, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &parsed)).To(Succeed())
	return parsed
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

var _ = Describe("New", func() {
	It("writes text records at info level by default", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf))
		l.Info("verdict issued", "label", "FALSA")
		l.Debug("hidden")

		Expect(buf.String()).To(ContainSubstring("verdict issued"))
		Expect(buf.String()).To(ContainSubstring("label=FALSA"))
		Expect(buf.String()).NotTo(ContainSubstring("hidden"))
	})

	It("emits debug records with WithDebug", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithDebug(true)).Debug("retrieved", "hits", 3)
		Expect(buf.String()).To(ContainSubstring("retrieved"))
	})

	It("writes one JSON object per record", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithJSON(true)).Info("indexed", "rows", 42)

		parsed := decode(&buf)
		Expect(parsed["msg"]).To(Equal("indexed"))
		Expect(parsed["rows"]).To(BeNumerically("==", 42))
	})

	It("prefers JSON over pretty output", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithPretty(true), logger.WithJSON(true)).Info("both")
		Expect(decode(&buf)["msg"]).To(Equal("both"))
	})

	It("renders pretty records", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithPretty(true)).Info("aletheia ready")
		Expect(buf.String()).To(ContainSubstring("aletheia ready"))
	})

	It("copies records to every writer", func() {
		var a, b bytes.Buffer
		logger.New(logger.WithWriters(&a, &b)).Info("copied")
		Expect(a.String()).To(ContainSubstring("copied"))
		Expect(b.String()).To(ContainSubstring("copied"))
	})

	It("adds the caller with WithSource", func() {
		var buf bytes.Buffer
		logger.New(logger.WithWriter(&buf), logger.WithJSON(true), logger.WithSource(true)).Info("where")
		Expect(decode(&buf)).To(HaveKey(slog.SourceKey))
	})
})

var _ = Describe("Nop", func() {
	It("is disabled at every level", func() {
		h := logger.Nop().Handler()
		for _, lvl := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelError} {
			Expect(h.Enabled(context.Background(), lvl)).To(BeFalse())
		}
	})
})

var _ = Describe("Multi", func() {
	It("sends each record to every logger that accepts its level", func() {
		var term, file bytes.Buffer
		l := logger.Multi(
			logger.New(logger.WithWriter(&term)),
			logger.New(logger.WithWriter(&file), logger.WithJSON(true), logger.WithDebug(true)),
		)

		l.Debug("debug only in file")
		l.Info("everywhere")

		Expect(term.String()).NotTo(ContainSubstring("debug only in file"))
		Expect(term.String()).To(ContainSubstring("everywhere"))
		Expect(file.String()).To(ContainSubstring("debug only in file"))
		Expect(file.String()).To(ContainSubstring("everywhere"))
	})

	It("keeps attrs and groups on children", func() {
		var buf bytes.Buffer
		l := logger.Multi(logger.New(logger.WithWriter(&buf), logger.WithJSON(true)))

		l.With("surface", "api").WithGroup("verdict").Info("recorded", "label", "VERDADEIRA")

		parsed := decode(&buf)
		Expect(parsed["surface"]).To(Equal("api"))
		Expect(parsed["verdict"]).To(HaveKeyWithValue("label", "VERDADEIRA"))
	})

	It("skips nil loggers", func() {
		var buf bytes.Buffer
		l := logger.Multi(nil, logger.New(logger.WithWriter(&buf)))
		Expect(func() { l.Info("ok") }).NotTo(Panic())
		Expect(buf.String()).To(ContainSubstring("ok"))
	})

	It("still writes to healthy loggers when one fails", func() {
		var buf bytes.Buffer
		l := logger.Multi(
			logger.New(logger.WithWriter(failingWriter{})),
			logger.New(logger.WithWriter(&buf)),
		)

		err := l.Handler().Handle(context.Background(), slog.NewRecord(time.Time{}, slog.LevelInfo, "after failure", 0))
		Expect(err).To(MatchError(ContainSubstring("disk full")))
		Expect(buf.String()).To(ContainSubstring("after failure"))
	})
})
