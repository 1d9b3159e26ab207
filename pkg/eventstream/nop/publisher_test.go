package nop_test

import (
	"bytes"
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/aletheia/pkg/eventstream"
	"github.com/papercomputeco/aletheia/pkg/eventstream/nop"
	"github.com/papercomputeco/aletheia/pkg/logger"
)

var _ = Describe("Publisher", func() {
	It("rejects nil events", func() {
		p := nop.NewPublisher(nil)
		Expect(p.PublishVerdict(context.Background(), nil)).To(MatchError(eventstream.ErrNilVerdictEvent))
	})

	It("logs the event instead of sending it", func() {
		var buf bytes.Buffer
		p := nop.NewPublisher(logger.New(logger.WithWriter(&buf), logger.WithDebug(true)))

		err := p.PublishVerdict(context.Background(), &eventstream.VerdictIssuedEvent{
			EventID: "evt-1",
			Source:  eventstream.EventSource{Surface: "cli"},
			Verdict: eventstream.VerdictBody{RecordID: "rec-1", Label: "FALSA"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(ContainSubstring("event_id=evt-1"))
		Expect(buf.String()).To(ContainSubstring("label=FALSA"))
		Expect(p.Close()).To(Succeed())
	})
})
