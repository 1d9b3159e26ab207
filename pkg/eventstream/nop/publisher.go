// Package nop provides a verdict publisher that only logs what it would
// have sent.
package nop

import (
	"context"
	"log/slog"

	"github.com/papercomputeco/aletheia/pkg/eventstream"
)

// Publisher logs every verdict event at debug level and sends nothing.
type Publisher struct {
	logger *slog.Logger
}

// NewPublisher returns a publisher that logs to logger, or discards when
// logger is nil.
func NewPublisher(logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Publisher{logger: logger}
}

func (p *Publisher) PublishVerdict(ctx context.Context, event *eventstream.VerdictIssuedEvent) error {
	if event == nil {
		return eventstream.ErrNilVerdictEvent
	}

	p.logger.DebugContext(ctx, "verdict event",
		"event_id", event.EventID,
		"surface", event.Source.Surface,
		"record_id", event.Verdict.RecordID,
		"label", event.Verdict.Label,
	)
	return nil
}

func (p *Publisher) Close() error {
	return nil
}
