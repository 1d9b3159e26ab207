package eventstream

import "context"

// Publisher publishes verdict events to an event stream backend.
type Publisher interface {
	PublishVerdict(ctx context.Context, event *VerdictIssuedEvent) error
	Close() error
}
