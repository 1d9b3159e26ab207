package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeVerdictIssued is emitted after a verdict is returned to a caller.
	EventTypeVerdictIssued = "aletheia.verdict.issued"
)

// VerdictIssuedEvent is a transport-neutral event payload for an issued verdict.
type VerdictIssuedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	Request       RequestMeta `json:"request_meta"`
	Verdict       VerdictBody `json:"verdict"`
}

// EventSource identifies which surface produced the verdict.
type EventSource struct {
	// Surface is one of api, mcp or cli.
	Surface string `json:"surface"`
	Model   string `json:"model,omitempty"`
}

// RequestMeta captures request lifecycle metadata for the event.
type RequestMeta struct {
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DurationMs  int64     `json:"duration_ms"`
	UsedWeb     bool      `json:"used_web"`
}

// VerdictBody is the verdict as it was returned.
type VerdictBody struct {
	RecordID    string   `json:"record_id"`
	Claim       string   `json:"claim"`
	URL         string   `json:"url,omitempty"`
	Label       string   `json:"label,omitempty"`
	Confidence  *float64 `json:"confidence,omitempty"`
	UsedSources []string `json:"used_sources"`
	Hits        int      `json:"hits"`
	Error       string   `json:"error,omitempty"`
}
