// Package verdictlog records issued verdicts asynchronously: each verdict is
// written to the history store and published as an event.
//
// The pool decouples these side effects from the request path so that a
// slow database or broker never delays a verdict.
package verdictlog

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/aletheia/pkg/classifier"
	"github.com/papercomputeco/aletheia/pkg/eventstream"
	"github.com/papercomputeco/aletheia/pkg/storage"
)

var (
	defaultNumWorkers   uint = 2
	defaultJobQueueSize uint = 256
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	// Surface names the caller: api, mcp or cli.
	Surface string

	Claim string
	URL   string
	Model string

	StartedAt   time.Time
	CompletedAt time.Time
	UsedWeb     bool

	Result *classifier.Result
}

// Config is the configuration options for the worker pool.
type Config struct {
	// History is the optional store verdicts are written to.
	History storage.Driver

	// Publisher is the optional event stream verdicts are published to.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	Logger *slog.Logger
}

// Pool processes verdict jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	closeOnce sync.Once
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	if job.Result == nil {
		return false
	}

	select {
	case p.queue <- job:
		p.logger.Debug("verdict queued", "surface", job.Surface)
		return true
	default:
		p.logger.Error("verdict not queued, queue full, job dropped", "surface", job.Surface)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the HTTP server has stopped.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.queue)
		p.wg.Wait()
	})
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("verdict worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("verdict worker stopped", "worker_id", id)
}

// processJob stores the record and publishes its event. Failures are logged
// and never retried.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()
	record := NewRecord(job)

	if p.config.History != nil {
		if _, err := p.config.History.Put(ctx, record); err != nil {
			p.logger.Error("storing verdict failed", "id", record.ID, "error", err)
		} else {
			p.logger.Debug("verdict stored", "id", record.ID, "label", record.Label)
		}
	}

	if p.config.Publisher != nil {
		if err := p.config.Publisher.PublishVerdict(ctx, NewEvent(job, record)); err != nil {
			p.logger.Warn("publishing verdict failed", "id", record.ID, "error", err)
		}
	}
}

// NewRecord converts a finished job into a history record with a fresh ID.
func NewRecord(job Job) *storage.Record {
	res := job.Result
	created := job.CompletedAt
	if created.IsZero() {
		created = time.Now()
	}

	r := &storage.Record{
		ID:        uuid.NewString(),
		Claim:     job.Claim,
		URL:       job.URL,
		UsedWeb:   job.UsedWeb,
		CreatedAt: created,
	}
	if !res.OK() {
		r.Error = res.Error
		r.UsedSources = []string{}
		return r
	}

	r.Label = res.Label
	r.Confidence = res.Confidence
	r.Rationale = res.Rationale
	r.UsedSources = res.UsedSources
	if r.UsedSources == nil {
		r.UsedSources = []string{}
	}
	return r
}

// NewEvent builds the event published for a stored record.
func NewEvent(job Job, record *storage.Record) *eventstream.VerdictIssuedEvent {
	hits := 0
	if job.Result.Debug != nil {
		hits = job.Result.Debug.Hits
	}

	return &eventstream.VerdictIssuedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeVerdictIssued,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source: eventstream.EventSource{
			Surface: job.Surface,
			Model:   job.Model,
		},
		Request: eventstream.RequestMeta{
			StartedAt:   job.StartedAt,
			CompletedAt: job.CompletedAt,
			DurationMs:  job.CompletedAt.Sub(job.StartedAt).Milliseconds(),
			UsedWeb:     job.UsedWeb,
		},
		Verdict: eventstream.VerdictBody{
			RecordID:    record.ID,
			Claim:       record.Claim,
			URL:         record.URL,
			Label:       record.Label,
			Confidence:  record.Confidence,
			UsedSources: record.UsedSources,
			Hits:        hits,
			Error:       record.Error,
		},
	}
}
