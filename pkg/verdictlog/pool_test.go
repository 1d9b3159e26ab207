package verdictlog_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/aletheia/pkg/classifier"
	"github.com/papercomputeco/aletheia/pkg/eventstream"
	"github.com/papercomputeco/aletheia/pkg/logger"
	"github.com/papercomputeco/aletheia/pkg/storage/inmemory"
	"github.com/papercomputeco/aletheia/pkg/verdictlog"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []*eventstream.VerdictIssuedEvent
	fail   error
}

func (c *capturePublisher) PublishVerdict(_ context.Context, e *eventstream.VerdictIssuedEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return c.fail
	}
	c.events = append(c.events, e)
	return nil
}

func (c *capturePublisher) Close() error { return nil }

func verdict() *classifier.Result {
	conf := 0.87
	return &classifier.Result{
		Label:       classifier.LabelTrue,
		Confidence:  &conf,
		Rationale:   "Confirmado pelo Copom.",
		UsedSources: []string{"Copom corta juros | https://g1.globo.com/a | VERDADEIRA"},
		Debug:       &classifier.Debug{Hits: 3},
	}
}

var _ = Describe("Pool", func() {
	var (
		history   *inmemory.Driver
		publisher *capturePublisher
		pool      *verdictlog.Pool
		ctx       context.Context
		started   time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		history = inmemory.NewDriver()
		publisher = &capturePublisher{}
		started = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		var err error
		pool, err = verdictlog.NewPool(&verdictlog.Config{
			History:   history,
			Publisher: publisher,
			Logger:    logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("stores and publishes every enqueued verdict", func() {
		Expect(pool.Enqueue(verdictlog.Job{
			Surface:     "api",
			Claim:       "A taxa de juros foi reduzida",
			Model:       "llama3.1:8b",
			StartedAt:   started,
			CompletedAt: started.Add(1500 * time.Millisecond),
			Result:      verdict(),
		})).To(BeTrue())
		pool.Close()

		records, err := history.List(ctx, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))
		Expect(records[0].Label).To(Equal("VERDADEIRA"))
		Expect(records[0].CreatedAt).To(Equal(started.Add(1500 * time.Millisecond)))

		Expect(publisher.events).To(HaveLen(1))
		e := publisher.events[0]
		Expect(e.Verdict.RecordID).To(Equal(records[0].ID))
		Expect(e.Verdict.Hits).To(Equal(3))
		Expect(e.Request.DurationMs).To(Equal(int64(1500)))
		Expect(e.Source.Surface).To(Equal("api"))
	})

	It("keeps storing when publishing fails", func() {
		publisher.fail = errors.New("broker down")
		Expect(pool.Enqueue(verdictlog.Job{Claim: "x", Result: verdict()})).To(BeTrue())
		pool.Close()

		Expect(history.Count(ctx)).To(Equal(1))
	})

	It("drops jobs without a result", func() {
		Expect(pool.Enqueue(verdictlog.Job{Claim: "x"})).To(BeFalse())
		pool.Close()
		Expect(history.Count(ctx)).To(Equal(0))
	})

	It("tolerates a second Close", func() {
		pool.Close()
		Expect(pool.Close).NotTo(Panic())
	})
})

var _ = Describe("Pool without sinks", func() {
	It("drains jobs when neither history nor publisher is set", func() {
		pool, err := verdictlog.NewPool(&verdictlog.Config{NumWorkers: 1, QueueSize: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(pool.Enqueue(verdictlog.Job{Result: verdict()})).To(BeTrue())
		pool.Close()
	})
})

var _ = Describe("NewRecord", func() {
	It("records the error variant without a verdict", func() {
		r := verdictlog.NewRecord(verdictlog.Job{
			Claim:  "x",
			Result: &classifier.Result{Error: classifier.InvalidJSONMessage, Raw: "oops", Label: "ignored"},
		})
		Expect(r.ID).NotTo(BeEmpty())
		Expect(r.Error).To(Equal(classifier.InvalidJSONMessage))
		Expect(r.Label).To(BeEmpty())
		Expect(r.UsedSources).To(BeEmpty())
		Expect(r.CreatedAt).NotTo(BeZero())
	})

	It("assigns distinct ids", func() {
		job := verdictlog.Job{Claim: "x", Result: verdict()}
		Expect(verdictlog.NewRecord(job).ID).NotTo(Equal(verdictlog.NewRecord(job).ID))
	})
})
