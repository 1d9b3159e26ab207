// Package evaluate scores the classifier against a labelled CSV.
package evaluate

import (
	"context"
	"log/slog"
	"time"

	"github.com/papercomputeco/aletheia/pkg/classifier"
)

// Classifier is the verdict producer under evaluation.
type Classifier interface {
	Classify(ctx context.Context, claim string, opts classifier.Options) (*classifier.Result, error)
}

// Evaluator runs samples through a Classifier one at a time.
type Evaluator struct {
	classifier Classifier
	opts       classifier.Options
	logger     *slog.Logger

	// Progress, when set, is called after every sample.
	Progress func(done, total int)
}

// New creates an Evaluator. opts are passed to every Classify call.
func New(c Classifier, opts classifier.Options, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Evaluator{classifier: c, opts: opts, logger: logger}
}

// Run classifies every sample. A sample whose classification fails, or whose
// reply could not be parsed, is predicted FALSA. Only context cancellation
// stops the run early.
func (e *Evaluator) Run(ctx context.Context, samples []Sample) (*Report, error) {
	report := &Report{
		YTrue: make([]string, 0, len(samples)),
		YPred: make([]string, 0, len(samples)),
	}

	start := time.Now()
	for i, s := range samples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		report.YTrue = append(report.YTrue, s.Label)
		report.YPred = append(report.YPred, e.predict(ctx, i, s.Text))

		if e.Progress != nil {
			e.Progress(i+1, len(samples))
		}
	}
	report.Elapsed = time.Since(start)

	return report, nil
}

func (e *Evaluator) predict(ctx context.Context, i int, text string) string {
	res, err := e.classifier.Classify(ctx, text, e.opts)
	switch {
	case err != nil:
		e.logger.Warn("error classifying sample", "sample", i, "error", err)
		return classifier.LabelFalse
	case !res.OK():
		e.logger.Warn("unparsable model reply", "sample", i, "raw", res.Raw)
		return classifier.LabelFalse
	case res.Label == "":
		return classifier.LabelFalse
	}
	return NormalizeLabel(res.Label)
}
