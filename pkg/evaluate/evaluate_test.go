package evaluate_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/aletheia/pkg/classifier"
	"github.com/papercomputeco/aletheia/pkg/evaluate"
	"github.com/papercomputeco/aletheia/pkg/ingest"
	"github.com/papercomputeco/aletheia/pkg/logger"
)

// scripted answers claims from a lookup table.
type scripted struct {
	answers map[string]*classifier.Result
	calls   int
}

func (s *scripted) Classify(_ context.Context, claim string, _ classifier.Options) (*classifier.Result, error) {
	s.calls++
	res, ok := s.answers[claim]
	if !ok {
		return nil, errors.New("ollama unreachable")
	}
	return res, nil
}

var _ = Describe("NormalizeLabel", func() {
	DescribeTable("maps aliases onto the two classes",
		func(in, want string) {
			Expect(evaluate.NormalizeLabel(in)).To(Equal(want))
		},
		Entry("V", "v", classifier.LabelTrue),
		Entry("TRUE", " True ", classifier.LabelTrue),
		Entry("T", "T", classifier.LabelTrue),
		Entry("VERDADEIRA", "verdadeira", classifier.LabelTrue),
		Entry("F", "f", classifier.LabelFalse),
		Entry("FALSE", "false", classifier.LabelFalse),
		Entry("FALSA", "Falsa", classifier.LabelFalse),
		Entry("unknown passes through", " incerto ", "INCERTO"),
	)
})

var _ = Describe("LoadSamples", func() {
	write := func(body string) string {
		path := filepath.Join(GinkgoT().TempDir(), "eval.csv")
		Expect(os.WriteFile(path, []byte(body), 0o644)).To(Succeed())
		return path
	}

	It("should drop rows missing text or label and normalize labels", func() {
		samples, err := evaluate.LoadSamples(write("text,label\na,v\n,F\nb,\nc,false\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(samples).To(Equal([]evaluate.Sample{
			{Text: "a", Label: classifier.LabelTrue},
			{Text: "c", Label: classifier.LabelFalse},
		}))
	})

	It("should require both columns", func() {
		_, err := evaluate.LoadSamples(write("text\na\n"))
		Expect(err).To(MatchError(ingest.ErrMissingColumn))
		Expect(err.Error()).To(ContainSubstring("label"))
	})
})

var _ = Describe("Evaluator", func() {
	It("should default failures and unparsable replies to FALSA", func() {
		c := &scripted{answers: map[string]*classifier.Result{
			"juros caíram":   {Label: "verdadeira"},
			"terra é plana":  {Label: classifier.LabelFalse},
			"resposta ruim":  {Error: classifier.InvalidJSONMessage, Raw: "hmm"},
			"rótulo ausente": {},
		}}
		samples := []evaluate.Sample{
			{Text: "juros caíram", Label: classifier.LabelTrue},
			{Text: "terra é plana", Label: classifier.LabelFalse},
			{Text: "resposta ruim", Label: classifier.LabelTrue},
			{Text: "rótulo ausente", Label: classifier.LabelTrue},
			{Text: "sem conexão", Label: classifier.LabelFalse},
		}

		var progress []int
		e := evaluate.New(c, classifier.Options{}, logger.Nop())
		e.Progress = func(done, total int) {
			Expect(total).To(Equal(5))
			progress = append(progress, done)
		}

		report, err := e.Run(context.Background(), samples)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.calls).To(Equal(5))
		Expect(progress).To(Equal([]int{1, 2, 3, 4, 5}))
		Expect(report.YTrue).To(Equal([]string{"VERDADEIRA", "FALSA", "VERDADEIRA", "VERDADEIRA", "FALSA"}))
		Expect(report.YPred).To(Equal([]string{"VERDADEIRA", "FALSA", "FALSA", "FALSA", "FALSA"}))
		Expect(report.Total()).To(Equal(5))
	})

	It("should stop when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := evaluate.New(&scripted{}, classifier.Options{}, nil).Run(ctx, []evaluate.Sample{{Text: "x", Label: "FALSA"}})
		Expect(err).To(MatchError(context.Canceled))
	})
})

var _ = Describe("Report", func() {
	var report *evaluate.Report

	BeforeEach(func() {
		report = &evaluate.Report{
			YTrue:   []string{"VERDADEIRA", "VERDADEIRA", "VERDADEIRA", "FALSA", "FALSA"},
			YPred:   []string{"VERDADEIRA", "VERDADEIRA", "FALSA", "FALSA", "VERDADEIRA"},
			Elapsed: 10 * time.Second,
		}
	})

	It("should compute timing and accuracy", func() {
		Expect(report.MeanTime()).To(Equal(2 * time.Second))
		Expect(report.Accuracy()).To(BeNumerically("~", 0.6, 1e-9))
	})

	It("should order the confusion matrix VERDADEIRA, FALSA", func() {
		Expect(report.ConfusionMatrix()).To(Equal([][]int{{2, 1}, {1, 1}}))
		Expect(evaluate.FormatMatrix(report.ConfusionMatrix())).To(Equal("[[2 1]\n [1 1]]"))
	})

	It("should pad matrix cells to the widest value", func() {
		Expect(evaluate.FormatMatrix([][]int{{12, 3}, {0, 7}})).To(Equal("[[12  3]\n [ 0  7]]"))
	})

	It("should render the classification report", func() {
		want := "" +
			"              precision    recall  f1-score   support\n" +
			"\n" +
			"       FALSA      0.500     0.500     0.500         2\n" +
			"  VERDADEIRA      0.667     0.667     0.667         3\n" +
			"\n" +
			"    accuracy                          0.600         5\n" +
			"   macro avg      0.583     0.583     0.583         5\n" +
			"weighted avg      0.600     0.600     0.600         5\n"
		Expect(report.ClassificationReport(3)).To(Equal(want))
	})

	It("should score a label that was never predicted as zero", func() {
		r := &evaluate.Report{YTrue: []string{"VERDADEIRA", "FALSA"}, YPred: []string{"FALSA", "FALSA"}}
		scores := r.Scores()
		Expect(scores[1].Label).To(Equal("VERDADEIRA"))
		Expect(scores[1].Precision).To(BeZero())
		Expect(scores[1].F1).To(BeZero())
	})
})
