package evaluate

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/papercomputeco/aletheia/pkg/classifier"
)

// MatrixLabels is the fixed row/column order of the confusion matrix.
var MatrixLabels = []string{classifier.LabelTrue, classifier.LabelFalse}

// Report holds the outcome of an evaluation run.
type Report struct {
	YTrue   []string
	YPred   []string
	Elapsed time.Duration
}

// Total is the number of evaluated samples.
func (r *Report) Total() int {
	return len(r.YTrue)
}

// MeanTime is the average time spent per sample.
func (r *Report) MeanTime() time.Duration {
	if len(r.YTrue) == 0 {
		return 0
	}
	return r.Elapsed / time.Duration(len(r.YTrue))
}

// Accuracy is the share of exact label matches.
func (r *Report) Accuracy() float64 {
	if len(r.YTrue) == 0 {
		return 0
	}
	hits := 0
	for i := range r.YTrue {
		if r.YTrue[i] == r.YPred[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(r.YTrue))
}

// ClassScore is precision, recall and F1 of one label.
type ClassScore struct {
	Label     string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Labels returns every label seen in either series, sorted.
func (r *Report) Labels() []string {
	seen := map[string]bool{}
	for _, l := range r.YTrue {
		seen[l] = true
	}
	for _, l := range r.YPred {
		seen[l] = true
	}
	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	return labels
}

// Scores computes per-label metrics. Undefined ratios are 0.
func (r *Report) Scores() []ClassScore {
	labels := r.Labels()
	scores := make([]ClassScore, len(labels))
	for i, l := range labels {
		var tp, predicted, actual int
		for j := range r.YTrue {
			t, p := r.YTrue[j] == l, r.YPred[j] == l
			if t {
				actual++
			}
			if p {
				predicted++
			}
			if t && p {
				tp++
			}
		}
		s := ClassScore{Label: l, Support: actual}
		s.Precision = ratio(tp, predicted)
		s.Recall = ratio(tp, actual)
		if s.Precision+s.Recall > 0 {
			s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
		}
		scores[i] = s
	}
	return scores
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

// ConfusionMatrix counts true (rows) against predicted (columns) labels in
// MatrixLabels order. Other labels are not counted.
func (r *Report) ConfusionMatrix() [][]int {
	index := map[string]int{}
	m := make([][]int, len(MatrixLabels))
	for i, l := range MatrixLabels {
		index[l] = i
		m[i] = make([]int, len(MatrixLabels))
	}
	for j := range r.YTrue {
		ti, tok := index[r.YTrue[j]]
		pi, pok := index[r.YPred[j]]
		if tok && pok {
			m[ti][pi]++
		}
	}
	return m
}

// ClassificationReport renders per-label and averaged metrics with the
// given number of decimals, laid out like scikit-learn's text report.
func (r *Report) ClassificationReport(digits int) string {
	scores := r.Scores()

	width := max(len("weighted avg"), digits)
	for _, s := range scores {
		width = max(width, len(s.Label))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s ", width, "")
	for _, h := range []string{"precision", "recall", "f1-score", "support"} {
		fmt.Fprintf(&b, " %9s", h)
	}
	b.WriteString("\n\n")

	row := func(name string, p, rc, f float64, support int) {
		fmt.Fprintf(&b, "%*s  %9.*f %9.*f %9.*f %9d\n", width, name, digits, p, digits, rc, digits, f, support)
	}
	for _, s := range scores {
		row(s.Label, s.Precision, s.Recall, s.F1, s.Support)
	}
	b.WriteString("\n")

	total := r.Total()
	fmt.Fprintf(&b, "%*s  %9s %9s %9.*f %9d\n", width, "accuracy", "", "", digits, r.Accuracy(), total)

	var macro, weighted [3]float64
	for _, s := range scores {
		macro[0] += s.Precision
		macro[1] += s.Recall
		macro[2] += s.F1
		w := float64(s.Support)
		weighted[0] += s.Precision * w
		weighted[1] += s.Recall * w
		weighted[2] += s.F1 * w
	}
	for i := range macro {
		if n := len(scores); n > 0 {
			macro[i] /= float64(n)
		}
		if total > 0 {
			weighted[i] /= float64(total)
		}
	}
	row("macro avg", macro[0], macro[1], macro[2], total)
	row("weighted avg", weighted[0], weighted[1], weighted[2], total)

	return b.String()
}

// FormatMatrix prints a matrix the way numpy prints integer arrays.
func FormatMatrix(m [][]int) string {
	width := 1
	for _, row := range m {
		for _, v := range row {
			width = max(width, len(fmt.Sprint(v)))
		}
	}

	var b strings.Builder
	b.WriteString("[")
	for i, row := range m {
		if i > 0 {
			b.WriteString("\n ")
		}
		b.WriteString("[")
		for j, v := range row {
			if j > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%*d", width, v)
		}
		b.WriteString("]")
	}
	b.WriteString("]")
	return b.String()
}
