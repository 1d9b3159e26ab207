package evaluate

import (
	"strings"

	"github.com/papercomputeco/aletheia/pkg/classifier"
	"github.com/papercomputeco/aletheia/pkg/ingest"
)

var labelAliases = map[string]string{
	"VERDADEIRA": classifier.LabelTrue,
	"V":          classifier.LabelTrue,
	"TRUE":       classifier.LabelTrue,
	"T":          classifier.LabelTrue,
	"FALSA":      classifier.LabelFalse,
	"F":          classifier.LabelFalse,
	"FALSE":      classifier.LabelFalse,
}

// NormalizeLabel maps the common spellings of both classes onto
// VERDADEIRA/FALSA. Unknown labels are returned trimmed and upper-cased.
func NormalizeLabel(label string) string {
	l := strings.ToUpper(strings.TrimSpace(label))
	if canon, ok := labelAliases[l]; ok {
		return canon
	}
	return l
}

// Sample is one labelled claim.
type Sample struct {
	Text  string
	Label string
}

// LoadSamples reads an evaluation CSV. Both "text" and "label" are required;
// rows where either cell is empty are dropped.
func LoadSamples(path string) ([]Sample, error) {
	t, err := ingest.ReadTable(path)
	if err != nil {
		return nil, err
	}
	if err := t.Require("text", "label"); err != nil {
		return nil, err
	}

	samples := make([]Sample, 0, len(t.Rows))
	for _, row := range t.Rows {
		text, label := t.Value(row, "text"), t.Value(row, "label")
		if text == "" || label == "" {
			continue
		}
		samples = append(samples, Sample{Text: text, Label: NormalizeLabel(label)})
	}
	return samples, nil
}
