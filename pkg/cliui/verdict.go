package cliui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/papercomputeco/aletheia/pkg/classifier"
	"github.com/papercomputeco/aletheia/pkg/utils"
)

var (
	trueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	falseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	otherStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)

	previewChars = 160
)

// LabelBadge renders a verdict label in its color.
func LabelBadge(label string) string {
	switch label {
	case classifier.LabelTrue:
		return trueStyle.Render(label)
	case classifier.LabelFalse:
		return falseStyle.Render(label)
	default:
		return otherStyle.Render(label)
	}
}

// VerdictOptions tune RenderVerdict.
type VerdictOptions struct {
	// Markdown renders the rationale with glamour.
	Markdown bool
}

// RenderVerdict writes a human-readable verdict card.
func RenderVerdict(w io.Writer, res *classifier.Result, opts VerdictOptions) {
	if !res.OK() {
		fmt.Fprintf(w, "\n  %s %s\n\n", FailMark, res.Error)
		fmt.Fprintf(w, "%s\n%s\n", KeyStyle.Render("Resposta bruta:"), res.Raw)
		return
	}

	fmt.Fprintf(w, "\n  %s %s", KeyStyle.Render("Veredito:"), LabelBadge(res.Label))
	if res.Confidence != nil {
		fmt.Fprintf(w, "  %s", DimStyle.Render(fmt.Sprintf("confiança %.0f%%", *res.Confidence*100)))
	}
	fmt.Fprint(w, "\n\n")

	if res.Rationale != "" {
		rationale := res.Rationale
		if opts.Markdown {
			if rendered, err := RenderMarkdown(rationale); err == nil {
				rationale = strings.TrimRight(rendered, "\n")
			}
		} else {
			rationale = "  " + rationale
		}
		fmt.Fprintln(w, rationale)
		fmt.Fprintln(w)
	}

	if len(res.UsedSources) > 0 {
		fmt.Fprintln(w, KeyStyle.Render("Fontes usadas:"))
		for _, s := range res.UsedSources {
			fmt.Fprintf(w, "  • %s\n", ValueStyle.Render(s))
		}
		fmt.Fprintln(w)
	}

	if len(res.WebResults) > 0 {
		fmt.Fprintln(w, KeyStyle.Render("Resultados da web:"))
		for i, r := range res.WebResults {
			fmt.Fprintf(w, "  [W%d] %s\n       %s\n", i+1, r.Title, DimStyle.Render(r.URL))
			if r.Snippet != "" {
				fmt.Fprintf(w, "       %s\n", utils.Truncate(r.Snippet, previewChars))
			}
		}
		fmt.Fprintln(w)
	}

	if res.Debug != nil {
		fmt.Fprintln(w, DimStyle.Render(fmt.Sprintf("Evidências recuperadas: %d", res.Debug.Hits)))
	}
}
