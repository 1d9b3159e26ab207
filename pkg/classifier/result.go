package classifier

import (
	"encoding/json"

	"github.com/papercomputeco/aletheia/pkg/websearch"
)

const (
	LabelTrue  = "VERDADEIRA"
	LabelFalse = "FALSA"

	// InvalidJSONMessage is the error text of an unparsable model reply.
	InvalidJSONMessage = "Resposta do modelo não é um JSON válido."
)

// Debug carries retrieval provenance alongside a verdict.
type Debug struct {
	Hits       int      `json:"hits"`
	RawSources []string `json:"raw_sources"`
}

// Result is either a verdict or, when Error is set, the raw model text that
// could not be parsed. Callers must check Error before trusting the verdict
// fields.
type Result struct {
	Label       string
	Confidence  *float64
	Rationale   string
	UsedSources []string
	Debug       *Debug
	WebResults  []websearch.Result

	Error string
	Raw   string
}

// OK reports whether the result is a parsed verdict.
func (r *Result) OK() bool {
	return r.Error == ""
}

// ConfidenceOr returns the confidence, or def when the model gave none.
func (r *Result) ConfidenceOr(def float64) float64 {
	if r.Confidence == nil {
		return def
	}
	return *r.Confidence
}

type verdictJSON struct {
	Label       string             `json:"label"`
	Confidence  *float64           `json:"confidence,omitempty"`
	Rationale   string             `json:"rationale"`
	UsedSources []string           `json:"used_sources"`
	Debug       *Debug             `json:"debug,omitempty"`
	WebResults  []websearch.Result `json:"web_results,omitempty"`
}

type errorJSON struct {
	Error string `json:"error"`
	Raw   string `json:"raw"`
}

// MarshalJSON renders the verdict shape or the {error, raw} shape.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(errorJSON{Error: r.Error, Raw: r.Raw})
	}
	sources := r.UsedSources
	if sources == nil {
		sources = []string{}
	}
	return json.Marshal(verdictJSON{
		Label:       r.Label,
		Confidence:  r.Confidence,
		Rationale:   r.Rationale,
		UsedSources: sources,
		Debug:       r.Debug,
		WebResults:  r.WebResults,
	})
}

// UnmarshalJSON accepts either shape, so stored results round-trip.
func (r *Result) UnmarshalJSON(data []byte) error {
	var decoded struct {
		errorJSON
		verdictJSON
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*r = Result{
		Label:       decoded.Label,
		Confidence:  decoded.Confidence,
		Rationale:   decoded.Rationale,
		UsedSources: decoded.UsedSources,
		Debug:       decoded.Debug,
		WebResults:  decoded.WebResults,
		Error:       decoded.Error,
		Raw:         decoded.Raw,
	}
	return nil
}
