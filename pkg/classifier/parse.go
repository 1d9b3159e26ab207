package classifier

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// strategy tries to recover a JSON object from model text.
type strategy func(text string) (map[string]any, bool)

// strategies run in order; the first success wins.
var strategies = []strategy{
	directObject,
	braceSpan,
}

func decodeObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func directObject(text string) (map[string]any, bool) {
	return decodeObject(strings.TrimSpace(text))
}

// braceSpan parses the substring from the first '{' to the last '}'.
func braceSpan(text string) (map[string]any, bool) {
	t := strings.TrimSpace(text)
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start == -1 || end <= start {
		return nil, false
	}
	return decodeObject(t[start : end+1])
}

// Parse turns model output into a Result. When no strategy recovers a JSON
// object the error variant is returned with text kept verbatim in Raw.
func Parse(text string) *Result {
	for _, try := range strategies {
		if obj, ok := try(text); ok {
			return fromObject(obj)
		}
	}
	return &Result{Error: InvalidJSONMessage, Raw: text}
}

func fromObject(obj map[string]any) *Result {
	r := &Result{}

	if v, ok := obj["label"].(string); ok {
		r.Label = strings.ToUpper(strings.TrimSpace(v))
	}

	if c, ok := confidence(obj["confidence"]); ok {
		r.Confidence = &c
	}

	switch v := obj["rationale"].(type) {
	case string:
		r.Rationale = strings.TrimSpace(v)
	case nil:
	default:
		r.Rationale = fmt.Sprint(v)
	}

	if raw, present := obj["used_sources"]; present {
		r.UsedSources = []string{}
		if list, ok := raw.([]any); ok {
			for _, item := range list {
				if s, ok := item.(string); ok {
					r.UsedSources = append(r.UsedSources, s)
				} else if item != nil {
					r.UsedSources = append(r.UsedSources, fmt.Sprint(item))
				}
			}
		}
	}

	return r
}

// confidence reads a number or numeric string and clamps it into [0, 1].
func confidence(v any) (float64, bool) {
	var c float64
	switch t := v.(type) {
	case float64:
		c = t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		c = f
	default:
		return 0, false
	}
	return min(max(c, 0), 1), true
}
