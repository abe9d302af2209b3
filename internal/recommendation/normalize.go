// Package recommendation turns whatever the AI service or a clerk sends as
// recommendations into one canonical shape.
package recommendation

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	DefaultPriority  = "MEDIUM"
	DefaultTimeframe = "3-6 months"

	genericTitle       = "Strengthen your career readiness"
	genericExplanation = "Focusing on this area will improve your overall readiness and help you reach your career goals."
)

var genericSteps = []string{
	"Identify the specific skills or experiences to develop in this area",
	"Set a measurable goal and a timeline for progress",
	"Review your progress monthly and adjust your plan",
}

var genericMetrics = []string{
	"Measurable progress toward the goal within the timeframe",
}

type Recommendation struct {
	Title          string   `json:"title"`
	Explanation    string   `json:"explanation"`
	Steps          []string `json:"steps"`
	Timeframe      string   `json:"timeframe"`
	Priority       string   `json:"priority"`
	SuccessMetrics []string `json:"successMetrics"`
}

// Normalize maps each element of raw to a Recommendation. Non-array input
// yields an empty slice; otherwise the output has one entry per input element.
func Normalize(raw interface{}) []Recommendation {
	items, ok := raw.([]interface{})
	if !ok {
		if typed, isTyped := raw.([]Recommendation); isTyped {
			items = make([]interface{}, len(typed))
			for i, r := range typed {
				items[i] = r
			}
		} else {
			return []Recommendation{}
		}
	}

	out := make([]Recommendation, len(items))
	for i, item := range items {
		out[i] = normalizeOne(item)
	}
	return out
}

// NormalizeJSON decodes data and normalizes it. Invalid JSON yields an empty slice.
func NormalizeJSON(data []byte) []Recommendation {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return []Recommendation{}
	}
	return Normalize(raw)
}

// Defaults is the generic set shown when AI analysis produced nothing.
func Defaults() []Recommendation {
	titles := []string{
		"Update your professional skills",
		"Expand your professional network",
		"Refine your career goals and plan",
	}
	out := make([]Recommendation, len(titles))
	for i, t := range titles {
		out[i] = fromTitle(t)
		out[i].Priority = []string{"HIGH", "MEDIUM", "MEDIUM"}[i]
	}
	return out
}

func normalizeOne(item interface{}) Recommendation {
	switch v := item.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return generic()
		}
		return fromTitle(strings.TrimSpace(v))
	case Recommendation:
		return fill(v)
	case map[string]interface{}:
		return fromObject(v)
	default:
		return generic()
	}
}

func fromTitle(title string) Recommendation {
	return Recommendation{
		Title:          title,
		Explanation:    genericExplanation,
		Steps:          append([]string(nil), genericSteps...),
		Timeframe:      DefaultTimeframe,
		Priority:       DefaultPriority,
		SuccessMetrics: append([]string(nil), genericMetrics...),
	}
}

func generic() Recommendation {
	return fromTitle(genericTitle)
}

func fromObject(m map[string]interface{}) Recommendation {
	r := Recommendation{
		Title:          firstString(m, "title", "recommendation", "name"),
		Explanation:    firstString(m, "explanation", "description", "details", "reason"),
		Steps:          stringList(m["steps"]),
		Timeframe:      firstString(m, "timeframe", "timeline"),
		Priority:       firstString(m, "priority"),
		SuccessMetrics: stringList(m["successMetrics"]),
	}
	if r.Steps == nil {
		r.Steps = stringList(m["actionSteps"])
	}
	return fill(r)
}

// fill keeps present values and substitutes fallbacks for missing ones.
func fill(r Recommendation) Recommendation {
	if r.Title == "" {
		r.Title = genericTitle
	}
	if r.Explanation == "" {
		r.Explanation = genericExplanation
	}
	if len(r.Steps) == 0 {
		r.Steps = append([]string(nil), genericSteps...)
	}
	if r.Timeframe == "" {
		r.Timeframe = DefaultTimeframe
	}
	r.Priority = strings.ToUpper(strings.TrimSpace(r.Priority))
	if r.Priority == "" {
		r.Priority = DefaultPriority
	}
	if r.SuccessMetrics == nil {
		r.SuccessMetrics = []string{}
	}
	return r
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64, bool:
			return fmt.Sprint(v)
		}
	}
	return ""
}

// stringList accepts an array of strings or a single string.
func stringList(v interface{}) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []string:
		return t
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, e := range t {
			switch s := e.(type) {
			case string:
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			case map[string]interface{}:
				if text := firstString(s, "step", "text", "title", "description"); text != "" {
					out = append(out, text)
				}
			}
		}
		return out
	}
	return nil
}
