package scoring

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// DefaultCategoryScore fills scores the AI service never produced.
const DefaultCategoryScore = 70

// Bundle is the canonical score shape: integer category scores and an
// overall score, all in [0,100].
type Bundle struct {
	CategoryScores map[string]int `json:"categoryScores"`
	OverallScore   int            `json:"overallScore"`
}

// MeanScore is the rounded, clamped mean of the category scores.
func (b Bundle) MeanScore() int {
	if len(b.CategoryScores) == 0 {
		return 0
	}
	sum := 0
	for _, v := range b.CategoryScores {
		sum += v
	}
	return clamp(round(float64(sum)/float64(len(b.CategoryScores))), 0, 100)
}

// SortedKeys returns category keys in lexical order for stable rendering.
func (b Bundle) SortedKeys() []string {
	keys := make([]string, 0, len(b.CategoryScores))
	for k := range b.CategoryScores {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseBundle accepts a loosely typed score payload. Category values may be
// numbers or numeric strings; anything else is dropped. ok is false when
// neither a category score nor an overall score could be read.
func ParseBundle(raw interface{}) (b Bundle, ok bool) {
	m := asMap(raw)
	b.CategoryScores = map[string]int{}
	if m == nil {
		return b, false
	}

	if cats := asMap(m["categoryScores"]); cats != nil {
		for k, v := range cats {
			if n, valid := toScore(v); valid {
				b.CategoryScores[k] = n
			}
		}
	}

	overall, hasOverall := toScore(m["overallScore"])
	switch {
	case hasOverall:
		b.OverallScore = overall
	case len(b.CategoryScores) > 0:
		b.OverallScore = b.MeanScore()
	default:
		return b, false
	}
	return b, true
}

// BundleWithDefaults parses raw and fills gaps: each missing category from
// keys gets fallback, and a missing overall score becomes the mean of the
// categories that did parse. When nothing parses every key gets fallback and
// overall is fallback.
func BundleWithDefaults(raw interface{}, keys []string, fallback int) Bundle {
	b, ok := ParseBundle(raw)
	fallback = clamp(fallback, 0, 100)
	if !ok {
		b.CategoryScores = make(map[string]int, len(keys))
		for _, k := range keys {
			b.CategoryScores[k] = fallback
		}
		b.OverallScore = fallback
		return b
	}
	for _, k := range keys {
		if _, found := b.CategoryScores[k]; !found {
			b.CategoryScores[k] = fallback
		}
	}
	return b
}

// ToMap is the jsonb form stored under data.scores.
func (b Bundle) ToMap() map[string]interface{} {
	cats := make(map[string]interface{}, len(b.CategoryScores))
	for k, v := range b.CategoryScores {
		cats[k] = v
	}
	return map[string]interface{}{
		"categoryScores": cats,
		"overallScore":   b.OverallScore,
	}
}

func asMap(v interface{}) map[string]interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]interface{}:
		return t
	case map[string]int:
		out := make(map[string]interface{}, len(t))
		for k, n := range t {
			out[k] = n
		}
		return out
	case Bundle:
		return t.ToMap()
	case *Bundle:
		if t == nil {
			return nil
		}
		return t.ToMap()
	case json.RawMessage:
		var out map[string]interface{}
		if json.Unmarshal(t, &out) != nil {
			return nil
		}
		return out
	}
	return nil
}

func toScore(v interface{}) (int, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return round(math.Max(0, math.Min(100, f))), true
}

// ParseScore reads one loosely typed score, rounded and clamped to [0,100].
func ParseScore(v interface{}) (int, bool) {
	return toScore(v)
}
