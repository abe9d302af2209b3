package scoring

import "math"

// FormScore is the deterministic result of scoring answers against a rubric.
type FormScore struct {
	CategoryWeights  map[string]int `json:"categoryWeights"`
	RawTotalScore    int            `json:"rawTotalScore"`
	MaxPossibleScore int            `json:"maxPossibleScore"`
	FormPercentage   int            `json:"formPercentage"`
	Unmatched        []string       `json:"unmatched,omitempty"`
}

// Score looks up each category's selected text by exact match. A category
// with no answer or an answer that matches no option contributes 0 and is
// reported in Unmatched.
func Score(r *Rubric, answers map[string]string) FormScore {
	fs := FormScore{
		CategoryWeights:  make(map[string]int, len(r.Categories)),
		MaxPossibleScore: r.MaxPossibleScore(),
	}

	for _, c := range r.Categories {
		selected := answers[c.Key]
		weight, ok := 0, false
		for _, o := range c.Options {
			if o.Text == selected {
				weight, ok = o.Weight, true
				break
			}
		}
		if !ok {
			fs.Unmatched = append(fs.Unmatched, c.Key)
		}
		fs.CategoryWeights[c.Key] = weight
		fs.RawTotalScore += weight
	}

	if fs.MaxPossibleScore > 0 {
		fs.FormPercentage = round(float64(fs.RawTotalScore) / float64(fs.MaxPossibleScore) * 100)
	}
	return fs
}

// round is half-up, matching how scores have always been presented.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
