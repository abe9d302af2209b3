package scoring

import (
	"fmt"
	"sort"
)

// Option is one selectable answer and its hidden weight.
type Option struct {
	Text   string `json:"text"`
	Weight int    `json:"weight"`
}

// Category is one scored dimension of a questionnaire.
type Category struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Options []Option `json:"options"`
}

// Blend combines the form percentage with the AI resume score.
type Blend struct {
	FormWeight             float64 `json:"formWeight"`
	ResumeWeight           float64 `json:"resumeWeight"`
	PlaceholderResumeScore int     `json:"placeholderResumeScore"`
}

type Rubric struct {
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Categories []Category `json:"categories"`
	Ladder     Ladder     `json:"-"`
	Blend      *Blend     `json:"blend,omitempty"`
}

// MaxPossibleScore is the number of categories times the largest weight
// found in any category.
func (r *Rubric) MaxPossibleScore() int {
	maxWeight := 0
	for _, c := range r.Categories {
		for _, o := range c.Options {
			if o.Weight > maxWeight {
				maxWeight = o.Weight
			}
		}
	}
	return len(r.Categories) * maxWeight
}

func (r *Rubric) CategoryKeys() []string {
	keys := make([]string, len(r.Categories))
	for i, c := range r.Categories {
		keys[i] = c.Key
	}
	return keys
}

func (r *Rubric) Category(key string) (Category, bool) {
	for _, c := range r.Categories {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}

// Schema renders the rubric as a JSON schema for the answers object: every
// category is required and restricted to its option texts.
func (r *Rubric) Schema() map[string]interface{} {
	props := make(map[string]interface{}, len(r.Categories))
	required := make([]interface{}, 0, len(r.Categories))
	for _, c := range r.Categories {
		enum := make([]interface{}, len(c.Options))
		for i, o := range c.Options {
			enum[i] = o.Text
		}
		props[c.Key] = map[string]interface{}{
			"type":        "string",
			"description": c.Label,
			"enum":        enum,
		}
		required = append(required, c.Key)
	}
	return map[string]interface{}{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"title":                r.Title,
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": true,
	}
}

// Validate checks the table itself: unique keys and distinct weights in 1..5.
func (r *Rubric) Validate() error {
	seen := map[string]bool{}
	for _, c := range r.Categories {
		if seen[c.Key] {
			return fmt.Errorf("%s: duplicate category %q", r.Type, c.Key)
		}
		seen[c.Key] = true

		weights := map[int]bool{}
		for _, o := range c.Options {
			if o.Weight < 1 || o.Weight > 5 {
				return fmt.Errorf("%s/%s: weight %d out of range", r.Type, c.Key, o.Weight)
			}
			if weights[o.Weight] {
				return fmt.Errorf("%s/%s: duplicate weight %d", r.Type, c.Key, o.Weight)
			}
			weights[o.Weight] = true
		}
	}
	return nil
}

var registry = map[string]*Rubric{}

func register(r *Rubric) {
	if err := r.Validate(); err != nil {
		panic(err)
	}
	registry[r.Type] = r
}

// RubricFor returns the built-in rubric for an assessment type.
func RubricFor(assessmentType string) (*Rubric, error) {
	r, ok := registry[assessmentType]
	if !ok {
		return nil, fmt.Errorf("unknown assessment type %q", assessmentType)
	}
	return r, nil
}

// Rubrics returns every built-in rubric ordered by type.
func Rubrics() []*Rubric {
	out := make([]*Rubric, 0, len(registry))
	for _, r := range registry {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
