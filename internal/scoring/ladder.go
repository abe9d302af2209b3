package scoring

// Band covers scores strictly below Below.
type Band struct {
	Below int
	Label string
}

// Ladder is an ordered threshold list with a label for scores above the last band.
type Ladder struct {
	Name  string
	Bands []Band
	Top   string
}

var (
	FourBand = Ladder{
		Name: "four-band",
		Bands: []Band{
			{Below: 50, Label: "Early Development"},
			{Below: 70, Label: "Developing Competency"},
			{Below: 85, Label: "Approaching Readiness"},
		},
		Top: "Fully Prepared",
	}

	SixBand = Ladder{
		Name: "six-band",
		Bands: []Band{
			{Below: 45, Label: "Early Development"},
			{Below: 55, Label: "Emerging Readiness"},
			{Below: 65, Label: "Developing Readiness"},
			{Below: 75, Label: "Approaching Readiness"},
			{Below: 85, Label: "Strong Readiness"},
		},
		Top: "Exceptional Readiness",
	}
)

// Classify clamps score to [0,100] and returns its label.
func (l Ladder) Classify(score int) string {
	return l.Labels()[l.Band(score)]
}

// Band returns the zero-based index of the band holding score; the top label
// has index len(Bands).
func (l Ladder) Band(score int) int {
	score = clamp(score, 0, 100)
	for i, b := range l.Bands {
		if score < b.Below {
			return i
		}
	}
	return len(l.Bands)
}

func (l Ladder) Labels() []string {
	out := make([]string, 0, len(l.Bands)+1)
	for _, b := range l.Bands {
		out = append(out, b.Label)
	}
	return append(out, l.Top)
}
