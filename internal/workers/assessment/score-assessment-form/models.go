package scoreassessmentform

type Input struct {
	AssessmentID   string `json:"assessmentId"`
	AssessmentType string `json:"assessmentType"`
}

type Output struct {
	FormPercentage      int      `json:"formPercentage"`
	RawTotalScore       int      `json:"rawTotalScore"`
	MaxPossibleScore    int      `json:"maxPossibleScore"`
	EstimatedFinalScore int      `json:"estimatedFinalScore"`
	ReadinessLevel      string   `json:"readinessLevel"`
	UnmatchedCount      int      `json:"unmatchedCount"`
	Unmatched           []string `json:"unmatched,omitempty"`
}
