package requestaianalysis

type Input struct {
	AssessmentID   string `json:"assessmentId"`
	AssessmentType string `json:"assessmentType"`
}

type Output struct {
	AIFailed     bool   `json:"aiFailed"`
	AIError      string `json:"aiError,omitempty"`
	OverallScore *int   `json:"aiOverallScore,omitempty"`
	ResumeScore  *int   `json:"resumeScore,omitempty"`
}
