package finalizeassessmentresults

type Input struct {
	AssessmentID string `json:"assessmentId"`
}

type Output struct {
	FinalScore     int    `json:"finalScore"`
	ReadinessLevel string `json:"readinessLevel"`
	UsedDefaults   bool   `json:"usedDefaults"`
	ResultsPath    string `json:"resultsPath"`
	RecipientName  string `json:"recipientName,omitempty"`
	RecipientEmail string `json:"recipientEmail,omitempty"`
	RecipientPhone string `json:"recipientPhone,omitempty"`
}
