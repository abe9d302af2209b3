package reconcile

import "time"

// Payload is the results endpoint response.
type Payload struct {
	Success          bool       `json:"success"`
	Message          string     `json:"message,omitempty"`
	ID               string     `json:"id"`
	AssessmentType   string     `json:"assessmentType"`
	Tier             string     `json:"tier"`
	ManualProcessing bool       `json:"manualProcessing"`
	Status           string     `json:"status"`
	ReviewNotes      string     `json:"reviewNotes,omitempty"`
	ReviewedAt       *time.Time `json:"reviewedAt,omitempty"`
	Data             Data       `json:"data"`
}

type Data struct {
	Scores               interface{}            `json:"scores,omitempty"`
	Recommendations      interface{}            `json:"recommendations,omitempty"`
	Summary              string                 `json:"summary,omitempty"`
	Strengths            []string               `json:"strengths,omitempty"`
	Improvements         []string               `json:"improvements,omitempty"`
	CategoryAnalysis     map[string]interface{} `json:"categoryAnalysis,omitempty"`
	AIProcessed          bool                   `json:"aiProcessed"`
	AIAnalysisStarted    bool                   `json:"aiAnalysisStarted"`
	AIError              string                 `json:"aiError,omitempty"`
	ShowProcessingScreen bool                   `json:"showProcessingScreen"`
	ProcessingMessage    string                 `json:"processingMessage,omitempty"`
	RedirectRequired     bool                   `json:"redirectRequired"`
	ManualProcessingOnly bool                   `json:"manualProcessingOnly"`
	ResumeAnalysis       map[string]interface{} `json:"resumeAnalysis,omitempty"`
	CareerFit            map[string]interface{} `json:"careerFit,omitempty"`
	PersonalInfo         map[string]interface{} `json:"personalInfo,omitempty"`
	Qualification        map[string]interface{} `json:"qualification,omitempty"`
}
