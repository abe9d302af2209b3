// internal/workers/assessment/route-assessment-processing/models.go
package routeassessmentprocessing

type Input struct {
	AssessmentID string `json:"assessmentId"`
}

type Output struct {
	ProcessingMode       string `json:"processingMode"`
	ResultsPath          string `json:"resultsPath"`
	ManualProcessingOnly bool   `json:"manualProcessingOnly"`
	Cached               bool   `json:"routeCached"`
}
