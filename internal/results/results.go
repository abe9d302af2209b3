// Package results turns a stored assessment into its final scores and into
// the payload served by the results endpoint.
package results

import (
	"encoding/json"
	"time"

	"career-readiness/internal/common/errors"
	"career-readiness/internal/models"
	"career-readiness/internal/reconcile"
	"career-readiness/internal/recommendation"
	"career-readiness/internal/scoring"
)

// Outcome is what Finalize wrote back to the assessment.
type Outcome struct {
	Scores          scoring.Bundle
	FormPercentage  int
	FinalScore      int
	ReadinessLevel  string
	Recommendations []recommendation.Recommendation
	UsedDefaults    bool
}

// resumeScoreKeys are the resumeAnalysis fields the AI service has used for
// its numeric resume score.
var resumeScoreKeys = []string{"score", "resumeScore", "overallScore"}

// ResumeScore reads the AI resume score, if any.
func ResumeScore(analysis map[string]interface{}) *int {
	for _, k := range resumeScoreKeys {
		if n, ok := scoring.ParseScore(analysis[k]); ok {
			return &n
		}
	}
	return nil
}

// Finalize normalizes scores and recommendations in place. Missing category
// scores become fallback; blended rubrics replace the overall score with the
// form/resume blend so the stored readiness level and any later
// classification of data.scores agree.
func Finalize(a *models.Assessment, fallback int) (*Outcome, error) {
	rubric, err := scoring.RubricFor(a.Type)
	if err != nil {
		return nil, errors.NewUnknownAssessmentTypeError(a.Type)
	}

	var formPct int
	if a.Data.FormScore != nil {
		formPct = a.Data.FormScore.FormPercentage
	} else {
		formPct = scoring.Score(rubric, a.Data.Answers).FormPercentage
	}

	_, parsed := scoring.ParseBundle(a.Data.Scores)
	bundle := scoring.BundleWithDefaults(a.Data.Scores, rubric.CategoryKeys(), fallback)
	if rubric.Blend != nil {
		bundle.OverallScore = rubric.FinalScore(formPct, ResumeScore(a.Data.ResumeAnalysis))
	}

	recs := recommendation.Normalize(a.Data.Recommendations)
	if len(recs) == 0 {
		recs = recommendation.Defaults()
	}

	final := bundle.OverallScore
	level := rubric.Readiness(final)

	a.Data.Scores = bundle.ToMap()
	a.Data.Recommendations = recs
	a.Data.FinalScore = &final
	a.Data.ReadinessLevel = level
	a.Data.ShowProcessingScreen = false
	a.Data.ProcessingMessage = ""
	if models.ProcessingMode(a.Tier, a.ManualProcessing) == models.ModeAI {
		a.Data.AIProcessed = a.Data.AIError == ""
	}

	return &Outcome{
		Scores:          bundle,
		FormPercentage:  formPct,
		FinalScore:      final,
		ReadinessLevel:  level,
		Recommendations: recs,
		UsedDefaults:    !parsed,
	}, nil
}

// ReportedStatus is the status field of the results payload: the review
// status for manually processed assessments, the lifecycle status otherwise.
func ReportedStatus(a *models.Assessment) string {
	if reconcile.RequiresManualReview(a.Tier, a.ManualProcessing, a.Data.ManualProcessingOnly) {
		if a.ReviewStatus == "" {
			return models.ReviewPending
		}
		return a.ReviewStatus
	}
	return a.Status
}

// Payload builds the results endpoint response for a.
func Payload(a *models.Assessment) reconcile.Payload {
	var reviewedAt *time.Time
	if a.ReviewedAt != nil {
		t := a.ReviewedAt.UTC()
		reviewedAt = &t
	}
	return reconcile.Payload{
		Success:          true,
		ID:               a.ID,
		AssessmentType:   a.Type,
		Tier:             a.Tier,
		ManualProcessing: a.ManualProcessing,
		Status:           ReportedStatus(a),
		ReviewNotes:      a.ReviewNotes,
		ReviewedAt:       reviewedAt,
		Data: reconcile.Data{
			Scores:               nilIfEmpty(a.Data.Scores),
			Recommendations:      a.Data.Recommendations,
			Summary:              a.Data.Summary,
			Strengths:            a.Data.Strengths,
			Improvements:         a.Data.Improvements,
			CategoryAnalysis:     a.Data.CategoryAnalysis,
			AIProcessed:          a.Data.AIProcessed,
			AIAnalysisStarted:    a.Data.AIAnalysisStarted,
			AIError:              a.Data.AIError,
			ShowProcessingScreen: a.Data.ShowProcessingScreen,
			ProcessingMessage:    a.Data.ProcessingMessage,
			RedirectRequired:     a.Data.RedirectRequired,
			ManualProcessingOnly: a.Data.ManualProcessingOnly,
			ResumeAnalysis:       a.Data.ResumeAnalysis,
			CareerFit:            a.Data.CareerFit,
			PersonalInfo:         toMap(a.Data.PersonalInfo),
			Qualification:        a.Data.Qualification,
		},
	}
}

func nilIfEmpty(m map[string]interface{}) interface{} {
	if len(m) == 0 {
		return nil
	}
	return m
}

func toMap(v interface{}) map[string]interface{} {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]interface{}
	if json.Unmarshal(data, &out) != nil {
		return nil
	}
	return out
}
