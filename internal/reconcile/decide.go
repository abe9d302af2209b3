// Package reconcile decides what to show for an assessment whose AI
// analysis may still be running, and polls the results endpoint until that
// decision is final.
package reconcile

import (
	"fmt"
	"strings"

	"career-readiness/internal/models"
	"career-readiness/internal/recommendation"
	"career-readiness/internal/scoring"
)

type State string

const (
	StateLoading             State = "loading"
	StateProcessingScreen    State = "processingScreen"
	StatePendingManualReview State = "pendingManualReview"
	StateInReview            State = "inReview"
	StateResultsReady        State = "resultsReady"
	StateError               State = "error"
	StateNotFound            State = "notFound"
)

const (
	DefaultProcessingMessage = "Your assessment is being analyzed. This usually takes a few minutes."
	AIErrorBanner            = "AI analysis may be incomplete. Some scores and recommendations show default values."
)

type Decision struct {
	State      State  `json:"state"`
	PollAgain  bool   `json:"pollAgain"`
	RedirectTo string `json:"redirectTo,omitempty"`
	Banner     string `json:"banner,omitempty"`
	Message    string `json:"message,omitempty"`
	Retryable  bool   `json:"retryable,omitempty"`
	Attempt    int    `json:"attempt,omitempty"`
	View       *View  `json:"view,omitempty"`
	Err        error  `json:"-"`
}

// Terminal reports whether no further fetch will follow this decision.
func (d Decision) Terminal() bool {
	return !d.PollAgain && d.State != StateError && d.State != StateLoading
}

// View is everything derived from a payload for rendering results.
type View struct {
	Scores          scoring.Bundle                  `json:"scores"`
	ReadinessLevel  string                          `json:"readinessLevel"`
	ReadinessBand   int                             `json:"readinessBand"`
	Recommendations []recommendation.Recommendation `json:"recommendations"`
	UsedDefaults    bool                            `json:"usedDefaults"`
}

// Decide is a pure function of p.
func Decide(p Payload) Decision {
	if requiresManualReview(p) {
		d := Decision{}
		if p.Data.RedirectRequired || p.Data.ManualProcessingOnly {
			d.RedirectTo = TierResultsPath(p.AssessmentType, p.ID, p.Tier)
		}
		switch p.Status {
		case "in_review":
			d.State = StateInReview
		case "completed":
			d.State = StateResultsReady
			d.View = BuildView(p)
		default:
			d.State = StatePendingManualReview
		}
		return d
	}

	if mentionsManualReview(p.Data.AIError) {
		return Decision{
			State:      StatePendingManualReview,
			RedirectTo: TierResultsPath(p.AssessmentType, p.ID, p.Tier),
			Message:    p.Data.AIError,
		}
	}

	if !p.Data.AIProcessed && p.Data.AIError == "" && (p.Data.AIAnalysisStarted || p.Data.ShowProcessingScreen) {
		msg := p.Data.ProcessingMessage
		if msg == "" {
			msg = DefaultProcessingMessage
		}
		return Decision{State: StateProcessingScreen, PollAgain: true, Message: msg}
	}

	d := Decision{State: StateResultsReady, View: BuildView(p)}
	if p.Data.AIError != "" {
		d.Banner = AIErrorBanner
	}
	return d
}

// BuildView normalizes scores and recommendations, filling defaults.
func BuildView(p Payload) *View {
	ladder := scoring.FourBand
	var keys []string
	if r, err := scoring.RubricFor(p.AssessmentType); err == nil {
		ladder = r.Ladder
		keys = r.CategoryKeys()
	}

	_, parsed := scoring.ParseBundle(p.Data.Scores)
	bundle := scoring.BundleWithDefaults(p.Data.Scores, keys, scoring.DefaultCategoryScore)

	recs := recommendation.Normalize(p.Data.Recommendations)
	if len(recs) == 0 {
		recs = recommendation.Defaults()
	}

	return &View{
		Scores:          bundle,
		ReadinessLevel:  ladder.Classify(bundle.OverallScore),
		ReadinessBand:   ladder.Band(bundle.OverallScore),
		Recommendations: recs,
		UsedDefaults:    !parsed,
	}
}

// RequiresManualReview reports whether a tier and its flags route to a clerk.
// It agrees with models.ProcessingMode, so the answer does not depend on
// whether the route step has stamped manualProcessingOnly yet.
func RequiresManualReview(tier string, manualProcessing, manualProcessingOnly bool) bool {
	return manualProcessingOnly || models.ProcessingMode(tier, manualProcessing) == models.ModeManual
}

func requiresManualReview(p Payload) bool {
	return RequiresManualReview(p.Tier, p.ManualProcessing, p.Data.ManualProcessingOnly)
}

func mentionsManualReview(aiError string) bool {
	e := strings.ToLower(aiError)
	return strings.Contains(e, "manual processing") || strings.Contains(e, "expert review")
}

// TierResultsPath is the page for manually reviewed results.
func TierResultsPath(assessmentType, id, tier string) string {
	page := "standard-results"
	if tier == "premium" {
		page = "premium-results"
	}
	return fmt.Sprintf("/assessment/%s/%s/%s", assessmentType, page, id)
}

// ResultsPath is the generic AI results page.
func ResultsPath(assessmentType, id string) string {
	return fmt.Sprintf("/assessment/%s/results/%s", assessmentType, id)
}
