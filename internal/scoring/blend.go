package scoring

// DefaultBlend is the 60/40 form and resume split with a 70 placeholder
// used until the AI resume score exists.
var DefaultBlend = Blend{FormWeight: 0.6, ResumeWeight: 0.4, PlaceholderResumeScore: 70}

// EstimatedFinalScore rounds each weighted part separately before adding.
// A nil resume score uses the placeholder.
func (b Blend) EstimatedFinalScore(formPercentage int, resumeScore *int) int {
	resume := b.PlaceholderResumeScore
	if resumeScore != nil {
		resume = clamp(*resumeScore, 0, 100)
	}
	return clamp(round(float64(formPercentage)*b.FormWeight)+round(float64(resume)*b.ResumeWeight), 0, 100)
}

// FinalScore is the score a rubric reports for a form percentage and an
// optional resume score. Rubrics without a blend report the form percentage.
func (r *Rubric) FinalScore(formPercentage int, resumeScore *int) int {
	if r.Blend == nil {
		return clamp(formPercentage, 0, 100)
	}
	return r.Blend.EstimatedFinalScore(formPercentage, resumeScore)
}

// Readiness labels a score with the rubric's ladder.
func (r *Rubric) Readiness(score int) string {
	return r.Ladder.Classify(score)
}
