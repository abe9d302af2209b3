package report

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"career-readiness/internal/models"
	"career-readiness/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedRenderer() *Renderer {
	r := NewRenderer("Acme Careers")
	r.now = func() time.Time { return time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) }
	return r
}

func TestHTML_SelfContained(t *testing.T) {
	final := 64
	a := &models.Assessment{
		ID: "a-1", Type: models.TypeCCRL, Tier: models.TierBasic,
		ReviewNotes: "Follow up **next month**.",
		Data: models.AssessmentData{
			PersonalInfo: &models.PersonalInfo{FullName: "Jamie <Doe>"},
			Scores: map[string]interface{}{
				"categoryScores": map[string]interface{}{"skillsCurrency": 80.0, "networking": 40.0, "mentorship": 55.0},
				"overallScore":   64.0,
			},
			Recommendations: []interface{}{"Refresh your certifications"},
			Summary:         "You are **close** to ready.\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n<script>alert(1)</script>",
			Strengths:       []string{"Adaptable"},
			FinalScore:      &final,
		},
	}

	out, err := fixedRenderer().HTML(a)
	require.NoError(t, err)

	assert.Contains(t, out, "Acme Careers")
	assert.Contains(t, out, "Jamie &lt;Doe&gt;")
	assert.Contains(t, out, "March 2, 2026")
	assert.Contains(t, out, "Developing Readiness")
	assert.Contains(t, out, "<strong>close</strong>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<strong>next month</strong>")
	assert.Contains(t, out, "Refresh your certifications")
	assert.Contains(t, out, "Skills Currency")
	assert.Contains(t, out, "mentorship")
	assert.NotContains(t, out, "Learning Agility")

	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "<link")
	assert.NotContains(t, out, "src=")
	assert.NotContains(t, out, "http://")
	assert.NotContains(t, out, "https://")
}

func TestHTML_DefaultsWhenAIMissing(t *testing.T) {
	a := &models.Assessment{ID: "a-2", Type: models.TypeIRL, Data: models.AssessmentData{AIError: "timeout"}}

	out, err := fixedRenderer().HTML(a)
	require.NoError(t, err)
	assert.Contains(t, out, "AI analysis may be incomplete")
	assert.Contains(t, out, scoring.FourBand.Classify(70))
	assert.Equal(t, 1, strings.Count(out, "<html"))
}

func TestHTML_UnknownType(t *testing.T) {
	_, err := fixedRenderer().HTML(&models.Assessment{Type: "xyz"})
	assert.Error(t, err)
}

func TestPaletteFor(t *testing.T) {
	assert.Equal(t, fourBandPalette[0], PaletteFor(scoring.FourBand, 0))
	assert.Equal(t, fourBandPalette[3], PaletteFor(scoring.FourBand, 3))
	assert.Equal(t, sixBandPalette[5], PaletteFor(scoring.SixBand, scoring.SixBand.Band(100)))
	assert.Equal(t, fourBandPalette[3], PaletteFor(scoring.FourBand, 9))
	assert.Equal(t, fourBandPalette[0], PaletteFor(scoring.FourBand, -1))
}

func TestPDFRenderer(t *testing.T) {
	r := NewPDFRenderer("", 20*time.Second)
	if !r.Available() {
		t.Skip("no chrome binary installed")
	}
	pdf, err := r.Render(context.Background(), "<html><body><h1>Report</h1></body></html>")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}
