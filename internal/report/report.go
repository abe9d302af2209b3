// Package report renders an assessment's results as a standalone printable
// HTML page and, through headless Chrome, as a PDF.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"career-readiness/internal/models"
	"career-readiness/internal/reconcile"
	"career-readiness/internal/recommendation"
	"career-readiness/internal/results"
	"career-readiness/internal/scoring"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/print.html.tmpl
var templateFS embed.FS

var printTemplate = template.Must(template.New("print.html.tmpl").Funcs(template.FuncMap{
	"pct": func(v int) string { return fmt.Sprintf("%d%%", v) },
}).ParseFS(templateFS, "templates/print.html.tmpl"))

// Palette colors one readiness band.
type Palette struct {
	Accent     string
	Background string
	Text       string
}

var (
	fourBandPalette = []Palette{
		{"#b91c1c", "#fee2e2", "#7f1d1d"},
		{"#c2410c", "#ffedd5", "#7c2d12"},
		{"#a16207", "#fef9c3", "#713f12"},
		{"#15803d", "#dcfce7", "#14532d"},
	}
	sixBandPalette = []Palette{
		{"#b91c1c", "#fee2e2", "#7f1d1d"},
		{"#c2410c", "#ffedd5", "#7c2d12"},
		{"#a16207", "#fef9c3", "#713f12"},
		{"#4d7c0f", "#ecfccb", "#365314"},
		{"#15803d", "#dcfce7", "#14532d"},
		{"#0f766e", "#ccfbf1", "#134e4a"},
	}
)

// PaletteFor picks the colors for a band index on the given ladder.
func PaletteFor(l scoring.Ladder, band int) Palette {
	p := fourBandPalette
	if len(l.Bands)+1 == len(sixBandPalette) {
		p = sixBandPalette
	}
	if band < 0 {
		band = 0
	}
	if band >= len(p) {
		band = len(p) - 1
	}
	return p[band]
}

type categoryRow struct {
	Label string
	Score int
	Color string
}

type printPage struct {
	Brand           string
	Title           string
	Name            string
	Generated       string
	Overall         int
	ReadinessLevel  string
	Palette         Palette
	Categories      []categoryRow
	SummaryHTML     template.HTML
	Strengths       []string
	Improvements    []string
	Recommendations []recommendation.Recommendation
	ReviewNotesHTML template.HTML
	Banner          string
}

// Renderer builds print documents.
type Renderer struct {
	brand string
	md    goldmark.Markdown
	now   func() time.Time
}

func NewRenderer(brand string) *Renderer {
	if brand == "" {
		brand = "Career Readiness"
	}
	return &Renderer{
		brand: brand,
		md:    goldmark.New(goldmark.WithExtensions(extension.GFM)),
		now:   time.Now,
	}
}

// HTML renders a self-contained document: inline CSS, no scripts, no
// external assets.
func (r *Renderer) HTML(a *models.Assessment) (string, error) {
	rubric, err := scoring.RubricFor(a.Type)
	if err != nil {
		return "", err
	}

	view := reconcile.BuildView(results.Payload(a))

	overall := view.Scores.OverallScore
	level := view.ReadinessLevel
	band := view.ReadinessBand
	if a.Data.FinalScore != nil {
		overall = *a.Data.FinalScore
		level = rubric.Readiness(overall)
		band = rubric.Ladder.Band(overall)
	}

	pg := printPage{
		Brand:           r.brand,
		Title:           rubric.Title,
		Generated:       r.now().Format("January 2, 2006"),
		Overall:         overall,
		ReadinessLevel:  level,
		Palette:         PaletteFor(rubric.Ladder, band),
		Strengths:       a.Data.Strengths,
		Improvements:    a.Data.Improvements,
		Recommendations: view.Recommendations,
	}
	if a.Data.PersonalInfo != nil {
		pg.Name = a.Data.PersonalInfo.FullName
	}
	if a.Data.AIError != "" {
		pg.Banner = reconcile.AIErrorBanner
	}

	for _, key := range rubric.CategoryKeys() {
		score, ok := view.Scores.CategoryScores[key]
		if !ok {
			continue
		}
		cat, _ := rubric.Category(key)
		pg.Categories = append(pg.Categories, categoryRow{
			Label: cat.Label,
			Score: score,
			Color: PaletteFor(rubric.Ladder, rubric.Ladder.Band(score)).Accent,
		})
	}
	// Extra categories the service returned that the rubric does not know.
	var extra []string
	for key := range view.Scores.CategoryScores {
		if _, ok := rubric.Category(key); !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		score := view.Scores.CategoryScores[key]
		pg.Categories = append(pg.Categories, categoryRow{
			Label: key,
			Score: score,
			Color: PaletteFor(rubric.Ladder, rubric.Ladder.Band(score)).Accent,
		})
	}

	if pg.SummaryHTML, err = r.markdown(a.Data.Summary); err != nil {
		return "", err
	}
	if pg.ReviewNotesHTML, err = r.markdown(a.ReviewNotes); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := printTemplate.Execute(&buf, pg); err != nil {
		return "", fmt.Errorf("render print template: %w", err)
	}
	return buf.String(), nil
}

// markdown converts with goldmark's default renderer, which drops raw HTML.
func (r *Renderer) markdown(src string) (template.HTML, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	var b strings.Builder
	if err := r.md.Convert([]byte(src), &b); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return template.HTML(b.String()), nil
}
