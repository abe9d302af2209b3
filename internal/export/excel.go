package export

import (
	"fmt"
	"io"

	"career-readiness/internal/models"
	"career-readiness/internal/scoring"

	"github.com/xuri/excelize/v2"
)

const (
	SheetAssessments = "Assessments"
	SheetScores      = "Category Scores"
)

var assessmentHeaders = []string{
	"ID", "Type", "Tier", "Status", "Review Status", "Clerk", "Name", "Email",
	"Form %", "Final Score", "Readiness Level", "AI Processed", "AI Error", "Price", "Created", "Reviewed",
}

// Assessments writes an admin workbook: one row per assessment plus a
// second sheet with one row per category score.
func Assessments(w io.Writer, items []models.Assessment) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetAssessments); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetScores); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	if err := writeAssessments(f, headerStyle, items); err != nil {
		return fmt.Errorf("write %s sheet: %w", SheetAssessments, err)
	}
	if err := writeScores(f, headerStyle, items); err != nil {
		return fmt.Errorf("write %s sheet: %w", SheetScores, err)
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeHeader(f *excelize.File, sheet string, style int, headers []string) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeAssessments(f *excelize.File, style int, items []models.Assessment) error {
	if err := writeHeader(f, SheetAssessments, style, assessmentHeaders); err != nil {
		return err
	}
	_ = f.SetColWidth(SheetAssessments, "A", "A", 38)
	_ = f.SetColWidth(SheetAssessments, "G", "H", 28)
	_ = f.SetColWidth(SheetAssessments, "K", "K", 24)

	for i, a := range items {
		var name, email string
		if a.Data.PersonalInfo != nil {
			name, email = a.Data.PersonalInfo.FullName, a.Data.PersonalInfo.Email
		}
		var formPct, final interface{}
		if a.Data.FormScore != nil {
			formPct = a.Data.FormScore.FormPercentage
		}
		if a.Data.FinalScore != nil {
			final = *a.Data.FinalScore
		}
		var reviewed interface{}
		if a.ReviewedAt != nil {
			reviewed = a.ReviewedAt.UTC().Format("2006-01-02 15:04")
		}

		row := []interface{}{
			a.ID, a.Type, a.Tier, a.Status, a.ReviewStatus, a.ClerkID, name, email,
			formPct, final, a.Data.ReadinessLevel, a.Data.AIProcessed, a.Data.AIError, a.Price,
			a.CreatedAt.UTC().Format("2006-01-02 15:04"), reviewed,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetAssessments, cell, &row); err != nil {
			return err
		}
	}

	if len(items) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(assessmentHeaders), len(items)+1)
		return f.AutoFilter(SheetAssessments, "A1:"+last, nil)
	}
	return nil
}

func writeScores(f *excelize.File, style int, items []models.Assessment) error {
	if err := writeHeader(f, SheetScores, style, []string{"Assessment ID", "Type", "Category", "Score"}); err != nil {
		return err
	}
	_ = f.SetColWidth(SheetScores, "A", "A", 38)
	_ = f.SetColWidth(SheetScores, "C", "C", 28)

	r := 2
	for _, a := range items {
		b, ok := scoring.ParseBundle(a.Data.Scores)
		if !ok {
			continue
		}
		for _, k := range b.SortedKeys() {
			row := []interface{}{a.ID, a.Type, k, b.CategoryScores[k]}
			cell, _ := excelize.CoordinatesToCellName(1, r)
			if err := f.SetSheetRow(SheetScores, cell, &row); err != nil {
				return err
			}
			r++
		}
		row := []interface{}{a.ID, a.Type, "overall", b.OverallScore}
		cell, _ := excelize.CoordinatesToCellName(1, r)
		if err := f.SetSheetRow(SheetScores, cell, &row); err != nil {
			return err
		}
		r++
	}
	return nil
}
