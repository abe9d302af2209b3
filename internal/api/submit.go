package api

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"strings"

	apperrors "career-readiness/internal/common/errors"
	"career-readiness/internal/models"
	"career-readiness/internal/reconcile"
	"career-readiness/internal/resume"
	"career-readiness/internal/scoring"

	"github.com/gofiber/fiber/v2"
)

type CreateAssessmentRequest struct {
	Tier             string  `json:"tier" validate:"required,oneof=basic standard premium"`
	Price            float64 `json:"price" validate:"gte=0"`
	ManualProcessing bool    `json:"manualProcessing"`
}

// Submission is the formData part of a questionnaire submission.
type Submission struct {
	PersonalInfo  *models.PersonalInfo   `json:"personalInfo" validate:"required"`
	Answers       map[string]string      `json:"answers" validate:"required"`
	Qualification map[string]interface{} `json:"qualification"`
}

func (s *Server) createAssessment(c *fiber.Ctx) error {
	typ := c.Params("type")
	if !models.IsValidType(typ) {
		return apperrors.NewUnknownAssessmentTypeError(typ)
	}
	var req CreateAssessmentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := s.validate.Struct(req); err != nil {
		return invalid(c, fieldErrors(err))
	}

	a := &models.Assessment{
		UserID:           claimsFrom(c).UserID(),
		Type:             typ,
		Tier:             req.Tier,
		Price:            req.Price,
		ManualProcessing: req.ManualProcessing,
		Status:           models.StatusPending,
	}
	if err := s.deps.Repo.Create(c.UserContext(), a); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "assessment": a})
}

func (s *Server) submitWithFile(c *fiber.Ctx) error {
	return s.submit(c, s.deps.Extractor)
}

func (s *Server) submitWithVision(c *fiber.Ctx) error {
	if s.deps.Vision == nil {
		return s.submit(c, s.deps.Extractor)
	}
	return s.submit(c, s.deps.Vision)
}

func (s *Server) submit(c *fiber.Ctx, extractor resume.Extractor) error {
	typ := c.Params("type")
	validator, ok := s.answers[typ]
	if !ok {
		return apperrors.NewUnknownAssessmentTypeError(typ)
	}

	raw := c.FormValue("formData")
	if raw == "" && strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		raw = string(c.Body())
	}
	if raw == "" {
		return invalid(c, []FieldError{{Field: "formData", Message: "is required"}})
	}
	var sub Submission
	if err := json.Unmarshal([]byte(raw), &sub); err != nil {
		return invalid(c, []FieldError{{Field: "formData", Message: "is not valid JSON"}})
	}
	if err := s.validate.Struct(sub); err != nil {
		return invalid(c, fieldErrors(err))
	}
	answers := make(map[string]interface{}, len(sub.Answers))
	for k, v := range sub.Answers {
		answers[k] = v
	}
	if res := validator.Validate(answers); !res.Valid {
		return invalid(c, schemaErrors("answers", res))
	}

	a, err := s.loadOwned(c)
	if err != nil {
		return err
	}
	if a.Status != models.StatusPending {
		return apperrors.NewInvalidStatusError(a.Status, models.StatusInProgress)
	}
	mode := models.ProcessingMode(a.Tier, a.ManualProcessing)

	file, err := c.FormFile("resume")
	if err != nil {
		file = nil
	}
	if file == nil && mode == models.ModeAI {
		return invalid(c, []FieldError{{Field: "resume", Message: "is required for AI analysis"}})
	}

	var (
		stored *models.ResumeFile
		text   string
	)
	if file != nil {
		if err := resume.Validate(file.Filename, file.Size); err != nil {
			return err
		}
		if stored, err = s.saveResume(a.ID, file); err != nil {
			return err
		}
		text = s.extract(c.UserContext(), extractor, a.ID, stored)
	}

	rubric, _ := scoring.RubricFor(typ)
	fs := scoring.Score(rubric, sub.Answers)
	estimated := rubric.FinalScore(fs.FormPercentage, nil)

	updated, err := s.deps.Repo.Update(c.UserContext(), a.ID, func(cur *models.Assessment) error {
		if cur.Status != models.StatusPending {
			return apperrors.NewInvalidStatusError(cur.Status, models.StatusInProgress)
		}
		cur.Data.PersonalInfo = sub.PersonalInfo
		cur.Data.Answers = sub.Answers
		cur.Data.Qualification = sub.Qualification
		if stored != nil {
			cur.Data.Resume = stored
			cur.Data.ResumeText = text
		}
		cur.Data.FormScore = &models.FormScoreRecord{
			CategoryWeights:     fs.CategoryWeights,
			RawTotalScore:       fs.RawTotalScore,
			MaxPossibleScore:    fs.MaxPossibleScore,
			FormPercentage:      fs.FormPercentage,
			EstimatedFinalScore: estimated,
			ReadinessLevel:      rubric.Readiness(estimated),
			Unmatched:           fs.Unmatched,
			ScoredAt:            s.now().UTC(),
		}
		cur.Status = models.StatusInProgress
		if mode == models.ModeAI {
			cur.Data.ShowProcessingScreen = true
			cur.Data.ProcessingMessage = reconcile.DefaultProcessingMessage
		}
		return nil
	})
	if err != nil {
		if stored != nil {
			_ = s.deps.Resumes.Remove(stored.Path)
		}
		return err
	}

	if err := s.startPipeline(c.UserContext(), updated); err != nil {
		s.reopen(c.UserContext(), updated.ID)
		return err
	}

	path := reconcile.ResultsPath(updated.Type, updated.ID)
	if mode == models.ModeManual {
		path = reconcile.TierResultsPath(updated.Type, updated.ID, updated.Tier)
	}
	return c.JSON(fiber.Map{"success": true, "redirectTo": path, "redirectUrl": path})
}

func (s *Server) saveResume(assessmentID string, file *multipart.FileHeader) (*models.ResumeFile, error) {
	if s.deps.Resumes == nil {
		return nil, apperrors.NewResumeInvalidError("resume uploads are disabled")
	}
	f, err := file.Open()
	if err != nil {
		return nil, apperrors.NewResumeInvalidError("unreadable upload")
	}
	defer f.Close()
	return s.deps.Resumes.Save(assessmentID, file.Filename, f)
}

// extract never fails the submission; an unreadable resume is analyzed as
// an empty one and the failure logged.
func (s *Server) extract(ctx context.Context, extractor resume.Extractor, assessmentID string, file *models.ResumeFile) string {
	if extractor == nil {
		return ""
	}
	text, err := extractor.Extract(ctx, file.Path, file.ContentType)
	if err != nil {
		s.log.Warn("resume text extraction failed", map[string]interface{}{
			"assessmentId": assessmentID,
			"extractor":    extractor.Name(),
			"error":        err,
		})
		return ""
	}
	file.Extractor = extractor.Name()
	return text
}

// reopen puts a submission whose pipeline could not start back to pending so
// the user can submit again.
func (s *Server) reopen(ctx context.Context, id string) {
	_, err := s.deps.Repo.Update(ctx, id, func(cur *models.Assessment) error {
		if cur.Status != models.StatusInProgress {
			return apperrors.NewInvalidStatusError(cur.Status, models.StatusPending)
		}
		cur.Status = models.StatusPending
		cur.Data.ShowProcessingScreen = false
		cur.Data.ProcessingMessage = ""
		return nil
	})
	if err != nil {
		s.log.Error("submission left in progress without a pipeline", map[string]interface{}{
			"assessmentId": id,
			"error":        err,
		})
	}
}

func (s *Server) startPipeline(ctx context.Context, a *models.Assessment) error {
	if s.deps.Processes == nil {
		s.log.Warn("no process engine configured, pipeline not started", map[string]interface{}{"assessmentId": a.ID})
		return nil
	}
	key, err := s.deps.Processes.StartProcess(ctx, s.opts.ProcessID, map[string]interface{}{
		"assessmentId":     a.ID,
		"assessmentType":   a.Type,
		"tier":             a.Tier,
		"manualProcessing": a.ManualProcessing,
	})
	if err != nil {
		return apperrors.NewExternalServiceError("zeebe", err)
	}
	s.log.Info("assessment pipeline started", map[string]interface{}{
		"assessmentId":       a.ID,
		"processInstanceKey": key,
	})
	return nil
}
