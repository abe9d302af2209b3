package api

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"

	"career-readiness/internal/common/auth"
	apperrors "career-readiness/internal/common/errors"
	"career-readiness/internal/export"
	"career-readiness/internal/models"
	"career-readiness/internal/results"
	"career-readiness/internal/search"

	"github.com/gofiber/fiber/v2"
)

// maxExportRows bounds a single workbook.
const maxExportRows = 10000

const (
	BulkAssignClerk  = "assign_clerk"
	BulkProcess      = "bulk_process"
	BulkUpdateStatus = "update_status"
)

type PatchAssessmentRequest struct {
	Status          *string                `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	ReviewStatus    *string                `json:"reviewStatus" validate:"omitempty,oneof=pending_review in_review completed"`
	ClerkID         *string                `json:"clerkId"`
	ReviewNotes     *string                `json:"reviewNotes" validate:"omitempty,max=10000"`
	Summary         *string                `json:"summary"`
	Scores          map[string]interface{} `json:"scores"`
	Recommendations interface{}            `json:"recommendations"`
	Strengths       []string               `json:"strengths"`
	Improvements    []string               `json:"improvements"`
}

type BulkRequest struct {
	Action        string   `json:"action" validate:"required,oneof=assign_clerk bulk_process update_status"`
	AssessmentIDs []string `json:"assessmentIds" validate:"required,min=1,max=100,dive,required"`
	ClerkID       string   `json:"clerkId"`
	Status        string   `json:"status"`
}

type BulkFailure struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type ClerkSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Enabled     bool   `json:"enabled"`
	OpenReviews int    `json:"openReviews"`
}

func filterFrom(c *fiber.Ctx) models.AssessmentFilter {
	return models.AssessmentFilter{
		Status:  c.Query("status"),
		Type:    c.Query("type"),
		Tier:    c.Query("tier"),
		ClerkID: c.Query("clerkId"),
		Page:    c.QueryInt("page", 1),
		PerPage: c.QueryInt("per_page", 20),
	}
}

func pagination(page, perPage, total int) fiber.Map {
	pages := 0
	if perPage > 0 {
		pages = int(math.Ceil(float64(total) / float64(perPage)))
	}
	return fiber.Map{"page": page, "per_page": perPage, "total": total, "total_pages": pages}
}

func (s *Server) listAssessments(c *fiber.Ctx) error {
	f := filterFrom(c)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		if s.deps.Search != nil {
			return s.searchAssessments(c, f, q)
		}
		s.log.Warn("search requested without an index, ignoring q", map[string]interface{}{"q": q})
	}

	page, err := s.deps.Repo.List(c.UserContext(), f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"items":      page.Items,
		"pagination": pagination(page.Page, page.PerPage, page.Total),
	})
}

// searchAssessments resolves the page of ids through the index and loads
// the rows in relevance order.
func (s *Server) searchAssessments(c *fiber.Ctx, f models.AssessmentFilter, q string) error {
	page := f.Page
	if page < 1 {
		page = 1
	}
	res, err := s.deps.Search.Search(c.UserContext(), search.Query{
		Text:    q,
		Status:  f.Status,
		Type:    f.Type,
		Tier:    f.Tier,
		ClerkID: f.ClerkID,
		From:    f.Offset(),
		Size:    f.Limit(),
	})
	if err != nil {
		return err
	}

	items := []models.Assessment{}
	if len(res.IDs) > 0 {
		rows, err := s.deps.Repo.List(c.UserContext(), models.AssessmentFilter{IDs: res.IDs, PerPage: len(res.IDs)})
		if err != nil {
			return err
		}
		byID := make(map[string]models.Assessment, len(rows.Items))
		for _, a := range rows.Items {
			byID[a.ID] = a
		}
		for _, id := range res.IDs {
			if a, ok := byID[id]; ok {
				items = append(items, a)
			}
		}
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"items":      items,
		"pagination": pagination(page, f.Limit(), res.Total),
	})
}

func (s *Server) exportAssessments(c *fiber.Ctx) error {
	f := filterFrom(c)
	f.PerPage = 100

	var items []models.Assessment
	for f.Page = 1; len(items) < maxExportRows; f.Page++ {
		page, err := s.deps.Repo.List(c.UserContext(), f)
		if err != nil {
			return err
		}
		items = append(items, page.Items...)
		if len(page.Items) < f.PerPage || len(items) >= page.Total {
			break
		}
	}

	var buf bytes.Buffer
	if err := export.Assessments(&buf, items); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="assessments-%s.xlsx"`, s.now().UTC().Format("20060102")))
	return c.Send(buf.Bytes())
}

func (s *Server) getAssessment(c *fiber.Ctx) error {
	a, err := s.deps.Repo.GetDetail(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "assessment": a})
}

// patchAssessment applies a clerk's review. Moving the review to completed
// stamps reviewedAt, finalizes the scores and resumes the waiting pipeline.
func (s *Server) patchAssessment(c *fiber.Ctx) error {
	var req PatchAssessmentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := s.validate.Struct(req); err != nil {
		return invalid(c, fieldErrors(err))
	}
	claims := claimsFrom(c)

	reviewCompleted := false
	a, err := s.deps.Repo.Update(c.UserContext(), c.Params("id"), func(a *models.Assessment) error {
		if claims.Role == auth.RoleClerk && a.ClerkID != "" && a.ClerkID != claims.UserID() {
			return apperrors.NewForbiddenError("assessment is assigned to another clerk")
		}
		if req.Status != nil {
			a.Status = *req.Status
		}
		if req.ClerkID != nil {
			a.ClerkID = *req.ClerkID
		}
		if req.ReviewNotes != nil {
			a.ReviewNotes = *req.ReviewNotes
		}
		if req.Summary != nil {
			a.Data.Summary = *req.Summary
		}
		if req.Scores != nil {
			a.Data.Scores = req.Scores
		}
		if req.Recommendations != nil {
			a.Data.Recommendations = req.Recommendations
		}
		if req.Strengths != nil {
			a.Data.Strengths = req.Strengths
		}
		if req.Improvements != nil {
			a.Data.Improvements = req.Improvements
		}
		if req.ReviewStatus != nil {
			if *req.ReviewStatus == models.ReviewCompleted && a.ReviewStatus != models.ReviewCompleted {
				now := s.now().UTC()
				a.ReviewedAt = &now
				if _, err := results.Finalize(a, s.opts.DefaultScore); err != nil {
					return err
				}
				a.Status = models.StatusCompleted
				reviewCompleted = true
			}
			a.ReviewStatus = *req.ReviewStatus
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.refresh(c.UserContext(), a)
	if reviewCompleted {
		s.publishReviewCompleted(c.UserContext(), a)
	}
	return c.JSON(fiber.Map{"success": true, "assessment": a})
}

func (s *Server) publishReviewCompleted(ctx context.Context, a *models.Assessment) {
	if s.deps.Processes == nil {
		return
	}
	err := s.deps.Processes.PublishMessage(ctx, ReviewCompletedMessage, a.ID, map[string]interface{}{
		"reviewStatus": a.ReviewStatus,
		"clerkId":      a.ClerkID,
	})
	if err != nil {
		s.log.Error("failed to publish review completion", map[string]interface{}{
			"assessmentId": a.ID,
			"error":        err,
		})
	}
}

// refresh drops the cached payload and reindexes a. Both are best effort.
func (s *Server) refresh(ctx context.Context, a *models.Assessment) {
	if s.deps.Cache != nil {
		if err := s.deps.Cache.Invalidate(ctx, a.ID); err != nil {
			s.log.Warn("failed to invalidate cache", map[string]interface{}{"assessmentId": a.ID, "error": err})
		}
	}
	if s.deps.Search != nil {
		if err := s.deps.Search.Upsert(ctx, search.DocumentFrom(a)); err != nil {
			s.log.Warn("failed to index assessment", map[string]interface{}{"assessmentId": a.ID, "error": err})
		}
	}
}

func (s *Server) deleteAssessment(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.deps.Repo.Delete(c.UserContext(), id); err != nil {
		return err
	}
	if s.deps.Cache != nil {
		_ = s.deps.Cache.Invalidate(c.UserContext(), id)
	}
	if s.deps.Search != nil {
		if err := s.deps.Search.Delete(c.UserContext(), id); err != nil {
			s.log.Warn("failed to remove assessment from index", map[string]interface{}{"assessmentId": id, "error": err})
		}
	}
	return c.JSON(fiber.Map{"success": true, "message": "Assessment deleted"})
}

func (s *Server) bulkAssessments(c *fiber.Ctx) error {
	var req BulkRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := s.validate.Struct(req); err != nil {
		return invalid(c, fieldErrors(err))
	}
	switch {
	case req.Action == BulkAssignClerk && req.ClerkID == "":
		return invalid(c, []FieldError{{Field: "clerkId", Message: "is required for assign_clerk"}})
	case req.Action == BulkUpdateStatus && !models.IsValidStatus(req.Status):
		return invalid(c, []FieldError{{Field: "status", Message: "must be a valid status"}})
	}

	updated := 0
	failed := []BulkFailure{}
	for _, id := range req.AssessmentIDs {
		if err := s.bulkOne(c.UserContext(), req, id); err != nil {
			failed = append(failed, BulkFailure{ID: id, Message: apperrors.AsStandard(err).Message})
			continue
		}
		updated++
	}
	return c.JSON(fiber.Map{"success": len(failed) == 0, "updated": updated, "failed": failed})
}

func (s *Server) bulkOne(ctx context.Context, req BulkRequest, id string) error {
	if req.Action == BulkProcess {
		a, err := s.deps.Repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if a.Status == models.StatusPending {
			return apperrors.NewInvalidStatusError(a.Status, models.StatusInProgress)
		}
		if s.deps.Processes == nil {
			return apperrors.NewExternalServiceError("zeebe", fmt.Errorf("no process engine configured"))
		}
		if s.deps.Cache != nil {
			_ = s.deps.Cache.Invalidate(ctx, id)
		}
		return s.startPipeline(ctx, a)
	}

	a, err := s.deps.Repo.Update(ctx, id, func(a *models.Assessment) error {
		switch req.Action {
		case BulkAssignClerk:
			a.ClerkID = req.ClerkID
			if a.ReviewStatus == "" {
				a.ReviewStatus = models.ReviewPending
			}
		case BulkUpdateStatus:
			a.Status = req.Status
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.refresh(ctx, a)
	return nil
}

func (s *Server) listClerks(c *fiber.Ctx) error {
	if s.deps.Clerks == nil {
		return apperrors.NewClerkUnavailableError("no clerk directory configured")
	}
	clerks, err := s.deps.Clerks.ListClerks(c.UserContext())
	if err != nil {
		return apperrors.NewExternalServiceError("keycloak", err)
	}
	workloads, err := s.deps.Repo.ClerkWorkloads(c.UserContext())
	if err != nil {
		return err
	}

	out := make([]ClerkSummary, 0, len(clerks))
	for _, cl := range clerks {
		out = append(out, ClerkSummary{
			ID:          cl.ID,
			Name:        cl.DisplayName(),
			Email:       cl.Email,
			Enabled:     cl.Enabled,
			OpenReviews: workloads[cl.ID],
		})
	}
	return c.JSON(fiber.Map{"success": true, "clerks": out})
}
