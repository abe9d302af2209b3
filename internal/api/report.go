package api

import (
	"fmt"

	apperrors "career-readiness/internal/common/errors"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) printResults(c *fiber.Ctx) error {
	a, err := s.loadOwned(c)
	if err != nil {
		return err
	}
	page, err := s.deps.Report.HTML(a)
	if err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.SendString(page)
}

func (s *Server) pdfResults(c *fiber.Ctx) error {
	if s.deps.PDF == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "PDF rendering is not available")
	}
	a, err := s.loadOwned(c)
	if err != nil {
		return err
	}
	page, err := s.deps.Report.HTML(a)
	if err != nil {
		return err
	}
	pdf, err := s.deps.PDF.Render(c.UserContext(), page)
	if err != nil {
		return apperrors.NewExternalServiceError("chrome", err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s-%s.pdf"`, a.Type, a.ID))
	return c.Send(pdf)
}
