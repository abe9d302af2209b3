package api

import (
	"errors"

	apperrors "career-readiness/internal/common/errors"
	"career-readiness/internal/common/validation"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// FieldError is one entry of the errors array of a 400 response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func fail(c *fiber.Ctx, status int, message string, errs []FieldError) error {
	body := fiber.Map{"success": false, "message": message}
	if len(errs) > 0 {
		body["errors"] = errs
	}
	return c.Status(status).JSON(body)
}

func invalid(c *fiber.Ctx, errs []FieldError) error {
	return fail(c, fiber.StatusBadRequest, "Validation failed", errs)
}

func fieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "(body)", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, fe := range ve {
		out = append(out, FieldError{Field: fe.Namespace(), Message: "failed " + fe.Tag() + " check"})
	}
	return out
}

func schemaErrors(prefix string, res *validation.ValidationResult) []FieldError {
	out := make([]FieldError, 0, len(res.Errors))
	for _, e := range res.Errors {
		out = append(out, FieldError{Field: prefix + "." + e.Field, Message: e.Message})
	}
	return out
}

var statusByCode = map[apperrors.ErrorCode]int{
	apperrors.ErrCodeAssessmentNotFound:  fiber.StatusNotFound,
	apperrors.ErrCodeInvalidSubmission:   fiber.StatusBadRequest,
	apperrors.ErrCodeResumeInvalid:       fiber.StatusBadRequest,
	apperrors.ErrCodeUnknownAssessment:   fiber.StatusNotFound,
	apperrors.ErrCodeInvalidStatus:       fiber.StatusConflict,
	apperrors.ErrCodeUnauthorized:        fiber.StatusUnauthorized,
	apperrors.ErrCodeForbidden:           fiber.StatusForbidden,
	apperrors.ErrCodeClerkUnavailable:    fiber.StatusServiceUnavailable,
	apperrors.ErrCodeSearchQueryFailed:   fiber.StatusBadGateway,
	apperrors.ErrCodeResumeExtractFailed: fiber.StatusUnprocessableEntity,
	"RESOURCE_NOT_FOUND":                 fiber.StatusNotFound,
	"BUSINESS_RULE_VIOLATION":            fiber.StatusUnprocessableEntity,
	"EXTERNAL_SERVICE_ERROR":             fiber.StatusBadGateway,
	"AUTHENTICATION_ERROR":               fiber.StatusUnauthorized,
	"TIMEOUT_ERROR":                      fiber.StatusGatewayTimeout,
}

// HTTPStatus maps a StandardError code to its response status.
func HTTPStatus(code apperrors.ErrorCode) int {
	if s, ok := statusByCode[code]; ok {
		return s
	}
	return fiber.StatusInternalServerError
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fail(c, fe.Code, fe.Message, nil)
	}

	std := apperrors.AsStandard(err)
	status := HTTPStatus(std.Code)
	if status >= fiber.StatusInternalServerError {
		s.log.Error("request error", map[string]interface{}{
			"path":      c.Path(),
			"errorCode": std.Code,
			"error":     err,
		})
	}
	if status == fiber.StatusInternalServerError {
		return fail(c, status, "Internal server error", nil)
	}
	return fail(c, status, std.Message, nil)
}
