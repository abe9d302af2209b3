package api

import (
	"encoding/json"

	apperrors "career-readiness/internal/common/errors"
	"career-readiness/internal/models"
	"career-readiness/internal/reconcile"
	"career-readiness/internal/results"

	"github.com/gofiber/fiber/v2"
)

// cachedResults keeps the owner next to the payload so a cache hit can be
// authorized without touching the database.
type cachedResults struct {
	UserID  string            `json:"userId"`
	Type    string            `json:"type"`
	Payload reconcile.Payload `json:"payload"`
}

// loadOwned fetches the assessment at :id, checks it is of type :type and
// that the caller owns it or is staff.
func (s *Server) loadOwned(c *fiber.Ctx) (*models.Assessment, error) {
	a, err := s.deps.Repo.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return nil, err
	}
	if a.Type != c.Params("type") {
		return nil, apperrors.NewAssessmentNotFoundError(a.ID)
	}
	if err := authorizeOwner(c, a.UserID); err != nil {
		return nil, err
	}
	return a, nil
}

func authorizeOwner(c *fiber.Ctx, ownerID string) error {
	claims := claimsFrom(c)
	if claims == nil {
		return apperrors.NewUnauthorizedError("missing claims")
	}
	if claims.UserID() != ownerID && !claims.IsStaff() {
		return apperrors.NewForbiddenError("assessment belongs to another user")
	}
	return nil
}

// getResults serves the polling payload. Completed results are cached until
// the assessment next changes; _nocache bypasses the cache for pollers.
func (s *Server) getResults(c *fiber.Ctx) error {
	id, typ := c.Params("id"), c.Params("type")
	bypass := c.Query("_nocache") != ""

	if !bypass && s.deps.Cache != nil {
		if raw, ok := s.deps.Cache.GetResults(c.UserContext(), id); ok {
			var hit cachedResults
			if json.Unmarshal(raw, &hit) == nil && hit.Type == typ {
				if err := authorizeOwner(c, hit.UserID); err != nil {
					return err
				}
				c.Set("X-Cache", "HIT")
				return c.JSON(hit.Payload)
			}
		}
	}

	a, err := s.loadOwned(c)
	if err != nil {
		return err
	}
	payload := results.Payload(a)

	if s.deps.Cache != nil && a.Status == models.StatusCompleted {
		raw, err := json.Marshal(cachedResults{UserID: a.UserID, Type: a.Type, Payload: payload})
		if err == nil {
			if err := s.deps.Cache.SetResults(c.UserContext(), a.ID, raw); err != nil {
				s.log.Warn("failed to cache results", map[string]interface{}{"assessmentId": a.ID, "error": err})
			}
		}
	}
	c.Set("Cache-Control", "no-store")
	return c.JSON(payload)
}
