package api

import (
	"strconv"
	"time"

	"career-readiness/internal/common/auth"
	"career-readiness/internal/common/metrics"

	"github.com/gofiber/fiber/v2"
)

const claimsKey = "claims"

// observe logs each request and records the request metrics by route pattern.
func (s *Server) observe(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	if err != nil {
		if herr := c.App().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	status := c.Response().StatusCode()
	route := c.Route().Path
	elapsed := time.Since(start)
	metrics.APIRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
	metrics.APIRequestDuration.WithLabelValues(c.Method(), route).Observe(elapsed.Seconds())

	fields := map[string]interface{}{
		"method":    c.Method(),
		"path":      c.Path(),
		"status":    status,
		"latencyMs": elapsed.Milliseconds(),
		"requestId": c.Locals("requestid"),
	}
	if status >= fiber.StatusInternalServerError {
		s.log.Error("request failed", fields)
	} else {
		s.log.Info("request served", fields)
	}
	return nil
}

func (s *Server) authenticate(c *fiber.Ctx) error {
	claims, err := auth.ParseToken(s.opts.JWTSecret, c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Authentication required")
	}
	c.Locals(claimsKey, claims)
	return c.Next()
}

func claimsFrom(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(claimsKey).(*auth.Claims)
	return claims
}

func requireStaff(c *fiber.Ctx) error {
	if claims := claimsFrom(c); claims == nil || !claims.IsStaff() {
		return fiber.NewError(fiber.StatusForbidden, "Staff access required")
	}
	return c.Next()
}

func requireAdmin(c *fiber.Ctx) error {
	if claims := claimsFrom(c); claims == nil || claims.Role != auth.RoleAdmin {
		return fiber.NewError(fiber.StatusForbidden, "Admin access required")
	}
	return c.Next()
}
