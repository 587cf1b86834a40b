package server

import (
	"blogsys/internal/featureflags"
	"blogsys/internal/service"
	"blogsys/models"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	if !s.featureFlags.Enabled(featureflags.Registration, optionalUserID(c)) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Registration is currently disabled"))
	}

	var req service.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	sess, err := s.authService.Register(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.setSessionCookie(c, sess.Token, s.authService.TokenTTL())
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registration successful",
		"user":    sess.User.Public(),
	})
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	sess, err := s.authService.Login(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.setSessionCookie(c, sess.Token, s.authService.TokenTTL())
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    sess.User.Public(),
	})
}

// Logout handles POST /api/auth/logout
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.authService.Logout(c.UserContext(), tokenFromRequest(c)); err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.clearSessionCookie(c)
	return c.JSON(fiber.Map{"message": "Logout successful"})
}

// CheckUsername handles GET /api/auth/check-username?username=
func (s *Server) CheckUsername(c *fiber.Ctx) error {
	status, err := s.authService.CheckUsername(c.UserContext(), c.Query("username"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(status)
}

// GetMe handles GET /api/auth/me
func (s *Server) GetMe(c *fiber.Ctx) error {
	user, err := s.authService.CurrentUser(c.UserContext(), optionalUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"user": user.Public()})
}

// UpdateMe handles PUT /api/users/me
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.authService.UpdateProfile(c.UserContext(), optionalUserID(c), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Profile updated",
		"user":    user.Public(),
	})
}

// DeleteMe handles DELETE /api/users/me. The token used for the request is
// revoked and the session cookie cleared.
func (s *Server) DeleteMe(c *fiber.Ctx) error {
	if err := s.authService.DeleteAccount(c.UserContext(), claimsFrom(c)); err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.clearSessionCookie(c)
	return c.JSON(fiber.Map{"message": "Account deleted"})
}

// GetFeatureFlags handles GET /api/features
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"flags": s.featureFlags.Snapshot(optionalUserID(c))})
}
