package server

import (
	"bytes"
	"strconv"

	"blogsys/internal/featureflags"
	"blogsys/internal/service"
	"blogsys/models"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /api/comments?postId=&page=&perPage=
func (s *Server) GetComments(c *fiber.Ctx) error {
	page := c.QueryInt("page", service.DefaultPage)
	perPage := c.QueryInt("perPage", service.DefaultPerPage)

	result, err := s.commentService.ListComments(c.UserContext(), c.Query("postId"), page, perPage)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}

// CreateComment handles POST /api/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	if !s.featureFlags.Enabled(featureflags.Comments, optionalUserID(c)) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Comments are currently disabled"))
	}

	var req service.CreateCommentInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	id, err := s.commentService.AddComment(c.UserContext(), req)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

// LikeComment handles PUT /api/comments with body {"commentId": N}
func (s *Server) LikeComment(c *fiber.Ctx) error {
	var req struct {
		CommentID commentID `json:"commentId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	var id uint
	if req.CommentID > 0 {
		id = uint(req.CommentID)
	}

	likes, err := s.commentService.LikeComment(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"likes": likes})
}

// commentID accepts a JSON number or a numeric string. Anything else decodes
// to 0, which the service rejects as missing.
type commentID int64

func (id *commentID) UnmarshalJSON(data []byte) error {
	n, err := strconv.ParseInt(string(bytes.Trim(data, `"`)), 10, 64)
	if err != nil {
		n = 0
	}
	*id = commentID(n)
	return nil
}
