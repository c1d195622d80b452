package server

import (
	"prismic/internal/models"
	"prismic/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/v1/user/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	user, err := s.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return respondData(c, fiber.StatusOK, user)
}

// UpdateMyProfile handles PUT /api/v1/user/update. Only the fields present
// in the body are changed.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Username *string `json:"username"`
		Avatar   *string `json:"avatar"`
		Bio      *string `json:"bio"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	if req.Username != nil && *req.Username != user.Username {
		if err := validation.ValidateUsername(*req.Username); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
		existing, err := s.userRepo.GetByUsername(c.Context(), *req.Username)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if existing != nil {
			return models.RespondWithError(c, fiber.StatusConflict,
				models.NewConflictError("Username already taken"))
		}
		user.Username = *req.Username
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}
	if req.Bio != nil {
		if len(*req.Bio) > 500 {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Bio must not exceed 500 characters"))
		}
		user.Bio = *req.Bio
	}

	if err := s.userRepo.Update(c.Context(), user); err != nil {
		return respondError(c, err)
	}

	return respondData(c, fiber.StatusOK, user)
}
