package server

import (
	"encoding/base64"
	"errors"

	"prismic/internal/inference"
	"prismic/internal/models"
	"prismic/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GenerateImage handles POST /api/v1/generate. It forwards the prompt to
// the image model and returns the result as a base64 data payload; the
// client decides whether to share it as a post afterwards.
func (s *Server) GenerateImage(c *fiber.Ctx) error {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := validation.ValidatePrompt(req.Prompt); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	img, contentType, err := s.inference.TextToImage(c.Context(), req.Prompt)
	if err != nil {
		if errors.Is(err, inference.ErrModelLoading) {
			return models.RespondWithError(c, fiber.StatusServiceUnavailable,
				models.NewUpstreamError("Image model is warming up, try again shortly", err))
		}
		return models.RespondWithError(c, fiber.StatusBadGateway,
			models.NewUpstreamError("Image generation failed", err))
	}

	return respondData(c, fiber.StatusOK, fiber.Map{
		"photo":        base64.StdEncoding.EncodeToString(img),
		"content_type": contentType,
		"model":        inference.ImageModel,
	})
}
