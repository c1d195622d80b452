package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"prismic/internal/models"
	"prismic/internal/palette"
	"prismic/internal/repository"
	"prismic/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetPosts handles GET /api/v1/posts. Supports search, model and color
// filters; results are newest first. The feed is unpaginated: without an
// explicit limit every match comes back in one response.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	p := parsePagination(c, 0)

	filter := repository.PostFilter{
		Search: c.Query("search"),
		Model:  c.Query("model"),
		Color:  c.Query("color"),
		Limit:  p.Limit,
		Offset: p.Offset,
	}

	posts, err := s.postRepo.List(c.Context(), filter)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return respondData(c, fiber.StatusOK, posts)
}

// GetPost handles GET /api/v1/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Post", id))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return respondData(c, fiber.StatusOK, post)
}

// GetPostLineage handles GET /api/v1/posts/:id/lineage. Returns the post's
// parent (null when it is a root or the parent was deleted), the post
// itself, and its direct remixes.
func (s *Server) GetPostLineage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	lineage, err := s.postRepo.Lineage(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Post", id))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return respondData(c, fiber.StatusOK, lineage)
}

// CreatePost handles POST /api/v1/posts. The request is multipart: a
// "photo" file plus name/prompt/model form fields, an optional parentId
// and an optional "colors" field holding a JSON array of hex strings.
// When colors is absent the palette is derived from the image itself.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	name := c.FormValue("name")
	prompt := c.FormValue("prompt")
	model := c.FormValue("model")

	if err := validation.ValidatePostName(name); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if err := validation.ValidatePrompt(prompt); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	if model == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("model is required"))
	}

	// A malformed colors payload fails the whole request rather than being
	// silently dropped.
	var colors []string
	if raw := c.FormValue("colors"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &colors); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("colors must be a JSON array of hex strings"))
		}
		if err := validation.ValidateColors(colors); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
	}

	var parentID *uint
	if raw := c.FormValue("parentId"); raw != "" {
		var pid uint
		if err := json.Unmarshal([]byte(raw), &pid); err != nil || pid == 0 {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("parentId must be a positive integer"))
		}
		parentID = &pid
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("photo file is required"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("could not read photo file"))
	}
	defer file.Close()

	imageBytes, err := io.ReadAll(file)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	if len(colors) == 0 {
		// Best-effort: an undecodable image just ships without a palette.
		if extracted, palErr := palette.Extract(bytes.NewReader(imageBytes)); palErr == nil {
			colors = extracted
		}
	}

	if s.media == nil {
		return models.RespondWithError(c, fiber.StatusBadGateway,
			models.NewUpstreamError("Media storage is not configured", nil))
	}

	photoURL, err := s.media.Upload(c.Context(), bytes.NewReader(imageBytes), int64(len(imageBytes)), contentType)
	if err != nil {
		// Upload failures are distinct from validation failures so clients
		// know a retry may succeed.
		return models.RespondWithError(c, fiber.StatusBadGateway,
			models.NewUpstreamError("Failed to store image", err))
	}

	post := &models.Post{
		Name:     name,
		Prompt:   prompt,
		Model:    model,
		PhotoURL: photoURL,
		ParentID: parentID,
		Colors:   colors,
	}
	if userID, ok := s.optionalUserID(c); ok {
		post.UserID = &userID
	}

	if err := s.postRepo.Create(c.Context(), post); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	s.publishFeedEvent(c.Context(), "post_created", fiber.Map{
		"id":     post.ID,
		"name":   post.Name,
		"model":  post.Model,
		"photo":  post.PhotoURL,
		"parent": post.ParentID,
	})

	// Tell the parent's owner their work was remixed.
	if s.notifier != nil && post.ParentID != nil {
		if parent, perr := s.postRepo.GetByID(c.Context(), *post.ParentID); perr == nil && parent.UserID != nil {
			s.publishUserEvent(c.Context(), *parent.UserID, "post_remixed", fiber.Map{
				"id":     post.ID,
				"name":   post.Name,
				"parent": *post.ParentID,
			})
		}
	}

	return respondData(c, fiber.StatusCreated, post)
}

// DeletePost handles DELETE /api/v1/posts/:id. Only the exact owner may
// delete; anonymous-owned posts cannot be deleted through the API at all.
// Children and collection memberships are left untouched.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postRepo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Post", id))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if post.UserID == nil || *post.UserID != userID {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("You can only delete your own posts"))
	}

	if err := s.postRepo.Delete(c.Context(), id); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if s.media != nil {
		// Best-effort cleanup of the stored image.
		_ = s.media.Delete(c.Context(), post.PhotoURL)
	}

	s.publishFeedEvent(c.Context(), "post_deleted", fiber.Map{"id": id})

	return respondData(c, fiber.StatusOK, fiber.Map{"deleted": id})
}
