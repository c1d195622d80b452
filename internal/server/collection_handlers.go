package server

import (
	"prismic/internal/models"
	"prismic/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GetCollections handles GET /api/v1/collections. Returns the caller's
// collections with their member posts resolved; ids whose posts have been
// deleted are skipped without erroring.
func (s *Server) GetCollections(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	collections, err := s.collectionRepo.ListByUser(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	for i := range collections {
		if err := s.resolveCollectionPosts(c, &collections[i]); err != nil {
			return respondError(c, err)
		}
	}

	return respondData(c, fiber.StatusOK, collections)
}

// GetCollection handles GET /api/v1/collections/:id
func (s *Server) GetCollection(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	collection, err := s.collectionRepo.GetByIDAndOwner(c.Context(), id, userID)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.resolveCollectionPosts(c, collection); err != nil {
		return respondError(c, err)
	}

	return respondData(c, fiber.StatusOK, collection)
}

// CreateCollection handles POST /api/v1/collections
func (s *Server) CreateCollection(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Name       string `json:"name"`
		IsPrivate  *bool  `json:"is_private"`
		CoverPhoto string `json:"cover_photo"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := validation.ValidateCollectionName(req.Name); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	collection := &models.Collection{
		Name:       req.Name,
		UserID:     userID,
		PostIDs:    []uint{},
		IsPrivate:  true,
		CoverPhoto: req.CoverPhoto,
	}
	if req.IsPrivate != nil {
		collection.IsPrivate = *req.IsPrivate
	}

	if err := s.collectionRepo.Create(c.Context(), collection); err != nil {
		return respondError(c, err)
	}

	return respondData(c, fiber.StatusCreated, collection)
}

// AddPostToCollection handles POST /api/v1/collections/:id/add. Adding a
// post that is already a member is a 400; the post must currently exist.
func (s *Server) AddPostToCollection(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		PostID uint `json:"post_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.PostID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("post_id is required"))
	}

	// Membership is by reference; the post must exist at add time even
	// though it may be deleted later.
	if _, err := s.postRepo.GetByID(c.Context(), req.PostID); err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Post", req.PostID))
	}

	collection, err := s.collectionRepo.AddPost(c.Context(), id, userID, req.PostID)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.resolveCollectionPosts(c, collection); err != nil {
		return respondError(c, err)
	}

	return respondData(c, fiber.StatusOK, collection)
}

// RemovePostFromCollection handles POST /api/v1/collections/:id/remove.
// Removing a post that is not a member succeeds without change.
func (s *Server) RemovePostFromCollection(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		PostID uint `json:"post_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.PostID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("post_id is required"))
	}

	collection, err := s.collectionRepo.RemovePost(c.Context(), id, userID, req.PostID)
	if err != nil {
		return respondError(c, err)
	}
	if err := s.resolveCollectionPosts(c, collection); err != nil {
		return respondError(c, err)
	}

	return respondData(c, fiber.StatusOK, collection)
}

// DeleteCollection handles DELETE /api/v1/collections/:id. Member posts
// are untouched.
func (s *Server) DeleteCollection(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.collectionRepo.Delete(c.Context(), id, userID); err != nil {
		return respondError(c, err)
	}

	return respondData(c, fiber.StatusOK, fiber.Map{"deleted": id})
}

// resolveCollectionPosts fills Collection.Posts from PostIDs, preserving
// membership order and dropping dangling references.
func (s *Server) resolveCollectionPosts(c *fiber.Ctx, collection *models.Collection) error {
	posts, err := s.postRepo.GetByIDs(c.Context(), collection.PostIDs)
	if err != nil {
		return models.NewInternalError(err)
	}

	byID := make(map[uint]models.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}

	resolved := make([]models.Post, 0, len(collection.PostIDs))
	for _, id := range collection.PostIDs {
		if p, ok := byID[id]; ok {
			resolved = append(resolved, p)
		}
	}
	collection.Posts = resolved
	return nil
}
