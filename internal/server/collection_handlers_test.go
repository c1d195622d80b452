package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"prismic/internal/config"
	"prismic/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newCollectionTestServer(collectionRepo *MockCollectionRepository, postRepo *MockPostRepository) *Server {
	return &Server{
		config: &config.Config{
			JWTSecret: "test_secret",
			Env:       "test",
		},
		collectionRepo: collectionRepo,
		postRepo:       postRepo,
	}
}

// collectionApp registers collection routes with a fixed authenticated user.
func collectionApp(s *Server, asUser uint) *fiber.App {
	app := fiber.New()
	auth := func(c *fiber.Ctx) error {
		c.Locals("userID", asUser)
		return c.Next()
	}
	app.Get("/collections", auth, s.GetCollections)
	app.Post("/collections", auth, s.CreateCollection)
	app.Post("/collections/:id/add", auth, s.AddPostToCollection)
	app.Post("/collections/:id/remove", auth, s.RemovePostFromCollection)
	app.Get("/collections/:id", auth, s.GetCollection)
	app.Delete("/collections/:id", auth, s.DeleteCollection)
	return app
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	assert.NoError(t, err)
	return bytes.NewReader(b)
}

func TestCreateCollection(t *testing.T) {
	t.Run("Defaults to private", func(t *testing.T) {
		collRepo := new(MockCollectionRepository)
		collRepo.On("Create", mock.Anything, mock.MatchedBy(func(col *models.Collection) bool {
			return col.Name == "Moodboard" && col.UserID == 1 && col.IsPrivate && len(col.PostIDs) == 0
		})).Return(nil)

		s := newCollectionTestServer(collRepo, new(MockPostRepository))
		app := collectionApp(s, 1)

		req := httptest.NewRequest(http.MethodPost, "/collections",
			jsonBody(t, map[string]any{"name": "Moodboard"}))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		collRepo.AssertExpectations(t)
	})

	t.Run("Explicit public", func(t *testing.T) {
		collRepo := new(MockCollectionRepository)
		collRepo.On("Create", mock.Anything, mock.MatchedBy(func(col *models.Collection) bool {
			return !col.IsPrivate
		})).Return(nil)

		s := newCollectionTestServer(collRepo, new(MockPostRepository))
		app := collectionApp(s, 1)

		req := httptest.NewRequest(http.MethodPost, "/collections",
			jsonBody(t, map[string]any{"name": "Showcase", "is_private": false}))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		collRepo.AssertExpectations(t)
	})

	t.Run("Missing name", func(t *testing.T) {
		s := newCollectionTestServer(new(MockCollectionRepository), new(MockPostRepository))
		app := collectionApp(s, 1)

		req := httptest.NewRequest(http.MethodPost, "/collections",
			jsonBody(t, map[string]any{}))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAddPostToCollection(t *testing.T) {
	t.Run("Success resolves members in order", func(t *testing.T) {
		postA := models.Post{Name: "A"}
		postA.ID = 10
		postB := models.Post{Name: "B"}
		postB.ID = 12

		collection := &models.Collection{Name: "Favorites", UserID: 1, PostIDs: []uint{10, 12}}
		collection.ID = 5

		collRepo := new(MockCollectionRepository)
		collRepo.On("AddPost", mock.Anything, uint(5), uint(1), uint(12)).Return(collection, nil)

		postRepo := new(MockPostRepository)
		postRepo.On("GetByID", mock.Anything, uint(12)).Return(&postB, nil)
		// GetByIDs may return rows in any order; the handler re-sorts.
		postRepo.On("GetByIDs", mock.Anything, []uint{10, 12}).Return([]models.Post{postB, postA}, nil)

		s := newCollectionTestServer(collRepo, postRepo)
		app := collectionApp(s, 1)

		req := httptest.NewRequest(http.MethodPost, "/collections/5/add",
			jsonBody(t, map[string]any{"post_id": 12}))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var parsed map[string]any
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
		data, _ := parsed["data"].(map[string]any)
		posts, _ := data["posts"].([]any)
		assert.Len(t, posts, 2)
		first, _ := posts[0].(map[string]any)
		assert.Equal(t, "A", first["name"])
		collRepo.AssertExpectations(t)
		postRepo.AssertExpectations(t)
	})

	t.Run("Duplicate membership is a validation error", func(t *testing.T) {
		postB := models.Post{Name: "B"}
		postB.ID = 12

		collRepo := new(MockCollectionRepository)
		collRepo.On("AddPost", mock.Anything, uint(5), uint(1), uint(12)).
			Return(nil, models.NewValidationError("Post already in collection"))

		postRepo := new(MockPostRepository)
		postRepo.On("GetByID", mock.Anything, uint(12)).Return(&postB, nil)

		s := newCollectionTestServer(collRepo, postRepo)
		app := collectionApp(s, 1)

		req := httptest.NewRequest(http.MethodPost, "/collections/5/add",
			jsonBody(t, map[string]any{"post_id": 12}))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var parsed map[string]any
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
		assert.Equal(t, "VALIDATION_ERROR", parsed["code"])
	})

	t.Run("Post must exist at add time", func(t *testing.T) {
		collRepo := new(MockCollectionRepository)
		postRepo := new(MockPostRepository)
		postRepo.On("GetByID", mock.Anything, uint(999)).
			Return(nil, models.NewNotFoundError("Post", 999))

		s := newCollectionTestServer(collRepo, postRepo)
		app := collectionApp(s, 1)

		req := httptest.NewRequest(http.MethodPost, "/collections/5/add",
			jsonBody(t, map[string]any{"post_id": 999}))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		collRepo.AssertNotCalled(t, "AddPost", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRemovePostFromCollection_Idempotent(t *testing.T) {
	collection := &models.Collection{Name: "Favorites", UserID: 1, PostIDs: []uint{10}}
	collection.ID = 5

	collRepo := new(MockCollectionRepository)
	// Repository treats a non-member removal as a no-op success.
	collRepo.On("RemovePost", mock.Anything, uint(5), uint(1), uint(42)).Return(collection, nil)

	postRepo := new(MockPostRepository)
	postA := models.Post{Name: "A"}
	postA.ID = 10
	postRepo.On("GetByIDs", mock.Anything, []uint{10}).Return([]models.Post{postA}, nil)

	s := newCollectionTestServer(collRepo, postRepo)
	app := collectionApp(s, 1)

	req := httptest.NewRequest(http.MethodPost, "/collections/5/remove",
		jsonBody(t, map[string]any{"post_id": 42}))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	collRepo.AssertExpectations(t)
}

func TestGetCollection(t *testing.T) {
	t.Run("Dangling member ids are skipped", func(t *testing.T) {
		collection := &models.Collection{Name: "Favorites", UserID: 1, PostIDs: []uint{10, 11, 12}}
		collection.ID = 5

		postA := models.Post{Name: "A"}
		postA.ID = 10
		postB := models.Post{Name: "B"}
		postB.ID = 12

		collRepo := new(MockCollectionRepository)
		collRepo.On("GetByIDAndOwner", mock.Anything, uint(5), uint(1)).Return(collection, nil)

		postRepo := new(MockPostRepository)
		// Post 11 was deleted; only 10 and 12 come back.
		postRepo.On("GetByIDs", mock.Anything, []uint{10, 11, 12}).Return([]models.Post{postA, postB}, nil)

		s := newCollectionTestServer(collRepo, postRepo)
		app := collectionApp(s, 1)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/collections/5", nil))
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var parsed map[string]any
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
		data, _ := parsed["data"].(map[string]any)
		posts, _ := data["posts"].([]any)
		assert.Len(t, posts, 2)
	})

	t.Run("Someone else's collection is not found", func(t *testing.T) {
		collRepo := new(MockCollectionRepository)
		collRepo.On("GetByIDAndOwner", mock.Anything, uint(5), uint(2)).
			Return(nil, models.NewNotFoundError("Collection", 5))

		s := newCollectionTestServer(collRepo, new(MockPostRepository))
		app := collectionApp(s, 2)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/collections/5", nil))
		assert.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
