package server

import (
	"errors"
	"net/url"
	"strings"

	"prismic/internal/inference"
	"prismic/internal/models"
	"prismic/internal/readability"

	"github.com/gofiber/fiber/v2"
)

// SummarizeArticle handles POST /api/v1/summary. The caller sends either a
// url (fetched and stripped to readable text) or raw text; the extracted
// text is passed to the summarization model.
func (s *Server) SummarizeArticle(c *fiber.Ctx) error {
	var req struct {
		URL  string `json:"url"`
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	text := strings.TrimSpace(req.Text)
	if text == "" && req.URL == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Either url or text is required"))
	}

	if text == "" {
		if err := validateArticleURL(req.URL); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
		extracted, err := s.extractor.ExtractFromURL(c.Context(), req.URL)
		if err != nil {
			if errors.Is(err, readability.ErrNoContent) {
				return models.RespondWithError(c, fiber.StatusUnprocessableEntity,
					models.NewValidationError("No readable content found at that URL"))
			}
			return models.RespondWithError(c, fiber.StatusBadGateway,
				models.NewUpstreamError("Could not fetch the article", err))
		}
		text = extracted
	}

	summary, err := s.inference.Summarize(c.Context(), text)
	if err != nil {
		switch {
		case errors.Is(err, inference.ErrInputTooShort):
			return models.RespondWithError(c, fiber.StatusUnprocessableEntity,
				models.NewValidationError("Not enough text to summarize"))
		case errors.Is(err, inference.ErrModelLoading):
			return models.RespondWithError(c, fiber.StatusServiceUnavailable,
				models.NewUpstreamError("Summary model is warming up, try again shortly", err))
		default:
			return models.RespondWithError(c, fiber.StatusBadGateway,
				models.NewUpstreamError("Summarization failed", err))
		}
	}

	return respondData(c, fiber.StatusOK, fiber.Map{
		"summary":       summary,
		"original_text": text,
		"model":         inference.SummaryModel,
	})
}

// TranslateText handles POST /api/v1/translate
func (s *Server) TranslateText(c *fiber.Ctx) error {
	var req struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if strings.TrimSpace(req.Text) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("text is required"))
	}

	translated, err := s.inference.Translate(c.Context(), req.Text, req.Language)
	if err != nil {
		if errors.Is(err, inference.ErrModelLoading) {
			return models.RespondWithError(c, fiber.StatusServiceUnavailable,
				models.NewUpstreamError("Translation model is warming up, try again shortly", err))
		}
		return models.RespondWithError(c, fiber.StatusBadGateway,
			models.NewUpstreamError("Translation failed", err))
	}

	return respondData(c, fiber.StatusOK, fiber.Map{
		"translation": translated,
		"language":    inference.LanguageTag(req.Language),
		"model":       inference.TranslationModel,
	})
}

// GetSummaryPosts handles GET /api/v1/summary-posts
func (s *Server) GetSummaryPosts(c *fiber.Ctx) error {
	p := parsePagination(c, 20)

	posts, err := s.summaryRepo.List(c.Context(), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}

	return respondData(c, fiber.StatusOK, posts)
}

// GetSummaryPost handles GET /api/v1/summary-posts/:id
func (s *Server) GetSummaryPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.summaryRepo.GetByID(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return respondData(c, fiber.StatusOK, post)
}

// CreateSummaryPost handles POST /api/v1/summary-posts. The board is
// anonymous: a missing name defaults to "Anonymous".
func (s *Server) CreateSummaryPost(c *fiber.Ctx) error {
	var req struct {
		Content      string `json:"content"`
		Name         string `json:"name"`
		SourceURL    string `json:"source_url"`
		OriginalText string `json:"original_text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if strings.TrimSpace(req.Content) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("content is required"))
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Anonymous"
	}

	post := &models.SummaryPost{
		Content:      req.Content,
		Name:         name,
		SourceURL:    req.SourceURL,
		OriginalText: req.OriginalText,
	}
	if err := s.summaryRepo.Create(c.Context(), post); err != nil {
		return respondError(c, err)
	}

	s.publishFeedEvent(c.Context(), "summary_shared", fiber.Map{
		"id":   post.ID,
		"name": post.Name,
	})

	return respondData(c, fiber.StatusCreated, post)
}

// validateArticleURL rejects URLs the fetcher should never touch.
func validateArticleURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.New("invalid url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("url must use http or https")
	}
	if u.Host == "" {
		return errors.New("url must include a host")
	}
	host := strings.ToLower(u.Hostname())
	if host == "localhost" || host == "127.0.0.1" || host == "::1" ||
		strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".internal") {
		return errors.New("url host is not allowed")
	}
	return nil
}
