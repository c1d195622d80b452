// Package inference wraps the Hugging Face hosted inference API for the
// three tasks the application uses: text-to-image, summarization and
// translation.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"prismic/internal/observability"
)

const (
	// ImageModel renders artwork from prompts.
	ImageModel = "stabilityai/stable-diffusion-xl-base-1.0"
	// SummaryModel condenses article text.
	SummaryModel = "facebook/bart-large-cnn"
	// TranslationModel translates between the languages in languageTags.
	TranslationModel = "facebook/mbart-large-50-many-to-many-mmt"

	summaryMaxInputChars     = 3000
	summaryMinInputChars     = 50
	translationMaxInputChars = 1000
)

// ErrModelLoading signals that the hosted model is cold and the caller
// should retry shortly.
var ErrModelLoading = errors.New("model is loading")

// ErrInputTooShort signals that the text is below the minimum the summary
// model produces sensible output for.
var ErrInputTooShort = errors.New("not enough text to summarize")

// Client calls the Hugging Face inference API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a Client against baseURL (usually
// https://api-inference.huggingface.co) authenticating with token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type summaryRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
}

type summaryResponse struct {
	SummaryText string `json:"summary_text"`
}

type translationResponse struct {
	TranslationText string `json:"translation_text"`
}

type imageRequest struct {
	Inputs string `json:"inputs"`
}

type apiError struct {
	Error string `json:"error"`
}

// TextToImage renders the prompt and returns raw image bytes plus the
// response content type.
func (c *Client) TextToImage(ctx context.Context, prompt string) ([]byte, string, error) {
	start := time.Now()
	body, err := json.Marshal(imageRequest{Inputs: prompt})
	if err != nil {
		return nil, "", err
	}

	resp, err := c.do(ctx, ImageModel, body)
	if err != nil {
		observability.InferenceErrors.WithLabelValues("text-to-image", "transport").Inc()
		return nil, "", err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, "text-to-image"); err != nil {
		return nil, "", err
	}

	img, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	observability.ObserveInference("text-to-image", ImageModel, start)

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return img, contentType, nil
}

// Summarize condenses text. Input shorter than the model minimum returns
// ErrInputTooShort; longer input is truncated before being sent.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	if len(text) < summaryMinInputChars {
		return "", ErrInputTooShort
	}
	if len(text) > summaryMaxInputChars {
		text = text[:summaryMaxInputChars]
	}

	start := time.Now()
	body, err := json.Marshal(summaryRequest{
		Inputs: text,
		Parameters: map[string]any{
			"max_length": 130,
			"min_length": 30,
		},
		Options: map[string]any{"wait_for_model": true},
	})
	if err != nil {
		return "", err
	}

	resp, err := c.do(ctx, SummaryModel, body)
	if err != nil {
		observability.InferenceErrors.WithLabelValues("summarization", "transport").Inc()
		return "", err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, "summarization"); err != nil {
		return "", err
	}

	var out []summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode summary response: %w", err)
	}
	if len(out) == 0 {
		return "", errors.New("empty summary response")
	}
	observability.ObserveInference("summarization", SummaryModel, start)
	return out[0].SummaryText, nil
}

// Translate converts text into the target language. language is a
// human-readable name resolved through LanguageTag; unknown names fall
// back to Hindi. Input is truncated to the translation model's limit.
func (c *Client) Translate(ctx context.Context, text, language string) (string, error) {
	if len(text) > translationMaxInputChars {
		text = text[:translationMaxInputChars]
	}

	start := time.Now()
	body, err := json.Marshal(summaryRequest{
		Inputs: text,
		Parameters: map[string]any{
			"src_lang": sourceLanguageTag,
			"tgt_lang": LanguageTag(language),
		},
		Options: map[string]any{"wait_for_model": true},
	})
	if err != nil {
		return "", err
	}

	resp, err := c.do(ctx, TranslationModel, body)
	if err != nil {
		observability.InferenceErrors.WithLabelValues("translation", "transport").Inc()
		return "", err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, "translation"); err != nil {
		return "", err
	}

	var out []translationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode translation response: %w", err)
	}
	if len(out) == 0 {
		return "", errors.New("empty translation response")
	}
	observability.ObserveInference("translation", TranslationModel, start)
	return out[0].TranslationText, nil
}

func (c *Client) do(ctx context.Context, model string, body []byte) (*http.Response, error) {
	url := fmt.Sprintf("%s/models/%s", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(req)
}

func (c *Client) checkStatus(resp *http.Response, task string) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var ae apiError
	_ = json.Unmarshal(raw, &ae)

	if resp.StatusCode == http.StatusServiceUnavailable {
		observability.InferenceErrors.WithLabelValues(task, "model_loading").Inc()
		return ErrModelLoading
	}

	observability.InferenceErrors.WithLabelValues(task, "upstream").Inc()
	if ae.Error != "" {
		return fmt.Errorf("inference API returned %d: %s", resp.StatusCode, ae.Error)
	}
	return fmt.Errorf("inference API returned %d", resp.StatusCode)
}
