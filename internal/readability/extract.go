// Package readability fetches web articles and extracts their readable text.
package readability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	maxArticleChars = 3000
	minBlockChars   = 20
	maxBodyBytes    = 4 << 20
)

// ErrNoContent signals that the page yielded no readable text.
var ErrNoContent = errors.New("no readable content found")

// Extractor fetches a URL and pulls out article text.
type Extractor struct {
	httpClient *http.Client
}

// NewExtractor returns an Extractor with a bounded fetch timeout.
func NewExtractor() *Extractor {
	return &Extractor{
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

// skipElements are removed wholesale: chrome, boilerplate and scripts.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"nav":      true,
	"footer":   true,
	"header":   true,
	"aside":    true,
	"noscript": true,
	"iframe":   true,
}

// keepElements contribute their text when a block is long enough.
var keepElements = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "li": true,
}

// ExtractFromURL fetches the page and returns its readable text, capped at
// the summarization input limit.
func (e *Extractor) ExtractFromURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; PrismicBot/1.0)")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("article fetch returned %d", resp.StatusCode)
	}

	return Extract(io.LimitReader(resp.Body, maxBodyBytes))
}

// Extract parses HTML and returns the concatenated text of content blocks.
func Extract(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var blocks []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skipElements[n.Data] || hasAdsClass(n) {
				return
			}
			if keepElements[n.Data] {
				text := strings.TrimSpace(collectText(n))
				if len(text) > minBlockChars {
					blocks = append(blocks, text)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(blocks) == 0 {
		return "", ErrNoContent
	}

	text := strings.Join(blocks, " ")
	if len(text) > maxArticleChars {
		text = text[:maxArticleChars]
	}
	return text, nil
}

func hasAdsClass(n *html.Node) bool {
	for _, attr := range n.Attr {
		if attr.Key == "class" {
			for _, cls := range strings.Fields(attr.Val) {
				if cls == "ads" || strings.HasPrefix(cls, "ad-") {
					return true
				}
			}
		}
	}
	return false
}

func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
