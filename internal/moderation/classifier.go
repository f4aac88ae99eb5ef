package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pressmod/backend/internal/models"
	"go.uber.org/zap"
)

// DefaultEndpoint is the Google Cloud Natural Language moderateText endpoint.
const DefaultEndpoint = "https://language.googleapis.com/v1/documents:moderateText"

// Category is one moderation category with its confidence score.
type Category struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Result is a successful classifier outcome: the parsed categories plus the
// raw response body kept for the audit trail.
type Result struct {
	Categories []Category
	Raw        models.JSONMap
}

// FirstOver returns the first category whose confidence is strictly greater
// than threshold. A confidence exactly at the threshold does not match.
func (r *Result) FirstOver(threshold float64) (Category, bool) {
	for _, cat := range r.Categories {
		if cat.Confidence > threshold {
			return cat, true
		}
	}
	return Category{}, false
}

// Classifier screens comment text for unsafe content.
type Classifier interface {
	Moderate(ctx context.Context, content string) (*Result, error)
}

// GoogleClassifier calls the Cloud Natural Language moderateText API over
// plain HTTP with a bearer token from the credential chain.
type GoogleClassifier struct {
	endpoint string
	tokens   TokenProvider
	client   *http.Client
	logger   *zap.Logger
}

// NewGoogleClassifier builds a classifier bound by timeout. A zero timeout
// defaults to 10 seconds.
func NewGoogleClassifier(endpoint string, tokens TokenProvider, timeout time.Duration, logger *zap.Logger) *GoogleClassifier {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleClassifier{
		endpoint: endpoint,
		tokens:   tokens,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type moderateRequest struct {
	Document struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	} `json:"document"`
}

type moderateResponse struct {
	ModerationCategories []Category `json:"moderationCategories"`
}

// Moderate posts the comment text to the moderateText endpoint and parses
// the category scores. Any failure (unresolvable credentials, transport
// error, non-2xx status, malformed payload) is returned to the caller, who
// decides whether to fall back.
func (g *GoogleClassifier) Moderate(ctx context.Context, content string) (*Result, error) {
	token, err := g.tokens.Token(ctx)
	if err != nil {
		// Fail fast: no point in an HTTP roundtrip without credentials.
		return nil, fmt.Errorf("resolving classifier credentials: %w", err)
	}

	var payload moderateRequest
	payload.Document.Type = "PLAIN_TEXT"
	payload.Document.Content = content
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding moderate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building moderate request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling moderate endpoint: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading moderate response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.logger.Warn("classifier returned non-2xx status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw))
		return nil, fmt.Errorf("moderate endpoint returned status %d", resp.StatusCode)
	}

	var parsed moderateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decoding moderate response: %w", err)
	}

	var rawMap models.JSONMap
	if err := json.Unmarshal(raw, &rawMap); err != nil {
		return nil, fmt.Errorf("decoding moderate response body: %w", err)
	}

	return &Result{Categories: parsed.ModerationCategories, Raw: rawMap}, nil
}
