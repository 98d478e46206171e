package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// GeminiClient implements Client against the Gemini generateContent REST API.
// It is safe for concurrent use; its configuration never changes after construction.
type GeminiClient struct {
	httpClient *http.Client
	limiter    *rateLimiter
	apiKey     string
	endpoint   string
	timeout    time.Duration
}

// Ensure GeminiClient implements Client.
var _ Client = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini client. A missing API key is not an error here:
// it is logged once and every Generate call then fails with KindCredentialMissing.
func NewGeminiClient(cfg Config) (*GeminiClient, error) {
	cfg = cfg.withDefaults()

	if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid Gemini endpoint %q: %w", cfg.Endpoint, err)
	}

	if cfg.APIKey == "" {
		slog.Warn("Gemini API key not configured; analysis requests will fail until GEMINI_API_KEY is set")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	var limiter *rateLimiter
	if cfg.RequestsPerMinute > 0 {
		limiter = newRateLimiter(cfg.RequestsPerMinute)
	}

	return &GeminiClient{
		httpClient: httpClient,
		limiter:    limiter,
		apiKey:     cfg.APIKey,
		endpoint:   cfg.Endpoint,
		timeout:    cfg.Timeout,
	}, nil
}

// geminiResponse is the subset of the generateContent response we read.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// geminiErrorBody is the error envelope returned on non-2xx responses.
type geminiErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Status  string `json:"status"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Generate sends prompt as a single-turn generation request.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", newError(KindCredentialMissing, "", 0, nil)
	}

	if c.limiter != nil {
		if err := c.limiter.wait(ctx); err != nil {
			return "", newError(KindConnectionFailed, err.Error(), 0, err)
		}
	}

	requestBody := map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]any{
			"temperature":      Temperature,
			"maxOutputTokens":  MaxOutputTokens,
			"topP":             TopP,
			"topK":             TopK,
			"responseMimeType": ResponseMIMEType,
		},
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", newError(KindConnectionFailed, fmt.Sprintf("failed to marshal request: %v", err), 0, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.requestURL(), bytes.NewReader(jsonBody))
	if err != nil {
		return "", newError(KindConnectionFailed, fmt.Sprintf("failed to create request: %v", err), 0, err)
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error embeds the request URL, which carries the API key.
		err = stripURL(err)
		return "", newError(KindConnectionFailed, transportDetails(err), 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newError(KindConnectionFailed, fmt.Sprintf("failed to read response: %v", err), resp.StatusCode, err)
	}

	slog.Debug("Gemini response received",
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", classifyStatus(resp.StatusCode, body)
	}

	return extractText(body), nil
}

// requestURL appends the API key as the "key" query parameter.
func (c *GeminiClient) requestURL() string {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return c.endpoint
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String()
}

// classifyStatus maps a non-2xx response onto a failure kind.
func classifyStatus(status int, body []byte) *Error {
	switch status {
	case http.StatusUnauthorized:
		return newError(KindInvalidCredential, "", status, nil)
	case http.StatusTooManyRequests:
		return newError(KindRateLimited, "", status, nil)
	case http.StatusBadRequest:
		return newError(KindInvalidRequest, remoteMessage(body), status, nil)
	default:
		details := fmt.Sprintf("Gemini API error (status %d)", status)
		if msg := remoteMessage(body); msg != "" {
			details = fmt.Sprintf("%s: %s", details, msg)
		}
		return newError(KindConnectionFailed, details, status, nil)
	}
}

// remoteMessage pulls error.message out of an error body when present.
func remoteMessage(body []byte) string {
	var errBody geminiErrorBody
	if err := json.Unmarshal(body, &errBody); err != nil {
		return ""
	}
	return errBody.Error.Message
}

// extractText returns the first candidate's text, or the raw body when that field
// is missing so the caller can still attempt extraction.
func extractText(body []byte) string {
	var response geminiResponse
	if err := json.Unmarshal(body, &response); err != nil {
		slog.Debug("Gemini response is not a generateContent envelope", "error", err)
		return string(body)
	}

	if len(response.Candidates) == 0 ||
		len(response.Candidates[0].Content.Parts) == 0 ||
		response.Candidates[0].Content.Parts[0].Text == nil {
		slog.Warn("Gemini response missing candidate text, passing raw body through",
			"candidates", len(response.Candidates))
		return string(body)
	}

	return *response.Candidates[0].Content.Parts[0].Text
}

func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

func transportDetails(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("request timed out: %v", err)
	}
	return err.Error()
}
