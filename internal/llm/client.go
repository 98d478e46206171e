package llm

import (
	"context"
	"net/http"
	"time"
)

// Client generates text for a single prompt.
type Client interface {
	// Generate submits prompt and returns the model's raw response text.
	// Failures are returned as *Error.
	Generate(ctx context.Context, prompt string) (string, error)
}

const (
	// DefaultEndpoint is the Gemini generateContent endpoint used when none is configured.
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent"
	// DefaultTimeout bounds a single generation request.
	DefaultTimeout = 60 * time.Second
)

// Decoding parameters sent with every request.
const (
	Temperature      = 0.3
	MaxOutputTokens  = 8192
	TopP             = 0.8
	TopK             = 40
	ResponseMIMEType = "application/json"
)

// Config holds the immutable settings for a generation client.
type Config struct {
	// HTTPClient overrides the transport; nil builds a default client.
	HTTPClient *http.Client
	APIKey     string
	Endpoint   string
	Timeout    time.Duration
	// RequestsPerMinute paces requests client-side; 0 disables pacing.
	RequestsPerMinute int
}

func (c Config) withDefaults() Config {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
