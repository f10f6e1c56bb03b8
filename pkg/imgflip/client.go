// Package imgflip is a small client for the imgflip meme API: the template
// catalog (get_memes) and caption rendering (caption_image).
package imgflip

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultBaseURL is the public imgflip API root.
	DefaultBaseURL = "https://api.imgflip.com"

	endpointGetMemes     = "get_memes"
	endpointCaptionImage = "caption_image"
)

// Observer receives one callback per API request. status is the HTTP status
// code as a string, or "error" when the request never produced a response.
type Observer interface {
	ObserveImgflipRequest(endpoint, status string, elapsed time.Duration)
}

// Config holds the credentials and endpoint used by Client.
type Config struct {
	BaseURL  string
	Username string
	Password string
}

// Client talks to the imgflip API. It holds no per-request state and is safe
// for concurrent use.
type Client struct {
	http     *resty.Client
	username string
	password string
	observer Observer
}

// Option customizes a Client.
type Option func(*Client)

// WithObserver attaches a request observer (metrics).
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithUserAgent overrides the User-Agent header sent to imgflip.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if strings.TrimSpace(ua) != "" {
			c.http.SetHeader("User-Agent", ua)
		}
	}
}

// NewClient creates a client for cfg. An empty BaseURL uses DefaultBaseURL.
func NewClient(cfg Config, opts ...Option) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}

	client := resty.New()
	client.SetBaseURL(base)
	client.SetHeader("Accept", "application/json")

	c := &Client{
		http:     client,
		username: cfg.Username,
		password: cfg.Password,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the common imgflip response wrapper. Pointer fields let us
// tell "missing" apart from zero values.
type envelope struct {
	Success      *bool           `json:"success"`
	ErrorMessage string          `json:"error_message"`
	Data         json.RawMessage `json:"data"`
}

// decodeEnvelope validates the wrapper and returns the raw data payload.
func decodeEnvelope(endpoint string, status int, body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, schemaErrorf(endpoint, status, err, "malformed JSON body")
	}
	if env.Success == nil {
		return nil, schemaErrorf(endpoint, status, nil, "missing success flag")
	}
	if !*env.Success {
		reason := strings.TrimSpace(env.ErrorMessage)
		if reason == "" {
			reason = "request reported failure"
		}
		return nil, schemaErrorf(endpoint, status, nil, "%s", reason)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, schemaErrorf(endpoint, status, nil, "missing data object")
	}
	return env.Data, nil
}

func (c *Client) observe(endpoint string, resp *resty.Response, err error, started time.Time) {
	if c.observer == nil {
		return
	}
	status := "error"
	if err == nil && resp != nil {
		status = strconv.Itoa(resp.StatusCode())
	}
	c.observer.ObserveImgflipRequest(endpoint, status, time.Since(started))
}

func requestError(endpoint string, err error) error {
	return fmt.Errorf("imgflip %s: request failed: %w", endpoint, err)
}
