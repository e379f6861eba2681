package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"flyergen/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("huggingface: api key is required")

// APIError carries the upstream HTTP status and message for failed calls.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("huggingface: status %d: %s", e.Status, e.Message)
}

// Options configures the Hugging Face inference client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the Hugging Face serverless inference API.
// The API returns raw image bytes on success and a JSON error body otherwise.
type Client struct {
	mu         sync.RWMutex
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

// ImageRequest captures the provider-native inputs for one generation call.
type ImageRequest struct {
	Prompt string
	Width  int
	Height int
	Steps  int
	Seed   *int64
}

// ImageAsset is the normalized result from the inference API. The API does
// not report dimensions; they are echoed from the request.
type ImageAsset struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

type generationRequest struct {
	Inputs     string           `json:"inputs"`
	Parameters generationParams `json:"parameters"`
}

type generationParams struct {
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Steps  int    `json:"num_inference_steps,omitempty"`
	Seed   *int64 `json:"seed,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			// Cold model loads are slow on the serverless tier.
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co"
	}
	model := strings.Trim(strings.TrimSpace(opts.Model), "/")
	if model == "" {
		model = "black-forest-labs/FLUX.1-schnell"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Model returns the configured model repository path.
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.key() != ""
}

// SetAPIKey replaces the credential, e.g. after a token rotation.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	c.apiKey = strings.TrimSpace(key)
	c.mu.Unlock()
}

func (c *Client) key() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

// Generate invokes the inference API once and returns the image bytes.
func (c *Client) Generate(ctx context.Context, req ImageRequest) (*ImageAsset, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("huggingface: prompt is required")
	}
	payload := generationRequest{
		Inputs: prompt,
		Parameters: generationParams{
			Width:  req.Width,
			Height: req.Height,
			Steps:  req.Steps,
			Seed:   req.Seed,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("huggingface: encode request: %w", err)
	}
	endpoint := c.baseURL + "/models/" + c.model
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("huggingface: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.key())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("huggingface: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("huggingface: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Error != "" {
			return nil, &APIError{Status: resp.StatusCode, Message: detail.Error}
		}
		return nil, &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	if len(raw) == 0 {
		return nil, errors.New("huggingface: empty image body")
	}
	format := resp.Header.Get("Content-Type")
	if format == "" || strings.HasPrefix(format, "application/") {
		format = "image/png"
	}
	c.logger.Debug().
		Str("model", c.model).
		Int("bytes", len(raw)).
		Int("steps", req.Steps).
		Msg("huggingface: generated image asset")
	return &ImageAsset{Data: raw, Format: format, Width: req.Width, Height: req.Height}, nil
}
