package fal

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
var ErrMissingAPIKey = errors.New("fal: api key is required")

// APIError carries the upstream HTTP status and message for failed calls.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fal: status %d: %s", e.Status, e.Message)
}

// Options configures the fal.ai client hosting the Qwen image model.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs synchronous HTTP calls to a fal.ai hosted model.
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

// ImageAsset is the normalized result from the fal.ai API.
type ImageAsset struct {
	URL       string
	Data      []byte
	Format    string
	Width     int
	Height    int
	Seed      *int64
	Inference time.Duration
}

type generationRequest struct {
	Prompt    string    `json:"prompt"`
	ImageSize imageSize `json:"image_size"`
	Steps     int       `json:"num_inference_steps,omitempty"`
	Seed      *int64    `json:"seed,omitempty"`
	NumImages int       `json:"num_images"`
}

type imageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type generationResponse struct {
	Images []struct {
		URL         string `json:"url"`
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		ContentType string `json:"content_type"`
	} `json:"images"`
	Seed    *int64 `json:"seed"`
	Timings struct {
		Inference float64 `json:"inference"`
	} `json:"timings"`
}

type errorResponse struct {
	Detail any `json:"detail"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://fal.run"
	}
	model := strings.Trim(strings.TrimSpace(opts.Model), "/")
	if model == "" {
		model = "fal-ai/qwen-image"
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

// Model returns the configured model path.
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

// Generate invokes the hosted model once and returns a single image asset.
func (c *Client) Generate(ctx context.Context, req ImageRequest) (*ImageAsset, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("fal: prompt is required")
	}
	payload := generationRequest{
		Prompt:    prompt,
		ImageSize: imageSize{Width: req.Width, Height: req.Height},
		Steps:     req.Steps,
		Seed:      req.Seed,
		NumImages: 1,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("fal: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+c.model, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fal: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Key "+c.key())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fal: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fal: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Detail != nil {
			return nil, &APIError{Status: resp.StatusCode, Message: fmt.Sprint(detail.Detail)}
		}
		return nil, &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}

	var decoded generationResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("fal: decode response: %w", err)
	}
	if len(decoded.Images) == 0 || strings.TrimSpace(decoded.Images[0].URL) == "" {
		return nil, errors.New("fal: empty image url")
	}
	item := decoded.Images[0]
	data, format, err := c.download(ctx, item.URL)
	if err != nil {
		return nil, err
	}
	if item.ContentType != "" {
		format = item.ContentType
	}
	asset := &ImageAsset{
		URL:       item.URL,
		Data:      data,
		Format:    format,
		Width:     item.Width,
		Height:    item.Height,
		Seed:      decoded.Seed,
		Inference: time.Duration(decoded.Timings.Inference * float64(time.Second)),
	}
	c.logger.Debug().
		Str("model", c.model).
		Str("url", item.URL).
		Int("steps", req.Steps).
		Msg("fal: generated image asset")
	return asset, nil
}

func (c *Client) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("fal: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fal: download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", &APIError{Status: resp.StatusCode, Message: "image download failed"}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("fal: read image: %w", err)
	}
	format := resp.Header.Get("Content-Type")
	if format == "" {
		format = "image/png"
	}
	return data, format, nil
}
