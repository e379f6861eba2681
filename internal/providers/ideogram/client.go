package ideogram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"flyergen/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("ideogram: api key is required")

// APIError carries the upstream HTTP status and message for failed calls.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ideogram: status %d: %s", e.Status, e.Message)
}

// Options configures the Ideogram client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the Ideogram generation API.
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
	Prompt      string
	AspectRatio string
	Model       string
	Seed        *int64
}

// ImageAsset is the normalized result from the Ideogram API.
type ImageAsset struct {
	URL    string
	Data   []byte
	Format string
	Width  int
	Height int
	Seed   *int64
}

type generationRequest struct {
	ImageRequest generationPayload `json:"image_request"`
}

type generationPayload struct {
	Prompt            string `json:"prompt"`
	AspectRatio       string `json:"aspect_ratio"`
	Model             string `json:"model"`
	MagicPromptOption string `json:"magic_prompt_option"`
	Seed              *int64 `json:"seed,omitempty"`
}

type generationResponse struct {
	Created string `json:"created"`
	Data    []struct {
		URL         string `json:"url"`
		Resolution  string `json:"resolution"`
		Seed        int64  `json:"seed"`
		IsImageSafe bool   `json:"is_image_safe"`
	} `json:"data"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 45 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.ideogram.ai"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "V_2"
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

// Model returns the configured default model identifier.
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

// Generate invokes the API once and returns a single downloaded image asset.
func (c *Client) Generate(ctx context.Context, req ImageRequest) (*ImageAsset, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("ideogram: prompt is required")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}
	payload := generationRequest{ImageRequest: generationPayload{
		Prompt:            prompt,
		AspectRatio:       req.AspectRatio,
		Model:             model,
		MagicPromptOption: "OFF",
		Seed:              req.Seed,
	}}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ideogram: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ideogram: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Api-Key", c.key())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ideogram: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ideogram: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil {
			if msg := firstNonEmpty(detail.Error, detail.Message); msg != "" {
				return nil, &APIError{Status: resp.StatusCode, Message: msg}
			}
		}
		return nil, &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}

	var decoded generationResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("ideogram: decode response: %w", err)
	}
	if len(decoded.Data) == 0 || strings.TrimSpace(decoded.Data[0].URL) == "" {
		return nil, errors.New("ideogram: empty image url")
	}
	item := decoded.Data[0]
	data, format, err := c.download(ctx, item.URL)
	if err != nil {
		return nil, err
	}
	width, height := parseResolution(item.Resolution)
	asset := &ImageAsset{URL: item.URL, Data: data, Format: format, Width: width, Height: height}
	if item.Seed != 0 {
		seed := item.Seed
		asset.Seed = &seed
	}
	c.logger.Debug().
		Str("model", model).
		Str("url", item.URL).
		Str("resolution", item.Resolution).
		Msg("ideogram: generated image asset")
	return asset, nil
}

func (c *Client) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("ideogram: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("ideogram: download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", &APIError{Status: resp.StatusCode, Message: "image download failed"}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("ideogram: read image: %w", err)
	}
	format := resp.Header.Get("Content-Type")
	if format == "" {
		format = "image/png"
	}
	return data, format, nil
}

// parseResolution splits "1024x1792" into its sides. Unknown shapes yield zeros.
func parseResolution(res string) (int, int) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(res)), "x", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	width, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0
	}
	return width, height
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
