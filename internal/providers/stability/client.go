package stability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"flyergen/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("stability: api key is required")

// APIError carries the upstream HTTP status and message for failed calls.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stability: status %d: %s", e.Status, e.Message)
}

// Options configures the Stability AI client.
type Options struct {
	APIKey         string
	BaseURL        string
	OutputFormat   string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs multipart HTTP calls to the Stability stable-image API.
// On success the API returns the image bytes directly.
type Client struct {
	mu           sync.RWMutex
	apiKey       string
	baseURL      string
	outputFormat string
	httpClient   *http.Client
	logger       *infra.Logger
}

// ImageRequest captures the provider-native inputs for one generation call.
type ImageRequest struct {
	Prompt      string
	AspectRatio string
	Seed        *int64
}

// ImageAsset is the normalized result from the Stability API. Dimensions are
// not reported; the response only carries the bytes and the seed header.
type ImageAsset struct {
	Data   []byte
	Format string
	Seed   *int64
}

type errorResponse struct {
	Name   string   `json:"name"`
	Errors []string `json:"errors"`
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
		baseURL = "https://api.stability.ai"
	}
	outputFormat := strings.TrimSpace(opts.OutputFormat)
	if outputFormat == "" {
		outputFormat = "png"
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
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		outputFormat: outputFormat,
		httpClient:   httpClient,
		logger:       logger,
	}
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

// Generate invokes the stable-image core endpoint once.
func (c *Client) Generate(ctx context.Context, req ImageRequest) (*ImageAsset, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("stability: prompt is required")
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	fields := map[string]string{
		"prompt":        prompt,
		"aspect_ratio":  req.AspectRatio,
		"output_format": c.outputFormat,
	}
	if req.Seed != nil {
		fields["seed"] = strconv.FormatInt(*req.Seed, 10)
	}
	for key, value := range fields {
		if value == "" {
			continue
		}
		if err := form.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("stability: encode form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("stability: close form: %w", err)
	}

	endpoint := c.baseURL + "/v2beta/stable-image/generate/core"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("stability: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.key())
	httpReq.Header.Set("Accept", "image/*")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stability: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("stability: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil && len(detail.Errors) > 0 {
			return nil, &APIError{Status: resp.StatusCode, Message: strings.Join(detail.Errors, "; ")}
		}
		return nil, &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	if len(raw) == 0 {
		return nil, errors.New("stability: empty image body")
	}

	format := resp.Header.Get("Content-Type")
	if format == "" {
		format = "image/" + c.outputFormat
	}
	asset := &ImageAsset{Data: raw, Format: format}
	if header := resp.Header.Get("Seed"); header != "" {
		if seed, err := strconv.ParseInt(header, 10, 64); err == nil {
			asset.Seed = &seed
		}
	}
	c.logger.Debug().
		Str("aspect_ratio", req.AspectRatio).
		Int("bytes", len(raw)).
		Msg("stability: generated image asset")
	return asset, nil
}
