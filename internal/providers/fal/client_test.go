package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestGeneratePayloadAndDownload(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	client := NewClient(Options{
		APIKey:     "test-key",
		HTTPClient: &http.Client{Transport: transport},
	})
	transport.setJSONResponse("/fal-ai/qwen-image", map[string]any{
		"images": []any{
			map[string]any{
				"url":          "https://fal.media/out.png",
				"width":        928,
				"height":       1664,
				"content_type": "image/png",
			},
		},
		"seed":    int64(555),
		"timings": map[string]any{"inference": 2.5},
	})
	transport.setBinaryResponse("https://fal.media/out.png", []byte{0x89, 'P', 'N', 'G'})

	asset, err := client.Generate(context.Background(), ImageRequest{
		Prompt: "Birthday party flyer theme",
		Width:  928,
		Height: 1664,
		Steps:  38,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if asset.Width != 928 || asset.Height != 1664 {
		t.Fatalf("dimensions = %dx%d, want 928x1664", asset.Width, asset.Height)
	}
	if asset.Seed == nil || *asset.Seed != 555 {
		t.Fatalf("seed = %v, want 555", asset.Seed)
	}
	if asset.Inference != 2500*time.Millisecond {
		t.Fatalf("inference = %v, want 2.5s", asset.Inference)
	}

	if got := transport.lastHeader.Get("Authorization"); got != "Key test-key" {
		t.Fatalf("Authorization header = %q", got)
	}
	var payload map[string]any
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	size := payload["image_size"].(map[string]any)
	if size["width"] != float64(928) || size["height"] != float64(1664) {
		t.Fatalf("image_size = %v", size)
	}
	if payload["num_inference_steps"] != float64(38) {
		t.Fatalf("num_inference_steps = %v, want 38", payload["num_inference_steps"])
	}
	if payload["num_images"] != float64(1) {
		t.Fatalf("num_images = %v, want 1", payload["num_images"])
	}
}

func TestGenerateWithoutCredentials(t *testing.T) {
	client := NewClient(Options{})
	if _, err := client.Generate(context.Background(), ImageRequest{Prompt: "x"}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("error = %v, want ErrMissingAPIKey", err)
	}
}

func TestGenerateUpstreamError(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	client := NewClient(Options{
		APIKey:     "test-key",
		HTTPClient: &http.Client{Transport: transport},
	})
	transport.responses["/fal-ai/qwen-image"] = responseStub{
		status: http.StatusUnprocessableEntity,
		header: http.Header{"Content-Type": []string{"application/json"}},
		body:   []byte(`{"detail":"prompt rejected"}`),
	}

	_, err := client.Generate(context.Background(), ImageRequest{Prompt: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", apiErr.Status)
	}
	if apiErr.Message != "prompt rejected" {
		t.Fatalf("message = %q", apiErr.Message)
	}
}

type captureTransport struct {
	responses  map[string]responseStub
	lastBody   []byte
	lastHeader http.Header
}

type responseStub struct {
	status int
	header http.Header
	body   []byte
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodPost {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		c.lastBody = body
		c.lastHeader = req.Header.Clone()
		if stub, ok := c.responses[req.URL.Path]; ok {
			return stub.toResponse(), nil
		}
	}
	if req.Method == http.MethodGet {
		if stub, ok := c.responses[req.URL.String()]; ok {
			return stub.toResponse(), nil
		}
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader("not found")),
	}, nil
}

func (c *captureTransport) setJSONResponse(path string, payload any) {
	body, _ := json.Marshal(payload)
	c.responses[path] = responseStub{
		status: http.StatusOK,
		header: http.Header{"Content-Type": []string{"application/json"}},
		body:   body,
	}
}

func (c *captureTransport) setBinaryResponse(url string, data []byte) {
	c.responses[url] = responseStub{
		status: http.StatusOK,
		header: http.Header{"Content-Type": []string{"image/png"}},
		body:   data,
	}
}

func (s responseStub) toResponse() *http.Response {
	header := http.Header{}
	for k, values := range s.header {
		cloned := make([]string, len(values))
		copy(cloned, values)
		header[k] = cloned
	}
	return &http.Response{
		StatusCode: s.status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(s.body)),
	}
}
