package image

import (
	"context"
	"errors"
	"time"

	"flyergen/internal/providers/huggingface"
)

type huggingFaceClient interface {
	Generate(ctx context.Context, req huggingface.ImageRequest) (*huggingface.ImageAsset, error)
	HasCredentials() bool
}

type hfSize struct {
	width  int
	height int
}

var huggingFaceSizes = map[string]hfSize{
	"1:1":  {1024, 1024},
	"16:9": {1344, 768},
	"9:16": {768, 1344},
}

// HuggingFaceGenerator adapts the serverless inference API to the Generator
// contract. The free tier reports no cost, so CostUSD stays zero.
type HuggingFaceGenerator struct {
	client huggingFaceClient
}

func NewHuggingFaceGenerator(client huggingFaceClient) *HuggingFaceGenerator {
	return &HuggingFaceGenerator{client: client}
}

func (g *HuggingFaceGenerator) Capabilities() Capabilities {
	return Capabilities{
		Name:          ProviderHuggingFace,
		AspectRatios:  []string{"1:1", "16:9", "9:16"},
		SupportsSeeds: true,
		BaseSteps:     30,
		MaxSteps:      50,
		Priority:      10,
	}
}

func (g *HuggingFaceGenerator) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	caps := g.Capabilities()
	size, ok := huggingFaceSizes[req.AspectRatio]
	if !ok {
		return nil, &UnsupportedAspectRatioError{Provider: caps.Name, Ratio: req.AspectRatio, Supported: caps.AspectRatios}
	}
	steps := InferenceSteps(caps, req.Quality, req.AspectRatio)
	seed := ResolveSeed(req)

	start := time.Now()
	asset, err := g.client.Generate(ctx, huggingface.ImageRequest{
		Prompt: req.Prompt,
		Width:  size.width,
		Height: size.height,
		Steps:  steps,
		Seed:   seed,
	})
	if err != nil {
		var apiErr *huggingface.APIError
		if errors.As(err, &apiErr) {
			return nil, &GenerationError{Provider: caps.Name, Status: apiErr.Status, Detail: apiErr.Message}
		}
		return nil, &GenerationError{Provider: caps.Name, Err: err}
	}
	return &GenerateResult{
		Data:     asset.Data,
		MIME:     asset.Format,
		Width:    asset.Width,
		Height:   asset.Height,
		Aspect:   req.AspectRatio,
		Duration: time.Since(start),
		Provider: caps.Name,
		Seed:     seed,
	}, nil
}

var _ Generator = (*HuggingFaceGenerator)(nil)
