package image

import (
	"context"
	"errors"
	"time"

	"flyergen/internal/providers/fal"
)

type falClient interface {
	Generate(ctx context.Context, req fal.ImageRequest) (*fal.ImageAsset, error)
	HasCredentials() bool
}

type falSize struct {
	width  int
	height int
}

// DashScope-native sizes for the hosted Qwen image model.
var falSizes = map[string]falSize{
	"1:1":  {1328, 1328},
	"16:9": {1664, 928},
	"9:16": {928, 1664},
	"4:3":  {1472, 1104},
	"3:4":  {1104, 1472},
}

const falCostPerImage = 0.02

// FalGenerator adapts the fal.ai hosted Qwen model to the Generator contract.
// It is step-driven, so quality compensation applies at skewed ratios.
type FalGenerator struct {
	client falClient
}

func NewFalGenerator(client falClient) *FalGenerator {
	return &FalGenerator{client: client}
}

func (g *FalGenerator) Capabilities() Capabilities {
	return Capabilities{
		Name:          ProviderFal,
		AspectRatios:  []string{"1:1", "16:9", "9:16", "4:3", "3:4"},
		SupportsSeeds: true,
		BaseSteps:     25,
		MaxSteps:      50,
		Priority:      30,
	}
}

func (g *FalGenerator) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	caps := g.Capabilities()
	size, ok := falSizes[req.AspectRatio]
	if !ok {
		return nil, &UnsupportedAspectRatioError{Provider: caps.Name, Ratio: req.AspectRatio, Supported: caps.AspectRatios}
	}
	steps := InferenceSteps(caps, req.Quality, req.AspectRatio)
	seed := ResolveSeed(req)

	start := time.Now()
	asset, err := g.client.Generate(ctx, fal.ImageRequest{
		Prompt: req.Prompt,
		Width:  size.width,
		Height: size.height,
		Steps:  steps,
		Seed:   seed,
	})
	if err != nil {
		var apiErr *fal.APIError
		if errors.As(err, &apiErr) {
			return nil, &GenerationError{Provider: caps.Name, Status: apiErr.Status, Detail: apiErr.Message}
		}
		return nil, &GenerationError{Provider: caps.Name, Err: err}
	}
	duration := asset.Inference
	if duration <= 0 {
		duration = time.Since(start)
	}
	width, height := asset.Width, asset.Height
	if width == 0 || height == 0 {
		width, height = size.width, size.height
	}
	seedUsed := asset.Seed
	if seedUsed == nil {
		seedUsed = seed
	}
	return &GenerateResult{
		URL:      asset.URL,
		Data:     asset.Data,
		MIME:     asset.Format,
		Width:    width,
		Height:   height,
		Aspect:   req.AspectRatio,
		Duration: duration,
		CostUSD:  falCostPerImage,
		Provider: caps.Name,
		Seed:     seedUsed,
	}, nil
}

var _ Generator = (*FalGenerator)(nil)
