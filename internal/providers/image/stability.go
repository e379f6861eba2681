package image

import (
	"bytes"
	"context"
	"errors"
	stdimage "image"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"flyergen/internal/providers/stability"
)

type stabilityClient interface {
	Generate(ctx context.Context, req stability.ImageRequest) (*stability.ImageAsset, error)
	HasCredentials() bool
}

const stabilityCostPerImage = 0.03

// StabilityGenerator adapts the stable-image core endpoint to the Generator
// contract. The backend takes the logical ratio verbatim and exposes no step
// parameter, so the quality tier does not change the call.
type StabilityGenerator struct {
	client stabilityClient
}

func NewStabilityGenerator(client stabilityClient) *StabilityGenerator {
	return &StabilityGenerator{client: client}
}

func (g *StabilityGenerator) Capabilities() Capabilities {
	return Capabilities{
		Name:          ProviderStability,
		AspectRatios:  []string{"1:1", "16:9", "9:16", "4:3", "3:4", "21:9", "9:21"},
		SupportsSeeds: true,
		Priority:      20,
	}
}

func (g *StabilityGenerator) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	caps := g.Capabilities()
	if !caps.SupportsAspect(req.AspectRatio) {
		return nil, &UnsupportedAspectRatioError{Provider: caps.Name, Ratio: req.AspectRatio, Supported: caps.AspectRatios}
	}
	seed := ResolveSeed(req)

	start := time.Now()
	asset, err := g.client.Generate(ctx, stability.ImageRequest{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		Seed:        seed,
	})
	if err != nil {
		var apiErr *stability.APIError
		if errors.As(err, &apiErr) {
			return nil, &GenerationError{Provider: caps.Name, Status: apiErr.Status, Detail: apiErr.Message}
		}
		return nil, &GenerationError{Provider: caps.Name, Err: err}
	}
	// The API reports no dimensions; sniff them from the bytes.
	var width, height int
	if cfg, _, err := stdimage.DecodeConfig(bytes.NewReader(asset.Data)); err == nil {
		width, height = cfg.Width, cfg.Height
	}
	seedUsed := asset.Seed
	if seedUsed == nil {
		seedUsed = seed
	}
	return &GenerateResult{
		Data:     asset.Data,
		MIME:     asset.Format,
		Width:    width,
		Height:   height,
		Aspect:   req.AspectRatio,
		Duration: time.Since(start),
		CostUSD:  stabilityCostPerImage,
		Provider: caps.Name,
		Seed:     seedUsed,
	}, nil
}

var _ Generator = (*StabilityGenerator)(nil)
