package image

import (
	"context"
	"errors"
	"time"

	"flyergen/internal/providers/ideogram"
)

type ideogramClient interface {
	Generate(ctx context.Context, req ideogram.ImageRequest) (*ideogram.ImageAsset, error)
	HasCredentials() bool
}

var ideogramAspects = map[string]string{
	"1:1":   "ASPECT_1_1",
	"16:9":  "ASPECT_16_9",
	"9:16":  "ASPECT_9_16",
	"4:3":   "ASPECT_4_3",
	"3:4":   "ASPECT_3_4",
	"16:10": "ASPECT_16_10",
	"10:16": "ASPECT_10_16",
}

const ideogramCostPerImage = 0.08

// IdeogramGenerator adapts the Ideogram client to the Generator contract.
type IdeogramGenerator struct {
	client ideogramClient
}

func NewIdeogramGenerator(client ideogramClient) *IdeogramGenerator {
	return &IdeogramGenerator{client: client}
}

func (g *IdeogramGenerator) Capabilities() Capabilities {
	return Capabilities{
		Name:          ProviderIdeogram,
		AspectRatios:  []string{"1:1", "16:9", "9:16", "4:3", "3:4", "16:10", "10:16"},
		SupportsSeeds: true,
		Priority:      40,
	}
}

func (g *IdeogramGenerator) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	caps := g.Capabilities()
	token, ok := ideogramAspects[req.AspectRatio]
	if !ok {
		return nil, &UnsupportedAspectRatioError{Provider: caps.Name, Ratio: req.AspectRatio, Supported: caps.AspectRatios}
	}
	model := "V_2"
	if req.Quality == QualityFast {
		model = "V_2_TURBO"
	}
	seed := ResolveSeed(req)

	start := time.Now()
	asset, err := g.client.Generate(ctx, ideogram.ImageRequest{
		Prompt:      req.Prompt,
		AspectRatio: token,
		Model:       model,
		Seed:        seed,
	})
	if err != nil {
		var apiErr *ideogram.APIError
		if errors.As(err, &apiErr) {
			return nil, &GenerationError{Provider: caps.Name, Status: apiErr.Status, Detail: apiErr.Message}
		}
		return nil, &GenerationError{Provider: caps.Name, Err: err}
	}
	seedUsed := asset.Seed
	if seedUsed == nil {
		seedUsed = seed
	}
	return &GenerateResult{
		URL:      asset.URL,
		Data:     asset.Data,
		MIME:     asset.Format,
		Width:    asset.Width,
		Height:   asset.Height,
		Aspect:   req.AspectRatio,
		Duration: time.Since(start),
		CostUSD:  ideogramCostPerImage,
		Provider: caps.Name,
		Seed:     seedUsed,
	}, nil
}

var _ Generator = (*IdeogramGenerator)(nil)
