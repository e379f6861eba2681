package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"flyergen/internal/domain"
	"flyergen/internal/prompt"
	"flyergen/internal/providers/image"
	"flyergen/internal/storage"
)

// DefaultAspectRatio is applied when the caller omits the ratio.
const DefaultAspectRatio = "1:1"

// Params describes one flyer generation request as received from the API
// layer.
type Params struct {
	Prompt        string
	EventType     domain.EventType
	EventDetails  map[string]string
	Style         string
	AspectRatio   string
	Quality       image.Quality
	Seed          *int64
	RandomizeSeed bool
	Provider      image.ProviderID
	UserID        string
	RequestID     string
}

// Result is returned to the API layer after the asset has been persisted.
type Result struct {
	AssetID    string
	StorageKey string
	Provider   image.ProviderID
	Width      int
	Height     int
	Aspect     string
	Seed       *int64
	CostUSD    float64
	Duration   time.Duration
	Prompt     string
}

// Service composes prompt assembly, provider selection, generation, object
// storage, and asset persistence into the single entry point the rest of
// the application calls.
type Service struct {
	registry  *image.Registry
	assembler *prompt.Assembler
	store     storage.ObjectStore
	assets    domain.AssetRepository
	logger    zerolog.Logger
}

// NewService wires the generation pipeline.
func NewService(registry *image.Registry, assembler *prompt.Assembler, store storage.ObjectStore, assets domain.AssetRepository, logger zerolog.Logger) *Service {
	return &Service{registry: registry, assembler: assembler, store: store, assets: assets, logger: logger}
}

// GenerateFlyer runs the full pipeline for one request. Validation errors
// (no provider, unsupported ratio) are returned before any network call.
func (s *Service) GenerateFlyer(ctx context.Context, params Params) (*Result, error) {
	if strings.TrimSpace(params.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrInvalidRequest)
	}
	aspect := strings.TrimSpace(params.AspectRatio)
	if aspect == "" {
		aspect = DefaultAspectRatio
	}
	requestID := strings.TrimSpace(params.RequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	finalPrompt := s.assembler.Assemble(ctx, params.Prompt, params.EventType, params.EventDetails, params.Style)

	gen, err := s.registry.Select(params.Provider)
	if err != nil {
		return nil, err
	}
	caps := gen.Capabilities()
	if !caps.SupportsAspect(aspect) {
		return nil, &image.UnsupportedAspectRatioError{Provider: caps.Name, Ratio: aspect, Supported: caps.AspectRatios}
	}

	res, err := gen.Generate(ctx, image.GenerateRequest{
		Prompt:        finalPrompt,
		AspectRatio:   aspect,
		Quality:       params.Quality,
		Seed:          params.Seed,
		RandomizeSeed: params.RandomizeSeed,
		UserID:        params.UserID,
		RequestID:     requestID,
	})
	if err != nil {
		return nil, err
	}

	assetID := uuid.NewString()
	key, err := s.store.Upload(ctx, "flyers/"+assetID+extensionFor(res.MIME), res.Data, res.MIME)
	if err != nil {
		return nil, fmt.Errorf("generate: store asset: %w", err)
	}

	asset := &domain.FlyerAsset{
		ID:         assetID,
		UserID:     params.UserID,
		StorageKey: key,
		MIME:       res.MIME,
		Width:      res.Width,
		Height:     res.Height,
		Aspect:     aspect,
		Provider:   string(res.Provider),
		Seed:       res.Seed,
		CostUSD:    res.CostUSD,
		Duration:   res.Duration,
	}
	if err := s.assets.Save(ctx, asset); err != nil {
		return nil, fmt.Errorf("generate: persist asset: %w", err)
	}

	s.logger.Info().
		Str("request_id", requestID).
		Str("provider", string(res.Provider)).
		Str("aspect_ratio", aspect).
		Dur("duration", res.Duration).
		Float64("cost_usd", res.CostUSD).
		Msg("generate: flyer produced")

	return &Result{
		AssetID:    assetID,
		StorageKey: key,
		Provider:   res.Provider,
		Width:      res.Width,
		Height:     res.Height,
		Aspect:     aspect,
		Seed:       res.Seed,
		CostUSD:    res.CostUSD,
		Duration:   res.Duration,
		Prompt:     finalPrompt,
	}, nil
}

func extensionFor(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
