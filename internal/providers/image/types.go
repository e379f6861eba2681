package image

import (
	"context"
	"strings"
	"time"
)

// ProviderID identifies a configured backend provider.
type ProviderID string

const (
	ProviderIdeogram    ProviderID = "ideogram"
	ProviderFal         ProviderID = "fal"
	ProviderHuggingFace ProviderID = "huggingface"
	ProviderStability   ProviderID = "stability"
)

// Quality is the coarse caller-facing quality tier. Each adapter maps it to
// the backend's native parameter.
type Quality string

const (
	QualityFast     Quality = "fast"
	QualityStandard Quality = "standard"
	QualityHigh     Quality = "high"
)

// NormalizeQuality sanitizes free-form input into a supported tier.
func NormalizeQuality(raw string) Quality {
	switch Quality(strings.ToLower(strings.TrimSpace(raw))) {
	case QualityFast:
		return QualityFast
	case QualityHigh:
		return QualityHigh
	default:
		return QualityStandard
	}
}

// GenerateRequest describes a normalized request passed to any provider.
// It is constructed once and passed by value through the pipeline.
type GenerateRequest struct {
	Prompt        string
	AspectRatio   string
	Quality       Quality
	Seed          *int64
	RandomizeSeed bool
	UserID        string
	RequestID     string
}

// GenerateResult is the normalized outcome of one generation call. Providers
// that do not report a field return its zero value, never a missing field.
type GenerateResult struct {
	URL      string
	Data     []byte
	MIME     string
	Width    int
	Height   int
	Aspect   string
	Duration time.Duration
	CostUSD  float64
	Provider ProviderID
	Seed     *int64
}

// Capabilities is the static per-provider metadata consulted before any
// network call. One read-only instance per provider.
type Capabilities struct {
	Name          ProviderID
	AspectRatios  []string
	SupportsSeeds bool
	BaseSteps     int
	MaxSteps      int
	Priority      int
}

// SupportsAspect reports whether the logical ratio is in the capability set.
func (c Capabilities) SupportsAspect(ratio string) bool {
	ratio = strings.TrimSpace(ratio)
	for _, supported := range c.AspectRatios {
		if supported == ratio {
			return true
		}
	}
	return false
}

// Generator is the contract implemented by all image provider adapters.
type Generator interface {
	Capabilities() Capabilities
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}
