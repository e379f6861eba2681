package image

import (
	"math"
	"strconv"
	"strings"
)

// Empirically tuned compensation constants. Step-driven backends lose
// sharpness on strongly non-square ratios; the literal values come from
// production tuning and are configuration, not derivation.
const (
	stepSkewFactor    = 1.5
	stepSkewThreshold = 1.5
)

// InferenceSteps maps the quality tier to a step count for step-driven
// backends and compensates for distinctly portrait/landscape ratios.
// The result is deterministic for a given (capabilities, quality, ratio).
func InferenceSteps(caps Capabilities, quality Quality, aspectRatio string) int {
	steps := caps.BaseSteps
	switch quality {
	case QualityFast:
		steps = (caps.BaseSteps + 1) / 2
	case QualityHigh:
		steps = caps.MaxSteps
	}
	if AspectSkew(aspectRatio) > stepSkewThreshold {
		steps = int(math.Round(float64(steps) * stepSkewFactor))
	}
	if caps.MaxSteps > 0 && steps > caps.MaxSteps {
		steps = caps.MaxSteps
	}
	if steps < 1 {
		steps = 1
	}
	return steps
}

// AspectSkew returns the larger-to-smaller side ratio for a "W:H" string.
// Unparseable input counts as square (skew 1).
func AspectSkew(aspectRatio string) float64 {
	w, h, ok := ParseAspect(aspectRatio)
	if !ok {
		return 1
	}
	if w > h {
		return float64(w) / float64(h)
	}
	return float64(h) / float64(w)
}

// ParseAspect splits a logical "W:H" ratio into its integer sides.
func ParseAspect(aspectRatio string) (int, int, bool) {
	parts := strings.SplitN(strings.TrimSpace(aspectRatio), ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || w <= 0 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}
