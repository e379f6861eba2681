package image

import (
	"fmt"
	"strings"
)

// UnsupportedAspectRatioError reports a request for a ratio outside the
// selected provider's capability set. It is raised before any network call
// and is never silently substituted with a near match.
type UnsupportedAspectRatioError struct {
	Provider  ProviderID
	Ratio     string
	Supported []string
}

func (e *UnsupportedAspectRatioError) Error() string {
	return fmt.Sprintf("image: provider %s does not support aspect ratio %q (supported: %s)",
		e.Provider, e.Ratio, strings.Join(e.Supported, ", "))
}

// GenerationError wraps an upstream transport or HTTP failure with the
// provider id and enough detail for the caller to decide on messaging.
type GenerationError struct {
	Provider ProviderID
	Status   int
	Detail   string
	Err      error
}

func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("image: provider %s generation failed", e.Provider)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
