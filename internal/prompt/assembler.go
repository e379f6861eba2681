package prompt

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"flyergen/internal/domain"
)

// NoStyle is the sentinel style name meaning "do not apply a style preset".
const NoStyle = "No Style"

// DefaultBasePrompt is the fixed quality-control phrase appended to every
// assembled prompt.
const DefaultBasePrompt = "professional flyer design, high quality, sharp details, balanced composition, vibrant colors"

// Assembler builds the final generation prompt from persisted fragments.
// It owns no state beyond its collaborators and never fails: every lookup
// error degrades to the minimal event-context fallback.
type Assembler struct {
	fragments domain.FragmentRepository
	base      string
	logger    zerolog.Logger
}

// NewAssembler wires an assembler with the fragment store and base prompt.
// An empty basePrompt falls back to DefaultBasePrompt.
func NewAssembler(fragments domain.FragmentRepository, basePrompt string, logger zerolog.Logger) *Assembler {
	base := strings.TrimSpace(basePrompt)
	if base == "" {
		base = DefaultBasePrompt
	}
	return &Assembler{fragments: fragments, base: base, logger: logger}
}

// Assemble composes [subject], [event context], [style fragment], [base prompt]
// into a single comma-joined prompt. The output never contains double commas,
// leading/trailing commas, or repeated whitespace.
func (a *Assembler) Assemble(ctx context.Context, subject string, eventType domain.EventType, details map[string]string, styleName string) string {
	segments := []string{strings.TrimSpace(subject)}
	segments = append(segments, a.eventSegment(ctx, eventType, details))
	if style := a.styleSegment(ctx, styleName, details); style != "" {
		segments = append(segments, style)
	}
	segments = append(segments, a.base)
	return Normalize(strings.Join(segments, ", "))
}

// eventSegment resolves the event-type fragment. When the fragment does not
// already mention the minimal event context it is prepended; when the store
// has nothing, the minimal context stands alone.
func (a *Assembler) eventSegment(ctx context.Context, eventType domain.EventType, details map[string]string) string {
	minimal := eventType.DisplayName() + " flyer theme"
	fragment, err := a.fragments.FindActive(ctx, domain.FragmentCategoryEventType, string(eventType))
	if err != nil {
		a.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("prompt: event fragment lookup failed, using fallback")
		return minimal
	}
	if fragment == nil {
		return minimal
	}
	content := applyDetails(fragment.Content, details)
	if strings.Contains(strings.ToLower(content), strings.ToLower(minimal)) {
		return content
	}
	return minimal + ", " + content
}

func (a *Assembler) styleSegment(ctx context.Context, styleName string, details map[string]string) string {
	styleName = strings.TrimSpace(styleName)
	if styleName == "" || strings.EqualFold(styleName, NoStyle) {
		return ""
	}
	fragment, err := a.fragments.FindActive(ctx, domain.FragmentCategoryStylePreset, styleName)
	if err != nil {
		a.logger.Warn().Err(err).Str("style", styleName).Msg("prompt: style fragment lookup failed, omitting style")
		return ""
	}
	if fragment == nil {
		return ""
	}
	return applyDetails(fragment.Content, details)
}

// applyDetails substitutes {key} placeholders in fragment content with the
// caller-provided event details. Unknown placeholders are left untouched.
func applyDetails(content string, details map[string]string) string {
	for key, value := range details {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		content = strings.ReplaceAll(content, "{"+key+"}", value)
	}
	return content
}

// Normalize collapses whitespace and repairs comma punctuation after
// concatenation: no empty segments, no double commas, no leading or trailing
// comma, single spaces only.
func Normalize(prompt string) string {
	parts := strings.Split(prompt, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		cleaned = append(cleaned, strings.Join(fields, " "))
	}
	return strings.Join(cleaned, ", ")
}
