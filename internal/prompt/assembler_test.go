package prompt

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"flyergen/internal/domain"
)

type fakeFragmentRepo struct {
	fragments map[string]*domain.PromptFragment
	err       error
}

func (f *fakeFragmentRepo) FindActive(_ context.Context, category, subcategory string) (*domain.PromptFragment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.fragments[category+"/"+subcategory], nil
}

func discardLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestAssembleEmptyStoreFallsBackToMinimalContext(t *testing.T) {
	a := NewAssembler(&fakeFragmentRepo{}, "", discardLogger())
	got := a.Assemble(context.Background(), "sunset party", domain.EventCorporate, nil, NoStyle)

	if !strings.Contains(got, "Corporate event flyer theme") {
		t.Fatalf("prompt missing event context: %q", got)
	}
	if !strings.Contains(got, DefaultBasePrompt) {
		t.Fatalf("prompt missing base prompt: %q", got)
	}
	if strings.Contains(got, "undefined") || strings.Contains(got, "null") {
		t.Fatalf("prompt contains placeholder text: %q", got)
	}
}

func TestAssembleStoreErrorDegradesWithoutFailing(t *testing.T) {
	a := NewAssembler(&fakeFragmentRepo{err: errors.New("db down")}, "base prompt", discardLogger())
	got := a.Assemble(context.Background(), "gala night", domain.EventWedding, nil, "Art Deco")

	if !strings.Contains(got, "Wedding flyer theme") {
		t.Fatalf("prompt missing fallback context: %q", got)
	}
	if !strings.HasSuffix(got, "base prompt") {
		t.Fatalf("prompt missing base prompt: %q", got)
	}
}

func TestAssemblePrependsContextWhenFragmentLacksIt(t *testing.T) {
	repo := &fakeFragmentRepo{fragments: map[string]*domain.PromptFragment{
		"event_type/BIRTHDAY": {Content: "balloons and confetti, cheerful mood"},
	}}
	a := NewAssembler(repo, "base", discardLogger())
	got := a.Assemble(context.Background(), "", domain.EventBirthday, nil, "")

	want := "Birthday flyer theme, balloons and confetti, cheerful mood, base"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestAssembleKeepsFragmentVerbatimWhenContextPresent(t *testing.T) {
	repo := &fakeFragmentRepo{fragments: map[string]*domain.PromptFragment{
		"event_type/CONCERT": {Content: "electric Concert flyer theme with neon stage lights"},
	}}
	a := NewAssembler(repo, "base", discardLogger())
	got := a.Assemble(context.Background(), "", domain.EventConcert, nil, "")

	if strings.Count(strings.ToLower(got), "concert flyer theme") != 1 {
		t.Fatalf("event context duplicated: %q", got)
	}
}

func TestAssembleStyleFragmentAppendedAndNoStyleOmitted(t *testing.T) {
	repo := &fakeFragmentRepo{fragments: map[string]*domain.PromptFragment{
		"style_preset/Vintage": {Content: "retro palette, grainy texture"},
	}}
	a := NewAssembler(repo, "base", discardLogger())

	withStyle := a.Assemble(context.Background(), "launch", domain.EventParty, nil, "Vintage")
	if !strings.Contains(withStyle, "retro palette, grainy texture") {
		t.Fatalf("style fragment missing: %q", withStyle)
	}

	noStyle := a.Assemble(context.Background(), "launch", domain.EventParty, nil, NoStyle)
	if strings.Contains(noStyle, "retro") {
		t.Fatalf("style applied despite sentinel: %q", noStyle)
	}

	unknownStyle := a.Assemble(context.Background(), "launch", domain.EventParty, nil, "Missing")
	if strings.Contains(unknownStyle, "Missing") {
		t.Fatalf("absent style must be omitted, not echoed: %q", unknownStyle)
	}
}

func TestAssembleAppliesEventDetails(t *testing.T) {
	repo := &fakeFragmentRepo{fragments: map[string]*domain.PromptFragment{
		"event_type/FESTIVAL": {Content: "open-air festival at {venue}"},
	}}
	a := NewAssembler(repo, "base", discardLogger())
	got := a.Assemble(context.Background(), "", domain.EventFestival, map[string]string{"venue": "the waterfront"}, "")

	if !strings.Contains(got, "open-air festival at the waterfront") {
		t.Fatalf("details not substituted: %q", got)
	}
}

var punctuationRe = regexp.MustCompile(`(^,)|(,,)|(,\s*$)|(\s{2})|(\s,)`)

func TestAssemblePunctuationInvariant(t *testing.T) {
	repo := &fakeFragmentRepo{fragments: map[string]*domain.PromptFragment{
		"event_type/PARTY":      {Content: " , messy fragment,,  with   spaces , "},
		"style_preset/Sloppy":   {Content: ",leading comma style "},
		"event_type/CONFERENCE": {Content: ""},
	}}
	a := NewAssembler(repo, "base", discardLogger())

	cases := []struct {
		subject string
		event   domain.EventType
		style   string
	}{
		{"", domain.EventParty, "Sloppy"},
		{"  spaced   subject  ", domain.EventConference, ""},
		{",", domain.EventOther, NoStyle},
	}
	for _, tc := range cases {
		got := a.Assemble(context.Background(), tc.subject, tc.event, nil, tc.style)
		if got == "" {
			t.Fatalf("empty prompt for %+v", tc)
		}
		if punctuationRe.MatchString(got) {
			t.Fatalf("malformed punctuation in %q", got)
		}
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"a, b, c", "a, b, c"},
		{",a,,b,  ,c,", "a, b, c"},
		{"  lots   of   space  ", "lots of space"},
		{", ,", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
