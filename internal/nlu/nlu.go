// Package nlu wraps the LLM generator with the three narrow
// natural-language contracts the turn pipeline consumes: location
// extraction, intent classification and generative place suggestions.
package nlu

import (
	"context"
	"strings"
	"time"

	"github.com/tripbrain-dev/tripbrain/internal/llm"
)

// Intent labels a turn's request type.
type Intent string

const (
	IntentWeather Intent = "WEATHER"
	IntentPlaces  Intent = "PLACES"
	IntentBoth    Intent = "BOTH"
	IntentUnknown Intent = "UNKNOWN"
)

const (
	extractTimeout  = 10 * time.Second
	classifyTimeout = 10 * time.Second
	suggestTimeout  = 15 * time.Second

	// Sentinels the prompts instruct the model to return.
	noneSentinel    = "NONE"
	unclearSentinel = "UNCLEAR"
)

// Service implements the NLU contracts on top of an injected Generator.
type Service struct {
	gen llm.Generator
}

// NewService creates an NLU service backed by the given generator.
func NewService(gen llm.Generator) *Service {
	return &Service{gen: gen}
}

const extractSystemPrompt = "You are a location extraction assistant. " +
	"Extract ONLY the city or location name from THIS SPECIFIC message. " +
	"Do NOT consider any previous conversation or context. " +
	"If this message contains a location (city, place, country), return ONLY that location name. " +
	"If this message says 'there', 'suggest more', 'what else', or does NOT explicitly mention a location, return 'NONE'. " +
	"Return ONLY the location name or 'NONE', nothing else."

// ExtractLocation returns the location named in the message, or "" when the
// message carries none. Context resolution is deliberately not done here:
// follow-up turns resolve against session state, not the transcript.
func (s *Service) ExtractLocation(ctx context.Context, message string) (string, error) {
	out, err := s.gen.Generate(ctx, extractSystemPrompt, message, llm.Options{
		Temperature: 0.1,
		Timeout:     extractTimeout,
	})
	if err != nil {
		return "", err
	}

	out = strings.TrimSpace(out)
	if out == "" || strings.EqualFold(out, noneSentinel) {
		return "", nil
	}
	return out, nil
}

const classifySystemPrompt = "You are a travel assistant router. " +
	"Classify the user's intent from THIS SPECIFIC message into exactly one of these categories: " +
	"WEATHER, PLACES, BOTH, UNCLEAR. " +
	"- WEATHER: if explicitly asking about weather, temperature, climate, rain, forecast, etc.\n" +
	"- PLACES: if explicitly asking about places to visit, attractions, things to do, trip planning, etc.\n" +
	"- BOTH: if explicitly asking about both weather AND places together in this message.\n" +
	"- UNCLEAR: if the message uses vague references like 'there', 'more', 'some more', 'what else', 'other places', etc. without being specific.\n" +
	"Do NOT use any previous context. Only analyze THIS message.\n" +
	"Return ONLY the category name: WEATHER, PLACES, BOTH, or UNCLEAR."

// ClassifyIntent labels the message. An unclear or malformed answer maps to
// IntentUnknown; the caller decides the fallback.
func (s *Service) ClassifyIntent(ctx context.Context, message string) (Intent, error) {
	out, err := s.gen.Generate(ctx, classifySystemPrompt, message, llm.Options{
		Temperature: 0.1,
		Timeout:     classifyTimeout,
	})
	if err != nil {
		return IntentUnknown, err
	}

	switch strings.ToUpper(strings.TrimSpace(out)) {
	case string(IntentWeather):
		return IntentWeather, nil
	case string(IntentPlaces):
		return IntentPlaces, nil
	case string(IntentBoth):
		return IntentBoth, nil
	case unclearSentinel:
		return IntentUnknown, nil
	default:
		return IntentUnknown, nil
	}
}

var (
	weatherKeywords = []string{"weather", "temperature", "climate", "rain", "forecast"}
	placesKeywords  = []string{"place", "visit", "attraction", "suggest", "more"}
)

// HeuristicIntent is the keyword fallback used when the classifier is
// unavailable or unsure.
func HeuristicIntent(message string) Intent {
	lower := strings.ToLower(message)
	for _, kw := range weatherKeywords {
		if strings.Contains(lower, kw) {
			return IntentWeather
		}
	}
	for _, kw := range placesKeywords {
		if strings.Contains(lower, kw) {
			return IntentPlaces
		}
	}
	return IntentBoth
}
