package nlu

import (
	"context"
	"fmt"
	"strings"

	"github.com/tripbrain-dev/tripbrain/internal/llm"
	"github.com/tripbrain-dev/tripbrain/internal/places"
)

// maxSuggestions caps the generative pool per request.
const maxSuggestions = 20

const suggestSystemPrompt = "You are a travel expert. Given a city/location name, suggest the most popular and must-visit tourist attractions. " +
	"Return ONLY a numbered list of place names, one per line. " +
	"Focus on: famous landmarks, museums, historical sites, parks, monuments, and iconic attractions. " +
	"Do NOT include: hotels, restaurants, shopping malls, or generic places. " +
	"Return 15-20 suggestions maximum."

// SuggestPlaces asks the generator for popular attractions in a location.
// The records carry the city-center coordinates passed in, since the model
// does not produce verified ones.
func (s *Service) SuggestPlaces(ctx context.Context, locationName string, lat, lon float64, count int) ([]places.Record, error) {
	if count <= 0 || count > maxSuggestions {
		count = maxSuggestions
	}

	prompt := fmt.Sprintf("List the top tourist attractions to visit in %s.", locationName)
	out, err := s.gen.Generate(ctx, suggestSystemPrompt, prompt, llm.Options{
		Temperature: 0.3,
		Timeout:     suggestTimeout,
	})
	if err != nil {
		return nil, err
	}

	names := ParseNumberedList(out)
	if len(names) > count {
		names = names[:count]
	}

	records := make([]places.Record, 0, len(names))
	for _, name := range names {
		records = append(records, places.Record{
			ID:       places.NormalizeID(name),
			Name:     name,
			Category: "attraction",
			Lat:      lat,
			Lon:      lon,
			Source:   places.SourceGenerative,
		})
	}
	return records, nil
}

// ParseNumberedList extracts place names from a numbered or dashed list,
// one entry per line.
func ParseNumberedList(text string) []string {
	var names []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		first := line[0]
		if (first < '0' || first > '9') && first != '-' {
			continue
		}
		cleaned := strings.TrimLeft(line, "0123456789.-) ")
		if cleaned != "" {
			names = append(names, cleaned)
		}
	}
	return names
}
