package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"travel-planner/api/internal/ai"
	"travel-planner/api/internal/util"
)

const (
	summaryMaxWords = 180
	defaultDays     = 3
	maxDays         = 14
	maxInterests    = 10
)

type SummaryInput struct {
	Place string
	LLM   string
}

type Summary struct {
	Place  string `json:"place"`
	Text   string `json:"summary"`
	Cached bool   `json:"cached"`
}

// Summary returns a short history of a place as display text.
func (s *Service) Summary(ctx context.Context, in SummaryInput) (Summary, error) {
	place, err := requirePlace("place", in.Place)
	if err != nil {
		return Summary{}, err
	}
	eng, err := s.engs.GetEngine(in.LLM)
	if err != nil {
		return Summary{}, err
	}

	out := Summary{Place: displayName(place)}
	key := cacheKey(place)
	if v, ok := s.cached(ctx, "summary", key, eng); ok {
		out.Text, out.Cached = v, true
		return out, nil
	}

	raw, err := s.generate(ctx, eng, "summary", map[string]any{
		"Place": place, "MaxWords": summaryMaxWords,
	}, true, nil)
	if err != nil {
		return Summary{}, err
	}
	out.Text = util.StripMarkup(raw)
	if out.Text == "" {
		return Summary{}, ErrNotFound
	}
	s.remember(ctx, "summary", key, eng, out.Text)
	return out, nil
}

type GuideInput struct {
	Place    string
	Question string
	// Image is an optional base64 photo or data: URL.
	Image string
	LLM   string
}

// Guide answers a traveller's question, optionally about a photo.
func (s *Service) Guide(ctx context.Context, in GuideInput) (string, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return "", fmt.Errorf("%w: question is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(question) > maxQuestionRunes {
		return "", fmt.Errorf("%w: question is longer than %d characters", ErrInvalidInput, maxQuestionRunes)
	}
	place := cleanText(in.Place)
	if utf8.RuneCountInString(place) > maxPlaceRunes {
		return "", fmt.Errorf("%w: place is longer than %d characters", ErrInvalidInput, maxPlaceRunes)
	}
	img, err := decodeImage(in.Image)
	if err != nil {
		return "", err
	}
	eng, err := s.engs.GetEngine(in.LLM)
	if err != nil {
		return "", err
	}

	raw, err := s.generate(ctx, eng, "guide", map[string]any{
		"Place": place, "Question": question,
	}, true, img)
	if err != nil {
		return "", err
	}
	answer := util.StripMarkup(raw)
	if answer == "" {
		return "", ErrNotFound
	}
	return answer, nil
}

func decodeImage(s string) (*ai.Image, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	data, hint, err := util.DecodeBase64MaybeDataURL(s)
	if err != nil {
		return nil, fmt.Errorf("%w: image is not valid base64", ErrInvalidInput)
	}
	if len(data) == 0 || len(data) > maxImageBytes {
		return nil, fmt.Errorf("%w: image must be between 1 byte and %d MiB", ErrInvalidInput, maxImageBytes>>20)
	}
	mime := util.PickMIME("", hint, data)
	if !util.IsImageMIME(mime) {
		return nil, fmt.Errorf("%w: unsupported image type %q", ErrInvalidInput, mime)
	}
	return &ai.Image{MIME: mime, Data: data}, nil
}

type GeocodeInput struct {
	Query string
	LLM   string
}

type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Geocode resolves a free-form place to coordinates.
func (s *Service) Geocode(ctx context.Context, in GeocodeInput) (Location, error) {
	query, err := requirePlace("query", in.Query)
	if err != nil {
		return Location{}, err
	}
	eng, err := s.engs.GetEngine(in.LLM)
	if err != nil {
		return Location{}, err
	}

	key := cacheKey(query)
	if v, ok := s.cached(ctx, "geocode", key, eng); ok {
		var loc Location
		if err := json.Unmarshal([]byte(v), &loc); err == nil {
			return loc, nil
		}
	}

	raw, err := s.generate(ctx, eng, "geocode", map[string]any{"Query": query}, false, nil)
	if err != nil {
		return Location{}, err
	}
	loc, ok := narrowLocation(s.extract("geocode", raw), query)
	if !ok {
		return Location{}, ErrNotFound
	}
	if b, err := json.Marshal(loc); err == nil {
		s.remember(ctx, "geocode", key, eng, string(b))
	}
	return loc, nil
}

func narrowLocation(m map[string]any, query string) (Location, bool) {
	lat, okLat := util.Float(m, "lat")
	lon, okLon := util.Float(m, "lon")
	if !okLat || !okLon || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Location{}, false
	}
	name, ok := util.String(m, "name")
	if !ok {
		name = displayName(query)
	}
	return Location{Name: name, Lat: lat, Lon: lon}, true
}

type WeatherInput struct {
	Place string
	LLM   string
}

// Weather asks a search-grounded model for current conditions. The mapping is
// returned as the model produced it once temperature_c is numeric.
func (s *Service) Weather(ctx context.Context, in WeatherInput) (map[string]any, error) {
	place, err := requirePlace("place", in.Place)
	if err != nil {
		return nil, err
	}
	eng, err := s.engs.GetEngine(in.LLM)
	if err != nil {
		return nil, err
	}
	raw, err := s.generate(ctx, eng, "weather", map[string]any{"Place": place}, true, nil)
	if err != nil {
		return nil, err
	}
	m := s.extract("weather", raw)
	if _, ok := util.Float(m, "temperature_c"); !ok {
		return nil, ErrNotFound
	}
	return m, nil
}

type ItineraryInput struct {
	Destination string
	Days        int
	Interests   []string
	LLM         string
}

// Itinerary plans a day-by-day trip. Days outside 1..14 are clamped, 0 means 3.
func (s *Service) Itinerary(ctx context.Context, in ItineraryInput) (map[string]any, error) {
	dest, err := requirePlace("destination", in.Destination)
	if err != nil {
		return nil, err
	}
	days := in.Days
	switch {
	case days <= 0:
		days = defaultDays
	case days > maxDays:
		days = maxDays
	}
	var interests []string
	for _, it := range in.Interests {
		if it = cleanText(it); it != "" && len(interests) < maxInterests {
			interests = append(interests, util.ClampRunes(it, 60))
		}
	}
	eng, err := s.engs.GetEngine(in.LLM)
	if err != nil {
		return nil, err
	}

	raw, err := s.generate(ctx, eng, "itinerary", map[string]any{
		"Destination": dest, "Days": days, "Interests": interests,
	}, false, nil)
	if err != nil {
		return nil, err
	}
	m := s.extract("itinerary", raw)
	plan, ok := m["days"].([]any)
	if !ok || len(plan) == 0 {
		return nil, ErrNotFound
	}
	return m, nil
}
