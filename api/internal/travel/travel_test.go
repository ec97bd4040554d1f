package travel

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"travel-planner/api/internal/ai"
	"travel-planner/api/internal/prompt"
	"travel-planner/api/internal/store"
)

type fakeEngine struct {
	out  string
	err  error
	reqs []ai.Request
}

func (f *fakeEngine) Name() string     { return "fake" }
func (f *fakeEngine) GetModel() string { return "fake-1" }
func (f *fakeEngine) Generate(_ context.Context, req ai.Request) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.out, f.err
}

type fakeCache struct {
	rows map[string]string
	err  error
}

func newFakeCache() *fakeCache { return &fakeCache{rows: map[string]string{}} }

func (c *fakeCache) Find(_ context.Context, kind, key, engine, model string, _ time.Duration) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	v, ok := c.rows[kind+"/"+key+"/"+engine+"/"+model]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (c *fakeCache) Upsert(_ context.Context, kind, key, engine, model, answer string) error {
	c.rows[kind+"/"+key+"/"+engine+"/"+model] = answer
	return nil
}

func newTestService(t *testing.T, eng *fakeEngine, opts ...Option) *Service {
	t.Helper()
	prompts, err := prompt.Load("")
	if err != nil {
		t.Fatalf("load prompts: %v", err)
	}
	return New(&ai.Engines{Gemini: eng, Default: "gemini"}, prompts, nil, opts...)
}

func TestSummaryStripsMarkup(t *testing.T) {
	eng := &fakeEngine{out: "```\nHampi was the capital of Vijayanagara [1][2, 3].\n```"}
	s := newTestService(t, eng)

	got, err := s.Summary(context.Background(), SummaryInput{Place: "  hampi  "})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got.Place != "Hampi" || got.Text != "Hampi was the capital of Vijayanagara ." || got.Cached {
		t.Fatalf("unexpected summary %+v", got)
	}
	if len(eng.reqs) != 1 || !eng.reqs[0].Search || !strings.Contains(eng.reqs[0].User, "hampi") {
		t.Fatalf("unexpected request %+v", eng.reqs)
	}
}

func TestSummaryUsesCache(t *testing.T) {
	eng := &fakeEngine{out: "Old port city."}
	cache := newFakeCache()
	s := newTestService(t, eng, WithCache(cache, time.Hour))
	ctx := context.Background()

	if _, err := s.Summary(ctx, SummaryInput{Place: "Kochi"}); err != nil {
		t.Fatalf("summary: %v", err)
	}
	got, err := s.Summary(ctx, SummaryInput{Place: "KOCHI"})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !got.Cached || got.Text != "Old port city." {
		t.Fatalf("expected cached answer, got %+v", got)
	}
	if len(eng.reqs) != 1 {
		t.Fatalf("expected a single upstream call, got %d", len(eng.reqs))
	}
}

func TestSummaryCacheErrorFallsThrough(t *testing.T) {
	eng := &fakeEngine{out: "Fresh."}
	cache := newFakeCache()
	cache.err = errors.New("db down")
	s := newTestService(t, eng, WithCache(cache, time.Hour))

	got, err := s.Summary(context.Background(), SummaryInput{Place: "Goa"})
	if err != nil || got.Text != "Fresh." {
		t.Fatalf("unexpected result %+v %v", got, err)
	}
}

func TestSummaryErrors(t *testing.T) {
	ctx := context.Background()

	s := newTestService(t, &fakeEngine{})
	if _, err := s.Summary(ctx, SummaryInput{Place: " "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := s.Summary(ctx, SummaryInput{Place: strings.Repeat("a", maxPlaceRunes+1)}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for long place, got %v", err)
	}
	if _, err := s.Summary(ctx, SummaryInput{Place: "Goa", LLM: "gpt"}); !errors.Is(err, ai.ErrUnknownEngine) {
		t.Fatalf("expected ErrUnknownEngine, got %v", err)
	}
	if _, err := s.Summary(ctx, SummaryInput{Place: "Goa"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for blocked output, got %v", err)
	}

	boom := errors.New("503")
	s = newTestService(t, &fakeEngine{err: boom})
	_, err := s.Summary(ctx, SummaryInput{Place: "Goa"})
	if !errors.Is(err, ErrUpstream) || !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestGuide(t *testing.T) {
	eng := &fakeEngine{out: "Go early, the light is best at sunrise [4]."}
	s := newTestService(t, eng)

	got, err := s.Guide(context.Background(), GuideInput{Place: "Angkor Wat", Question: "When should I visit?"})
	if err != nil {
		t.Fatalf("guide: %v", err)
	}
	if got != "Go early, the light is best at sunrise ." {
		t.Fatalf("unexpected answer %q", got)
	}
	user := eng.reqs[0].User
	if !strings.Contains(user, "Location: Angkor Wat") || !strings.Contains(user, "Question: When should I visit?") {
		t.Fatalf("unexpected prompt %q", user)
	}
}

func TestGuideWithImage(t *testing.T) {
	eng := &fakeEngine{out: "That is the Stone Chariot."}
	s := newTestService(t, eng)

	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	img := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	if _, err := s.Guide(context.Background(), GuideInput{Question: "What is this?", Image: img}); err != nil {
		t.Fatalf("guide: %v", err)
	}
	if eng.reqs[0].Image == nil || eng.reqs[0].Image.MIME != "image/png" {
		t.Fatalf("expected png image on request, got %+v", eng.reqs[0].Image)
	}

	pdf := base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 not a photo"))
	if _, err := s.Guide(context.Background(), GuideInput{Question: "What is this?", Image: pdf}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for pdf, got %v", err)
	}
	if _, err := s.Guide(context.Background(), GuideInput{Question: "What is this?", Image: "%%%"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad base64, got %v", err)
	}
}

func TestGuideRequiresQuestion(t *testing.T) {
	s := newTestService(t, &fakeEngine{out: "x"})
	if _, err := s.Guide(context.Background(), GuideInput{Place: "Rome"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGeocode(t *testing.T) {
	cases := []struct {
		name string
		out  string
		want Location
		err  error
	}{
		{
			name: "prose and trailing comma",
			out:  `Sure! Here you go: {"name": "Hampi, Karnataka", "lat": 15.335, "lon": 76.46,}`,
			want: Location{Name: "Hampi, Karnataka", Lat: 15.335, Lon: 76.46},
		},
		{
			name: "missing name falls back to query",
			out:  "```json\n{\"lat\": 12.34, \"lon\": 78.9}\n```",
			want: Location{Name: "Hampi", Lat: 12.34, Lon: 78.9},
		},
		{name: "not found text", out: "Location not found", err: ErrNotFound},
		{name: "string coordinates", out: `{"lat": "12.3", "lon": "45.6"}`, err: ErrNotFound},
		{name: "out of range", out: `{"lat": 123, "lon": 45}`, err: ErrNotFound},
		{name: "blocked", out: "", err: ErrNotFound},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := newTestService(t, &fakeEngine{out: c.out})
			got, err := s.Geocode(context.Background(), GeocodeInput{Query: "hampi"})
			if c.err != nil {
				if !errors.Is(err, c.err) {
					t.Fatalf("expected %v, got %v", c.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("geocode: %v", err)
			}
			if got != c.want {
				t.Fatalf("got %+v, expected %+v", got, c.want)
			}
		})
	}
}

func TestGeocodeCachesLocation(t *testing.T) {
	eng := &fakeEngine{out: `{"name": "Lisbon", "lat": 38.72, "lon": -9.14}`}
	s := newTestService(t, eng, WithCache(newFakeCache(), time.Hour))
	ctx := context.Background()

	first, err := s.Geocode(ctx, GeocodeInput{Query: "Lisbon"})
	if err != nil {
		t.Fatalf("geocode: %v", err)
	}
	eng.out = "Location not found"
	second, err := s.Geocode(ctx, GeocodeInput{Query: "lisbon"})
	if err != nil || second != first {
		t.Fatalf("expected cached location, got %+v %v", second, err)
	}
}

func TestWeather(t *testing.T) {
	s := newTestService(t, &fakeEngine{out: `Current conditions [1]: {"place": "Goa", "temperature_c": 31.5, "condition": "humid",}`})
	got, err := s.Weather(context.Background(), WeatherInput{Place: "Goa"})
	if err != nil {
		t.Fatalf("weather: %v", err)
	}
	if got["temperature_c"] != 31.5 || got["condition"] != "humid" {
		t.Fatalf("unexpected weather %v", got)
	}

	s = newTestService(t, &fakeEngine{out: `{"place": "Goa", "temperature_c": "hot"}`})
	if _, err := s.Weather(context.Background(), WeatherInput{Place: "Goa"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestItinerary(t *testing.T) {
	eng := &fakeEngine{out: `{"destination": "Kyoto", "days": [{"day": 1, "title": "Temples"}], "tips": ["buy a bus pass"]}`}
	s := newTestService(t, eng)

	got, err := s.Itinerary(context.Background(), ItineraryInput{
		Destination: "Kyoto", Days: 40, Interests: []string{" temples ", "", "food"},
	})
	if err != nil {
		t.Fatalf("itinerary: %v", err)
	}
	if got["destination"] != "Kyoto" {
		t.Fatalf("unexpected itinerary %v", got)
	}
	user := eng.reqs[0].User
	if !strings.Contains(user, "14-day trip to Kyoto for someone interested in temples, food") {
		t.Fatalf("unexpected prompt %q", user)
	}

	eng.out = `{"destination": "Kyoto", "days": []}`
	if _, err := s.Itinerary(context.Background(), ItineraryInput{Destination: "Kyoto"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty plan, got %v", err)
	}
	if !strings.Contains(eng.reqs[1].User, "3-day trip") {
		t.Fatalf("expected default of 3 days, got %q", eng.reqs[1].User)
	}
}

func TestCacheKeyFoldsCaseAndForm(t *testing.T) {
	// "é" precomposed vs "e" + combining acute
	a := cacheKey(cleanText("Café de Flore"))
	b := cacheKey(cleanText("  CAFE\u0301   de flore "))
	if a != b {
		t.Fatalf("expected equal cache keys")
	}
}
