package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadBuiltin(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, name := range []string{"summary", "guide", "geocode", "weather", "itinerary"} {
		if _, ok := s.prompts[name]; !ok {
			t.Fatalf("expected built-in prompt %q", name)
		}
	}
}

func TestRenderGeocode(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sys, user, err := s.Render("geocode", map[string]any{"Query": "Hampi"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if sys == "" || !strings.Contains(user, `"Hampi"`) {
		t.Fatalf("unexpected render: %q / %q", sys, user)
	}
}

func TestRenderItineraryJoinsInterests(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	_, user, err := s.Render("itinerary", map[string]any{
		"Days": 3, "Destination": "Lisbon", "Interests": []string{"food", "tiles"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(user, "3-day trip to Lisbon for someone interested in food, tiles") {
		t.Fatalf("unexpected user prompt %q", user)
	}
}

func TestRenderErrors(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, _, err := s.Render("nope", nil); err == nil {
		t.Fatalf("expected error for unknown prompt")
	}
	if _, _, err := s.Render("geocode", map[string]any{}); err == nil {
		t.Fatalf("expected error for missing template key")
	}
}

func TestLoadOverrideFromDir(t *testing.T) {
	dir := t.TempDir()
	body := "system: be terse\nuser: \"Summarize {{.Place}}\"\n"
	if err := os.WriteFile(filepath.Join(dir, "summary.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sys, user, err := s.Render("summary", map[string]any{"Place": "Goa"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if sys != "be terse" || user != "Summarize Goa" {
		t.Fatalf("override not applied: %q / %q", sys, user)
	}
}

func TestLoadRejectsEmptyOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "guide.yaml"), []byte("system: hi\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected error for override without user template")
	}
}
