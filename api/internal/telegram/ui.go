package telegram

import (
	"fmt"
	"sort"
	"strings"

	"travel-planner/api/internal/util"
)

// Telegram caps messages at 4096 characters.
const maxMessageRunes = 3900

func truncate(text string) string {
	cut := util.ClampRunes(text, maxMessageRunes)
	if cut != text {
		return cut + "…"
	}
	return text
}

func formatWeather(place string, w map[string]any) string {
	var b strings.Builder
	b.WriteString("🌤 " + place)
	if t, ok := util.Float(w, "temperature_c"); ok {
		fmt.Fprintf(&b, "\n%.0f°C", t)
	}
	if s, ok := util.String(w, "condition"); ok {
		b.WriteString(", " + s)
	}
	keys := make([]string, 0, len(w))
	for k := range w {
		switch k {
		case "place", "temperature_c", "condition":
		default:
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n%s: %v", strings.ReplaceAll(k, "_", " "), w[k])
	}
	return b.String()
}
