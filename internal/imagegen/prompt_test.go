package imagegen

import (
	"testing"

	"assistant-backend/internal/plans"
)

func TestStylePhrase(t *testing.T) {
	tests := map[string]string{
		"realistic":     "high quality, photorealistic, detailed, ",
		"cartoon":       "high quality, cartoon style, vibrant colors, ",
		"Anime":         "high quality, anime style, detailed illustration, ",
		"artistic":      "high quality, artistic, painterly, ",
		"3d":            "high quality, 3d render, detailed lighting, ",
		"unknown_style": "high quality, ",
		"":              "high quality, ",
	}
	for style, want := range tests {
		if got := StylePhrase(style); got != want {
			t.Fatalf("StylePhrase(%q) = %q, want %q", style, got, want)
		}
	}
}

func TestSizeFor(t *testing.T) {
	_, proMax := plans.DefaultCatalog().Resolve(plans.ProMax)
	_, free := plans.DefaultCatalog().Resolve(plans.Free)
	tests := []struct {
		ratio  string
		limits plans.PlanLimits
		want   string
	}{
		{"1:1", proMax, "1024x1024"},
		{"16:9", proMax, "1792x1024"},
		{"9:16", proMax, "1024x1792"},
		{"4:3", proMax, "1792x1024"},
		{"3:4", proMax, "1024x1792"},
		{"5:5", proMax, "1024x1024"},
		{"16:9", free, "1024x1024"},
	}
	for _, tt := range tests {
		if got := SizeFor(tt.ratio, tt.limits); got != tt.want {
			t.Fatalf("SizeFor(%q) = %q, want %q", tt.ratio, got, tt.want)
		}
	}
}

func TestContainsProhibited(t *testing.T) {
	if !containsProhibited("Some PoRn here") {
		t.Fatalf("expected match regardless of case")
	}
	if containsProhibited("a quiet harbor at dawn") {
		t.Fatalf("unexpected match")
	}
}
