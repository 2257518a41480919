package imagegen

import (
	"strings"

	"assistant-backend/internal/plans"
)

const (
	DefaultAspectRatio = "1:1"
	DefaultStyle       = "realistic"
	defaultSize        = "1024x1024"
	genericStylePhrase = "high quality, "
)

var stylePhrases = map[string]string{
	"realistic": "high quality, photorealistic, detailed, ",
	"cartoon":   "high quality, cartoon style, vibrant colors, ",
	"anime":     "high quality, anime style, detailed illustration, ",
	"artistic":  "high quality, artistic, painterly, ",
	"3d":        "high quality, 3d render, detailed lighting, ",
}

var aspectSizes = map[string]string{
	"1:1":  "1024x1024",
	"16:9": "1792x1024",
	"9:16": "1024x1792",
	"4:3":  "1792x1024",
	"3:4":  "1024x1792",
}

// denyList is a coarse pre-filter; the provider applies its own policy.
var denyList = []string{
	"nsfw",
	"nude",
	"naked",
	"porn",
	"gore",
}

// StylePhrase returns the prefix for style, or the generic prefix.
func StylePhrase(style string) string {
	if phrase, ok := stylePhrases[strings.ToLower(strings.TrimSpace(style))]; ok {
		return phrase
	}
	return genericStylePhrase
}

// TransformPrompt prepends the style phrase to prompt.
func TransformPrompt(prompt, style string) string {
	return StylePhrase(style) + strings.TrimSpace(prompt)
}

// SizeFor maps ratio to an output size. Unknown ratios and ratios the plan
// does not allow map to the square default.
func SizeFor(ratio string, limits plans.PlanLimits) string {
	size, ok := aspectSizes[ratio]
	if !ok || !limits.AllowsAspectRatio(ratio) {
		return defaultSize
	}
	return size
}

// containsProhibited reports whether prompt contains a deny-listed term in any
// letter casing.
func containsProhibited(prompt string) bool {
	lower := strings.ToLower(prompt)
	for _, term := range denyList {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
