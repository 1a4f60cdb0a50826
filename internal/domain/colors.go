package domain

import "time"

// ColorSchemaVersion invalidates cached palettes when the extraction
// algorithm changes shape.
const ColorSchemaVersion = 2

// BusinessColors is the palette derived from a business logo.
type BusinessColors struct {
	Primary      string `json:"primary"`
	PrimaryDark  string `json:"primaryDark"`
	PrimaryLight string `json:"primaryLight"`
	Accent       string `json:"accent"`
	TextColor    string `json:"textColor"`
	IsLightLogo  bool   `json:"isLightLogo"`
}

// DefaultBusinessColors is served whenever extraction fails so theming
// never blocks a page render.
func DefaultBusinessColors() BusinessColors {
	return BusinessColors{
		Primary:      "#2563EB",
		PrimaryDark:  "#1E40AF",
		PrimaryLight: "#60A5FA",
		Accent:       "#F59E0B",
		TextColor:    "#FFFFFF",
		IsLightLogo:  false,
	}
}

// ColorCacheEntry wraps a palette with cache bookkeeping.
type ColorCacheEntry struct {
	Colors        BusinessColors `json:"colors"`
	BusinessID    string         `json:"businessId,omitempty"`
	LogoURLHash   string         `json:"logoUrlHash"`
	SchemaVersion int            `json:"schemaVersion"`
	CachedAt      time.Time      `json:"cachedAt"`
}
