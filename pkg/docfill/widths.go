package docfill

// DefaultImageWidths maps image token names to their preferred display
// widths in inches. Tokens absent from the table fall back to
// Config.FallbackImageWidth.
var DefaultImageWidths = map[string]float64{
	"IMAGE_SOURCES_USES":          6.5,
	"IMAGE_CAPITAL_STACK_CLOSING": 6.5,
	"IMAGE_LOAN_TO_COST":          6.0,
	"IMAGE_LTV_LTC":               6.0,
	"IMAGE_AERIAL_MAP":            5.0,
	"IMAGE_LOCATION_MAP":          5.0,
	"IMAGE_REGIONAL_MAP":          5.0,
	"IMAGE_SITE_PLAN":             5.5,
	"IMAGE_PILOT_SCHEDULE":        6.0,
	"IMAGE_TAKEOUT_SIZING":        6.0,
}

// preferredImageWidth returns the configured preferred width for an image
// token, in inches.
func preferredImageWidth(token string, cfg *Config) float64 {
	if w, ok := DefaultImageWidths[token]; ok {
		return w
	}
	return cfg.FallbackImageWidth
}
