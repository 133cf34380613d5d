package docfill

// normalizeSplicedRuns applies the template's canonical body font and size
// to every run touched by a value splice, forcing regular weight. Injected
// text stays visually consistent even when the template run it landed in
// carried stray formatting.
//
// Structured-section and image handling set their own formatting and do not
// go through this pass.
func normalizeSplicedRuns(p *Paragraph, touched []int, cfg *Config) {
	for _, idx := range touched {
		if idx < 0 || idx >= len(p.Children) {
			continue
		}
		run, ok := p.Children[idx].(*Run)
		if !ok {
			continue
		}
		run.Properties = &RunProperties{
			Font: cfg.BodyFont,
			Size: cfg.BodySize,
		}
	}
}

// canonicalRunProperties returns run formatting for engine-written text.
func canonicalRunProperties(cfg *Config, bold bool) *RunProperties {
	return &RunProperties{
		Bold: bold,
		Font: cfg.BodyFont,
		Size: cfg.BodySize,
	}
}
