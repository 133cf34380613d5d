package docfill

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// singleSpacing is w:line for single line spacing (240ths of a line).
	singleSpacing = 240
	// hangingIndentTwips is the left and hanging indent for risk entries,
	// 0.25in in the template's measurement unit.
	hangingIndentTwips = 360
	// headerMaxLen bounds how long a sponsor line can be and still look
	// like a section label.
	headerMaxLen = 80
)

var (
	multiNewline = regexp.MustCompile(`\n{3,}`)
	multiSpace   = regexp.MustCompile(` {2,}`)

	// riskFallbackPattern matches a short capitalized label separated from
	// the mitigant text by two or more spaces, for blocks without a tab.
	riskFallbackPattern = regexp.MustCompile(`^([A-Z].{0,59}?) {2,}(\S.*)$`)
)

// sanitizeBlockText normalizes irregular generated text before structural
// parsing: runs of 3+ newlines collapse to exactly 2, runs of 2+ spaces
// collapse to 1, and every line loses leading and trailing whitespace. This
// must run before line splitting, not after, or the blank-line structure
// the expanders key on would be unstable.
func sanitizeBlockText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = multiNewline.ReplaceAllString(s, "\n\n")
	s = multiSpace.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}

// sponsorLineKind tags a sponsor-block line.
type sponsorLineKind int

const (
	sponsorBlank sponsorLineKind = iota
	sponsorHeader
	sponsorBody
)

// classifySponsorLine decides whether a sponsor-block line is a bold header
// or body text. next is the next non-blank line, or empty when there is
// none. The heuristic: a header is shorter than 80 characters, does not end
// in sentence punctuation, contains at least one uppercase letter, and is
// followed either by a line at least 1.5x longer or by a line starting with
// a lowercase letter.
//
// This is a pattern-matching guess, not a grammar; it is kept as a named
// pure function so its boundary behavior stays testable in isolation.
func classifySponsorLine(line, next string) sponsorLineKind {
	if line == "" {
		return sponsorBlank
	}

	if len(line) >= headerMaxLen {
		return sponsorBody
	}
	if strings.HasSuffix(line, ".") || strings.HasSuffix(line, "!") || strings.HasSuffix(line, "?") {
		return sponsorBody
	}

	hasUpper := false
	for _, r := range line {
		if unicode.IsUpper(r) {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return sponsorBody
	}

	if next == "" {
		return sponsorBody
	}
	if float64(len(next)) >= 1.5*float64(len(line)) {
		return sponsorHeader
	}
	if r := []rune(next)[0]; unicode.IsLower(r) {
		return sponsorHeader
	}

	return sponsorBody
}

// expandSponsorBlock materializes a sponsor block as a sequence of
// paragraphs: one per input line, blank lines becoming empty spacer
// paragraphs and header lines set in bold. Every output paragraph gets
// single line spacing and zero space-after.
func expandSponsorBlock(value string, cfg *Config) []*Paragraph {
	lines := strings.Split(sanitizeBlockText(value), "\n")

	paras := make([]*Paragraph, 0, len(lines))
	for i, line := range lines {
		kind := classifySponsorLine(line, nextNonBlank(lines, i))

		para := &Paragraph{
			Properties: &ParagraphProperties{
				Spacing: &LineSpacing{Line: singleSpacing, After: 0},
			},
		}
		if kind != sponsorBlank {
			para.Children = append(para.Children, &Run{
				Properties: canonicalRunProperties(cfg, kind == sponsorHeader),
				Text:       &Text{Content: line},
			})
		}
		paras = append(paras, para)
	}

	return paras
}

// nextNonBlank returns the first non-blank line after index i, or empty.
func nextNonBlank(lines []string, i int) string {
	for _, line := range lines[i+1:] {
		if line != "" {
			return line
		}
	}
	return ""
}

// riskEntry is a parsed risk/mitigant pair; Plain is set when a block
// matched neither the tab form nor the fallback pattern.
type riskEntry struct {
	Name     string
	Mitigant string
	Plain    string
}

// parseRiskBlock parses one blank-line-delimited block of the risk
// mini-language. The primary form is RISK_NAME<TAB>MITIGANT_TEXT; without a
// tab, a short capitalized label followed by two or more spaces is
// accepted; anything else comes back as plain text.
func parseRiskBlock(block string) riskEntry {
	if idx := strings.IndexByte(block, '\t'); idx >= 0 {
		return riskEntry{
			Name:     strings.TrimSpace(block[:idx]),
			Mitigant: strings.TrimSpace(block[idx+1:]),
		}
	}

	if m := riskFallbackPattern.FindStringSubmatch(block); m != nil {
		return riskEntry{
			Name:     strings.TrimSpace(m[1]),
			Mitigant: strings.TrimSpace(m[2]),
		}
	}

	return riskEntry{Plain: block}
}

// expandRiskBlock materializes a risk/mitigant block. Each risk becomes one
// paragraph of three runs (bold risk name, a tab, the mitigant text) with a
// hanging indent and full justification; a blank spacer paragraph separates
// blocks but never trails the last one.
func expandRiskBlock(value string, cfg *Config) []*Paragraph {
	blocks := strings.Split(sanitizeBlockText(value), "\n\n")

	var paras []*Paragraph
	for _, block := range blocks {
		block = strings.TrimSpace(strings.ReplaceAll(block, "\n", " "))
		if block == "" {
			continue
		}

		if len(paras) > 0 {
			paras = append(paras, &Paragraph{
				Properties: &ParagraphProperties{
					Spacing: &LineSpacing{Line: singleSpacing, After: 0},
				},
			})
		}

		entry := parseRiskBlock(block)
		if entry.Plain != "" {
			paras = append(paras, &Paragraph{
				Children: []ParagraphChild{
					&Run{Text: &Text{Content: entry.Plain}},
				},
			})
			continue
		}

		paras = append(paras, &Paragraph{
			Properties: &ParagraphProperties{
				Indent:    &Indent{Left: hangingIndentTwips, Hanging: hangingIndentTwips},
				Alignment: "both",
			},
			Children: []ParagraphChild{
				&Run{
					Properties: canonicalRunProperties(cfg, true),
					Text:       &Text{Content: entry.Name},
				},
				&Run{Tab: true},
				&Run{
					Properties: canonicalRunProperties(cfg, false),
					Text:       &Text{Content: entry.Mitigant},
				},
			},
		})
	}

	return paras
}

// expandStructuredToken rewrites p in place as the first output paragraph
// of the expansion and returns the additional sibling paragraphs to insert
// after it. Reusing the token's own paragraph for the first line keeps any
// in-place references to it valid.
func expandStructuredToken(p *Paragraph, name, value string, cfg *Config) []*Paragraph {
	var paras []*Paragraph
	switch name {
	case TokenSponsorBios:
		paras = expandSponsorBlock(value, cfg)
	case TokenRisksAndMitigants:
		paras = expandRiskBlock(value, cfg)
	}

	if len(paras) == 0 {
		p.Properties = &ParagraphProperties{
			Spacing: &LineSpacing{Line: singleSpacing, After: 0},
		}
		p.Children = nil
		return nil
	}

	p.Properties = paras[0].Properties
	p.Children = paras[0].Children
	return paras[1:]
}
