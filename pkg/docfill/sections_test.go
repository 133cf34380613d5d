package docfill

import "testing"

func TestSanitizeBlockText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "collapses newline runs to two",
			in:   "a\n\n\n\nb",
			want: "a\n\nb",
		},
		{
			name: "collapses space runs to one",
			in:   "a    b",
			want: "a b",
		},
		{
			name: "trims each line",
			in:   " a \n b ",
			want: "a\nb",
		},
		{
			name: "normalizes crlf",
			in:   "a\r\nb",
			want: "a\nb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeBlockText(tt.in); got != tt.want {
				t.Errorf("sanitizeBlockText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClassifySponsorLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		next string
		want sponsorLineKind
	}{
		{
			name: "blank",
			line: "",
			next: "anything",
			want: sponsorBlank,
		},
		{
			name: "name before much longer body line",
			line: "John Smith",
			next: "Founder of Acme Development with twenty years of experience in the sector",
			want: sponsorHeader,
		},
		{
			name: "label before lowercase continuation",
			line: "KEY PRINCIPALS",
			next: "with combined experience across forty closed transactions",
			want: sponsorHeader,
		},
		{
			name: "sentence punctuation means body",
			line: "He founded Acme.",
			next: "Another line of comparable length here",
			want: sponsorBody,
		},
		{
			name: "no uppercase means body",
			line: "thirty years of experience",
			next: "across multiple market cycles and product types in the region",
			want: sponsorBody,
		},
		{
			name: "last line is body",
			line: "Jane Doe",
			next: "",
			want: sponsorBody,
		},
		{
			name: "short uppercase-starting next line means body",
			line: "A capable sponsor group",
			next: "Acme Development",
			want: sponsorBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifySponsorLine(tt.line, tt.next); got != tt.want {
				t.Errorf("classifySponsorLine(%q, %q) = %v, want %v", tt.line, tt.next, got, tt.want)
			}
		})
	}
}

func TestExpandSponsorBlock(t *testing.T) {
	cfg := testConfig()
	value := "John Smith\nFounder of Acme Development with twenty years of experience in the sector.\n\nJane Doe\nShe leads capital markets and investor relations for the sponsor group."

	paras := expandSponsorBlock(value, cfg)

	if len(paras) != 5 {
		t.Fatalf("paragraph count = %d, want 5 (two bios of two lines plus one spacer)", len(paras))
	}

	// Header lines come back bold; body lines regular.
	first := paras[0].Children[0].(*Run)
	if !first.Properties.Bold {
		t.Error("name line must be bold")
	}
	if first.GetText() != "John Smith" {
		t.Errorf("first line text = %q", first.GetText())
	}

	body := paras[1].Children[0].(*Run)
	if body.Properties.Bold {
		t.Error("body line must not be bold")
	}

	// The blank input line becomes an empty spacer paragraph.
	if len(paras[2].Children) != 0 {
		t.Errorf("spacer paragraph has %d children, want 0", len(paras[2].Children))
	}

	for i, p := range paras {
		if p.Properties == nil || p.Properties.Spacing == nil {
			t.Fatalf("paragraph %d missing spacing", i)
		}
		if p.Properties.Spacing.Line != singleSpacing || p.Properties.Spacing.After != 0 {
			t.Errorf("paragraph %d spacing = %+v, want single spacing, zero after", i, p.Properties.Spacing)
		}
	}
}

func TestParseRiskBlock(t *testing.T) {
	tests := []struct {
		name  string
		block string
		want  riskEntry
	}{
		{
			name:  "tab separated",
			block: "Market Risk\tRates may rise over the hold period.",
			want:  riskEntry{Name: "Market Risk", Mitigant: "Rates may rise over the hold period."},
		},
		{
			name:  "double space fallback",
			block: "Market Risk  Rates may rise over the hold period.",
			want:  riskEntry{Name: "Market Risk", Mitigant: "Rates may rise over the hold period."},
		},
		{
			name:  "plain text when nothing matches",
			block: "All remaining risks are described in the appendix.",
			want:  riskEntry{Plain: "All remaining risks are described in the appendix."},
		},
		{
			name:  "lowercase start does not match fallback",
			block: "market risk  rates may rise",
			want:  riskEntry{Plain: "market risk  rates may rise"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseRiskBlock(tt.block); got != tt.want {
				t.Errorf("parseRiskBlock(%q) = %+v, want %+v", tt.block, got, tt.want)
			}
		})
	}
}

func TestExpandRiskBlock(t *testing.T) {
	cfg := testConfig()
	value := "Market Risk\tRates may rise.\n\nConstruction Risk\tDelays possible."

	paras := expandRiskBlock(value, cfg)

	if len(paras) != 3 {
		t.Fatalf("paragraph count = %d, want 3 (risk, spacer, risk)", len(paras))
	}

	risk := paras[0]
	if len(risk.Children) != 3 {
		t.Fatalf("risk paragraph children = %d, want 3 (name, tab, mitigant)", len(risk.Children))
	}

	name := risk.Children[0].(*Run)
	if !name.Properties.Bold || name.GetText() != "Market Risk" {
		t.Errorf("name run = %q bold=%v, want bold %q", name.GetText(), name.Properties.Bold, "Market Risk")
	}
	if tab := risk.Children[1].(*Run); !tab.Tab {
		t.Error("second run must be a tab")
	}
	mit := risk.Children[2].(*Run)
	if mit.Properties.Bold || mit.GetText() != "Rates may rise." {
		t.Errorf("mitigant run = %q bold=%v, want regular %q", mit.GetText(), mit.Properties.Bold, "Rates may rise.")
	}

	if risk.Properties.Indent == nil ||
		risk.Properties.Indent.Left != hangingIndentTwips ||
		risk.Properties.Indent.Hanging != hangingIndentTwips {
		t.Errorf("risk indent = %+v, want hanging indent of %d twips", risk.Properties.Indent, hangingIndentTwips)
	}
	if risk.Properties.Alignment != "both" {
		t.Errorf("risk alignment = %q, want both", risk.Properties.Alignment)
	}

	// Spacer sits between blocks but never after the last one.
	if len(paras[1].Children) != 0 {
		t.Error("middle paragraph must be an empty spacer")
	}
	last := paras[2]
	if len(last.Children) != 3 || last.Children[0].(*Run).GetText() != "Construction Risk" {
		t.Errorf("last paragraph is not the second risk entry")
	}

	// Inner newlines within a block join into one line.
	paras = expandRiskBlock("Market Risk\tRates may\nrise sharply.", cfg)
	if len(paras) != 1 {
		t.Fatalf("paragraph count = %d, want 1", len(paras))
	}
	if got := paras[0].Children[2].(*Run).GetText(); got != "Rates may rise sharply." {
		t.Errorf("joined mitigant = %q", got)
	}
}

func TestExpandStructuredToken(t *testing.T) {
	cfg := testConfig()
	p := &Paragraph{Children: []ParagraphChild{textRun("{{RISKS_AND_MITIGANTS}}")}}

	extras := expandStructuredToken(p, TokenRisksAndMitigants, "Market Risk\tRates may rise.\n\nConstruction Risk\tDelays possible.", cfg)

	// The token's own paragraph becomes the first expansion paragraph.
	if got := p.Children[0].(*Run).GetText(); got != "Market Risk" {
		t.Errorf("rewritten paragraph first run = %q, want %q", got, "Market Risk")
	}
	if len(extras) != 2 {
		t.Errorf("extras = %d, want 2", len(extras))
	}
}

func TestExpandStructuredTokenEmptyValue(t *testing.T) {
	cfg := testConfig()
	p := &Paragraph{Children: []ParagraphChild{textRun("{{SPONSOR_BIOS}}")}}

	extras := expandStructuredToken(p, TokenSponsorBios, "", cfg)

	// An empty value leaves the paragraph itself as a single spacer.
	if len(extras) != 0 {
		t.Errorf("extras = %d, want 0", len(extras))
	}
	if p.GetText() != "" {
		t.Errorf("empty expansion left text %q in the paragraph", p.GetText())
	}
}
