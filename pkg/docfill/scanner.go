package docfill

import "regexp"

// placeholderPattern matches {{NAME}} tokens. Names are uppercase
// alphanumerics and underscores; anything else is not a placeholder.
var placeholderPattern = regexp.MustCompile(`\{\{([A-Z0-9_]+)\}\}`)

// imageTokenPrefix marks tokens whose value is a base64 image payload.
const imageTokenPrefix = "IMAGE_"

// Structured tokens expand into multiple paragraphs from a mini-language
// instead of a single inline replacement.
const (
	TokenSponsorBios       = "SPONSOR_BIOS"
	TokenRisksAndMitigants = "RISKS_AND_MITIGANTS"
)

var structuredTokens = map[string]bool{
	TokenSponsorBios:       true,
	TokenRisksAndMitigants: true,
}

type tokenKind int

const (
	tokenValue tokenKind = iota
	tokenImage
	tokenStructured
)

// placeholderMatch is a resolved placeholder span in logical-text
// coordinates.
type placeholderMatch struct {
	Name  string
	Kind  tokenKind
	Start int
	End   int
}

// scanPlaceholders finds all resolvable placeholder spans in the logical
// text, in ascending start order. Classification precedence: a structured
// token name always resolves to its structured handler; an IMAGE_ token
// resolves only if present in the image map; any other name resolves only if
// present in the value map. Unresolved placeholders are omitted so they stay
// verbatim in the output, which is what makes partial fills possible.
func scanPlaceholders(text string, values, images map[string]string) []placeholderMatch {
	var matches []placeholderMatch

	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(text, -1) {
		name := text[loc[2]:loc[3]]

		var kind tokenKind
		switch {
		case structuredTokens[name]:
			if _, ok := values[name]; !ok {
				continue
			}
			kind = tokenStructured
		case hasImagePrefix(name) && presentIn(images, name):
			kind = tokenImage
		default:
			if _, ok := values[name]; !ok {
				continue
			}
			kind = tokenValue
		}

		matches = append(matches, placeholderMatch{
			Name:  name,
			Kind:  kind,
			Start: loc[0],
			End:   loc[1],
		})
	}

	return matches
}

func hasImagePrefix(name string) bool {
	return len(name) > len(imageTokenPrefix) && name[:len(imageTokenPrefix)] == imageTokenPrefix
}

func presentIn(m map[string]string, name string) bool {
	_, ok := m[name]
	return ok
}
