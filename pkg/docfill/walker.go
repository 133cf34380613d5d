package docfill

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"
)

// fillContext carries the state shared by every part of one fill: the
// resolved inputs, the media payloads accumulated for the repackage step,
// and the non-fatal errors collected along the way.
type fillContext struct {
	cfg    *Config
	values map[string]string
	images map[string]string

	// media maps new zip part names (word/media/...) to their bytes.
	media map[string][]byte
	errs  *MultiError

	// imageCounter numbers inserted images across all parts so media file
	// names and drawing IDs stay unique document-wide.
	imageCounter int
}

// partFill is the fill pass over a single XML part. Relationships are
// per-part in the package, so each part tracks its own collection and
// whether it gained image relationships.
type partFill struct {
	ctx         *fillContext
	rels        *Relationships
	relsChanged bool
}

// fillElements walks a body-level element list, filling paragraphs and
// recursing into tables. Structured-token expansions grow the list, so it
// returns a fresh slice rather than mutating in place.
func (pf *partFill) fillElements(elements []BodyElement) []BodyElement {
	out := make([]BodyElement, 0, len(elements))

	for _, el := range elements {
		switch e := el.(type) {
		case *Paragraph:
			extras := pf.fillParagraph(e)
			out = append(out, e)
			for _, extra := range extras {
				out = append(out, extra)
			}
		case *Table:
			pf.fillTable(e)
			out = append(out, e)
		default:
			out = append(out, el)
		}
	}

	return out
}

// fillTable fills every cell of a table, including nested tables.
func (pf *partFill) fillTable(t *Table) {
	for _, row := range t.Rows {
		for _, cell := range row.Cells {
			cell.Elements = pf.fillElements(cell.Elements)
		}
	}
}

// fillParagraph resolves every placeholder in one paragraph and returns any
// extra paragraphs a structured expansion produced, to be inserted after it.
//
// Matches are applied from the last span backwards: a splice only disturbs
// text at and after its own start offset, so every earlier match's offsets
// stay valid against the rebuilt map. Unresolved placeholders were never
// matched and pass through verbatim.
func (pf *partFill) fillParagraph(p *Paragraph) []*Paragraph {
	cm := buildCharMap(p)
	matches := scanPlaceholders(cm.text, pf.ctx.values, pf.ctx.images)
	if len(matches) == 0 {
		return nil
	}

	// A structured token claims its whole paragraph: the mini-language
	// expansion replaces the paragraph wholesale, so any other placeholders
	// sharing it are discarded with the template text.
	for _, m := range matches {
		if m.Kind == tokenStructured {
			return expandStructuredToken(p, m.Name, pf.ctx.values[m.Name], pf.ctx.cfg)
		}
	}

	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]

		switch m.Kind {
		case tokenValue:
			touched := spliceSpan(p, cm, m.Start, m.End, pf.ctx.values[m.Name])
			normalizeSplicedRuns(p, touched, pf.ctx.cfg)
		case tokenImage:
			run, err := pf.imageRun(m.Name, pf.ctx.images[m.Name])
			if err != nil {
				pf.ctx.errs.Add(NewImageError(m.Name, err))
				continue
			}
			touched := spliceSpan(p, cm, m.Start, m.End, "")
			insertAt := len(p.Children)
			if len(touched) > 0 {
				insertAt = touched[0] + 1
			}
			p.Children = append(p.Children[:insertAt],
				append([]ParagraphChild{run}, p.Children[insertAt:]...)...)
		}

		cm = buildCharMap(p)
	}

	return nil
}

// imageRun decodes an image payload, registers its media part and
// relationship, and returns a run holding the inline drawing. A payload that
// is not valid base64 is an error; bytes whose image metadata cannot be
// decoded are still inserted, at assumed dimensions.
func (pf *partFill) imageRun(token, payload string) (*Run, error) {
	data, err := decodeImagePayload(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payload: %w", err)
	}

	cfg := pf.ctx.cfg
	preferred := preferredImageWidth(token, cfg)

	ext := ".png"
	var fit FitResult
	if meta, format, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		fit = fallbackFit(preferred, cfg.MaxImageWidth, cfg.MaxImageHeight)
		GetLogger().WithField("token", token).Warn("image metadata undecodable, using fallback dimensions")
	} else {
		fit = fitDims(meta.Width, meta.Height, preferred, cfg.MaxImageWidth, cfg.MaxImageHeight)
		ext = imageExtension(format)
	}

	pf.ctx.imageCounter++
	n := pf.ctx.imageCounter

	target := fmt.Sprintf("media/fillImage%d%s", n, ext)
	pf.ctx.media["word/"+target] = data

	relID := addImageRelationship(pf.rels, target)
	pf.relsChanged = true

	return &Run{RawXML: []string{drawingXML(relID, n, token, fit.Width, fit.Height)}}, nil
}

// decodeImagePayload decodes a base64 image payload, tolerating an optional
// data-URI prefix and surrounding whitespace.
func decodeImagePayload(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		if idx := strings.Index(payload, ","); idx != -1 {
			payload = payload[idx+1:]
		}
	}
	return base64.StdEncoding.DecodeString(payload)
}
