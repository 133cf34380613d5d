package docfill

import "strings"

// runPos locates one byte of a paragraph's logical text: the index of the
// run inside Paragraph.Children and the byte offset within that run's text.
type runPos struct {
	child int
	off   int
}

// charMap maps a paragraph's logical text onto the runs that produce it.
// It is a disposable view: any structural edit to the run list shifts both
// run indices and offsets, so it must be rebuilt, not patched, after every
// splice.
type charMap struct {
	text string
	pos  []runPos
}

// buildCharMap concatenates the run texts in order and records, for each
// byte of the result, which run and offset it came from.
func buildCharMap(p *Paragraph) *charMap {
	var b strings.Builder
	var pos []runPos

	for i, child := range p.Children {
		run, ok := child.(*Run)
		if !ok || run.Text == nil {
			continue
		}
		content := run.Text.Content
		for j := 0; j < len(content); j++ {
			pos = append(pos, runPos{child: i, off: j})
		}
		b.WriteString(content)
	}

	return &charMap{text: b.String(), pos: pos}
}
