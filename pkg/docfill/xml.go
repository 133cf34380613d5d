package docfill

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// namespaceToPrefix converts a namespace URI to its conventional prefix
func namespaceToPrefix(uri string) string {
	prefixMap := map[string]string{
		// Core Word namespaces
		"http://schemas.openxmlformats.org/wordprocessingml/2006/main":        "w",
		"http://schemas.openxmlformats.org/officeDocument/2006/relationships": "r",
		"http://schemas.openxmlformats.org/officeDocument/2006/math":          "m",
		"http://www.w3.org/XML/1998/namespace":                                "xml",
		// Drawing namespaces
		"http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing": "wp",
		"http://schemas.openxmlformats.org/drawingml/2006/main":                  "a",
		"http://schemas.openxmlformats.org/drawingml/2006/picture":               "pic",
		"http://schemas.microsoft.com/office/word/2010/wordprocessingDrawing":    "wp14",
		"http://schemas.microsoft.com/office/drawing/2010/main":                  "a14",
		// VML namespaces
		"urn:schemas-microsoft-com:vml":           "v",
		"urn:schemas-microsoft-com:office:office": "o",
		"urn:schemas-microsoft-com:office:word":   "w10",
		// Markup compatibility namespace
		"http://schemas.openxmlformats.org/markup-compatibility/2006": "mc",
		// Word processing shapes and canvas
		"http://schemas.microsoft.com/office/word/2010/wordprocessingShape":  "wps",
		"http://schemas.microsoft.com/office/word/2010/wordprocessingCanvas": "wpc",
		"http://schemas.microsoft.com/office/word/2010/wordprocessingGroup":  "wpg",
		"http://schemas.microsoft.com/office/word/2010/wordprocessingInk":    "wpi",
		// Extended Word namespaces
		"http://schemas.microsoft.com/office/word/2010/wordml":                "w14",
		"http://schemas.microsoft.com/office/word/2012/wordml":                "w15",
		"http://schemas.microsoft.com/office/word/2015/wordml/symex":          "w16se",
		"http://schemas.microsoft.com/office/word/2016/wordml/cid":            "w16cid",
		"http://schemas.microsoft.com/office/word/2018/wordml":                "w16",
		"http://schemas.microsoft.com/office/word/2018/wordml/cex":            "w16cex",
		"http://schemas.microsoft.com/office/word/2020/wordml/sdtdatahash":    "w16sdtdh",
		"http://schemas.microsoft.com/office/word/2024/wordml/sdtformatlock":  "w16sdtfl",
		"http://schemas.microsoft.com/office/word/2023/wordml/word16du":       "w16du",
		"http://schemas.microsoft.com/office/word/2006/wordml":                "wne",
		// Other drawing namespaces
		"http://schemas.microsoft.com/office/drawing/2016/ink":     "aink",
		"http://schemas.microsoft.com/office/drawing/2017/model3d": "am3d",
	}

	if prefix, ok := prefixMap[uri]; ok {
		return prefix
	}
	// For unknown namespaces, return the URI as-is (shouldn't happen in practice)
	return uri
}

// BodyElement represents any element that can appear in a document body,
// a header, a footer, or a table cell.
type BodyElement interface {
	isBodyElement()
}

// RawElement preserves a body-level element the engine does not model
// (bookmarks, structured document tags, ...) byte-for-byte.
type RawElement struct {
	XML string
}

func (e *RawElement) isBodyElement() {}

// ParagraphChild represents any element that can appear inside a paragraph.
type ParagraphChild interface {
	isParagraphChild()
}

// RawChild preserves paragraph content the engine does not model
// (hyperlinks, proofing marks, field codes, ...) byte-for-byte.
type RawChild struct {
	XML string
}

func (c *RawChild) isParagraphChild() {}

// Paragraph represents a paragraph: ordered children plus paragraph-level
// formatting. Concatenating the text of its runs in order yields the
// paragraph's logical text, which placeholder matching operates on.
type Paragraph struct {
	Properties *ParagraphProperties
	Children   []ParagraphChild
}

func (p *Paragraph) isBodyElement() {}

// Runs returns pointers to the paragraph's runs in document order.
func (p *Paragraph) Runs() []*Run {
	var runs []*Run
	for _, child := range p.Children {
		if run, ok := child.(*Run); ok {
			runs = append(runs, run)
		}
	}
	return runs
}

// GetText returns the concatenated text of all runs in the paragraph
func (p *Paragraph) GetText() string {
	var b strings.Builder
	for _, run := range p.Runs() {
		b.WriteString(run.GetText())
	}
	return b.String()
}

// ParagraphProperties represents paragraph-level formatting. Template
// paragraphs keep their original pPr content verbatim in raw; paragraphs
// synthesized by the structured-section expanders use the typed fields.
type ParagraphProperties struct {
	raw string

	Alignment string       // w:jc value ("both", "center", ...)
	Spacing   *LineSpacing // nil leaves spacing unset
	Indent    *Indent      // nil leaves indentation unset
}

// LineSpacing holds w:spacing values: Line in 240ths of a line
// (240 = single), After in twips.
type LineSpacing struct {
	Line  int
	After int
}

// Indent holds w:ind values in twips. Equal Left and Hanging produce a
// hanging indent whose first line starts at the margin.
type Indent struct {
	Left    int
	Hanging int
}

// Run represents a run of text with common formatting
type Run struct {
	Properties *RunProperties
	Text       *Text
	Tab        bool
	Break      *Break
	// RawXML stores unparsed elements (like drawings) to preserve or inject them
	RawXML []string
}

func (r *Run) isParagraphChild() {}

// GetText returns the text content of a run
func (r *Run) GetText() string {
	if r.Text == nil {
		return ""
	}
	return r.Text.Content
}

// RunProperties represents run-level formatting. Template runs keep their
// original rPr content verbatim in raw; runs written by the engine use the
// typed fields.
type RunProperties struct {
	raw string

	Bold bool
	Font string // empty leaves the font unset
	Size int    // half-points; 0 leaves the size unset
}

// Text represents text content
type Text struct {
	Space   string
	Content string
}

// Break represents a line break
type Break struct {
	Type string
}

// Table represents a table in the document
type Table struct {
	rawProps    string // tblPr and tblGrid, verbatim
	Rows        []*TableRow
	rawTrailing []string
}

func (t *Table) isBodyElement() {}

// TableRow represents a row in a table
type TableRow struct {
	rawProps string // trPr, verbatim
	Cells    []*TableCell
}

// TableCell contains an ordered sequence of paragraphs and nested tables
type TableCell struct {
	rawProps string // tcPr, verbatim
	Elements []BodyElement
}

// GetText returns the concatenated text of all paragraphs in a cell
func (c *TableCell) GetText() string {
	var texts []string
	for _, el := range c.Elements {
		if para, ok := el.(*Paragraph); ok {
			texts = append(texts, para.GetText())
		}
	}
	return strings.Join(texts, "\n")
}

// documentPart is a parsed XML part that contains paragraphs and tables:
// word/document.xml or any header/footer variant. The root opening tag is
// kept verbatim so every namespace declaration survives the round trip.
type documentPart struct {
	name     string // zip part name
	openTag  string // raw root opening tag with namespaces
	rootName string // "w:document", "w:hdr" or "w:ftr"
	hasBody  bool   // document parts nest elements inside w:body
	Elements []BodyElement
	sectPr   string // raw body-level section properties, document parts only
}

// parsePart parses document.xml or a header/footer part into the element
// tree. Unmodeled elements are captured verbatim so the repackaged part
// stays byte-equivalent outside the paragraphs the engine touches.
func parsePart(name string, content []byte) (*documentPart, error) {
	openTag, rootName, err := extractRootTag(content)
	if err != nil {
		return nil, NewDocumentError("parse", name, err)
	}

	part := &documentPart{
		name:     name,
		openTag:  openTag,
		rootName: rootName,
		hasBody:  strings.HasSuffix(rootName, "document"),
	}

	d := xml.NewDecoder(bytes.NewReader(content))
	rootSeen := false
	inContainer := false

	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, NewDocumentError("parse", name, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !rootSeen {
				rootSeen = true
				// Headers and footers hold their elements directly under
				// the root; documents nest them inside w:body.
				if !part.hasBody {
					inContainer = true
				}
				continue
			}
			if !inContainer {
				if t.Name.Local == "body" {
					inContainer = true
					continue
				}
				// Skip anything outside the body of a document part.
				if err := d.Skip(); err != nil {
					return nil, NewDocumentError("parse", name, err)
				}
				continue
			}

			switch t.Name.Local {
			case "p":
				para, err := parseParagraph(d, t)
				if err != nil {
					return nil, NewDocumentError("parse", name, err)
				}
				part.Elements = append(part.Elements, para)
			case "tbl":
				table, err := parseTable(d, t)
				if err != nil {
					return nil, NewDocumentError("parse", name, err)
				}
				part.Elements = append(part.Elements, table)
			case "sectPr":
				raw, err := captureRawElement(d, t)
				if err != nil {
					return nil, NewDocumentError("parse", name, err)
				}
				part.sectPr = raw
			default:
				raw, err := captureRawElement(d, t)
				if err != nil {
					return nil, NewDocumentError("parse", name, err)
				}
				part.Elements = append(part.Elements, &RawElement{XML: raw})
			}
		case xml.EndElement:
			if inContainer && (t.Name.Local == "body" || !part.hasBody) {
				inContainer = false
			}
		}
	}

	return part, nil
}

// extractRootTag returns the raw root opening tag (with its namespace
// declarations) and the prefixed root name from an XML part.
func extractRootTag(content []byte) (string, string, error) {
	s := string(content)

	searchStart := 0
	if declEnd := strings.Index(s, "?>"); declEnd != -1 && strings.HasPrefix(strings.TrimSpace(s), "<?xml") {
		searchStart = declEnd + 2
	}

	tagStart := strings.Index(s[searchStart:], "<")
	if tagStart == -1 {
		return "", "", fmt.Errorf("malformed XML: no root tag found")
	}
	tagStart += searchStart

	tagEnd := strings.Index(s[tagStart:], ">")
	if tagEnd == -1 {
		return "", "", fmt.Errorf("malformed XML: unterminated root tag")
	}
	tagEnd += tagStart

	openTag := s[tagStart : tagEnd+1]

	nameEnd := strings.IndexAny(openTag, " \t\r\n>")
	if nameEnd == -1 {
		nameEnd = len(openTag) - 1
	}
	rootName := strings.TrimSuffix(openTag[1:nameEnd], "/")

	return openTag, rootName, nil
}

// parseParagraph consumes a w:p element
func parseParagraph(d *xml.Decoder, start xml.StartElement) (*Paragraph, error) {
	para := &Paragraph{}

	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				raw, err := captureRawElement(d, t)
				if err != nil {
					return nil, err
				}
				para.Properties = &ParagraphProperties{raw: rawInner(raw)}
			case "r":
				run, err := parseRun(d, t)
				if err != nil {
					return nil, err
				}
				para.Children = append(para.Children, run)
			default:
				raw, err := captureRawElement(d, t)
				if err != nil {
					return nil, err
				}
				para.Children = append(para.Children, &RawChild{XML: raw})
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				return para, nil
			}
		}
	}
}

// parseRun consumes a w:r element
func parseRun(d *xml.Decoder, start xml.StartElement) (*Run, error) {
	run := &Run{}

	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rPr":
				raw, err := captureRawElement(d, t)
				if err != nil {
					return nil, err
				}
				run.Properties = &RunProperties{raw: rawInner(raw)}
			case "t":
				text, err := parseText(d, t)
				if err != nil {
					return nil, err
				}
				if run.Text == nil {
					run.Text = text
				} else {
					// Multiple w:t elements in one run collapse into one.
					run.Text.Content += text.Content
				}
			case "tab":
				run.Tab = true
				if err := d.Skip(); err != nil {
					return nil, err
				}
			case "br":
				br := &Break{}
				for _, attr := range t.Attr {
					if attr.Name.Local == "type" {
						br.Type = attr.Value
					}
				}
				run.Break = br
				if err := d.Skip(); err != nil {
					return nil, err
				}
			default:
				raw, err := captureRawElement(d, t)
				if err != nil {
					return nil, err
				}
				run.RawXML = append(run.RawXML, raw)
			}
		case xml.EndElement:
			if t.Name.Local == "r" {
				return run, nil
			}
		}
	}
}

// parseText consumes a w:t element
func parseText(d *xml.Decoder, start xml.StartElement) (*Text, error) {
	text := &Text{}
	for _, attr := range start.Attr {
		if attr.Name.Local == "space" {
			text.Space = attr.Value
		}
	}

	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Content += string(t)
		case xml.EndElement:
			if t.Name.Local == "t" {
				return text, nil
			}
		}
	}
}

// parseTable consumes a w:tbl element
func parseTable(d *xml.Decoder, start xml.StartElement) (*Table, error) {
	table := &Table{}

	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tblPr", "tblGrid":
				raw, err := captureRawElement(d, t)
				if err != nil {
					return nil, err
				}
				table.rawProps += raw
			case "tr":
				row, err := parseTableRow(d, t)
				if err != nil {
					return nil, err
				}
				table.Rows = append(table.Rows, row)
			default:
				raw, err := captureRawElement(d, t)
				if err != nil {
					return nil, err
				}
				table.rawTrailing = append(table.rawTrailing, raw)
			}
		case xml.EndElement:
			if t.Name.Local == "tbl" {
				return table, nil
			}
		}
	}
}

// parseTableRow consumes a w:tr element
func parseTableRow(d *xml.Decoder, start xml.StartElement) (*TableRow, error) {
	row := &TableRow{}

	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "trPr":
				raw, err := captureRawElement(d, t)
				if err != nil {
					return nil, err
				}
				row.rawProps += raw
			case "tc":
				cell, err := parseTableCell(d, t)
				if err != nil {
					return nil, err
				}
				row.Cells = append(row.Cells, cell)
			default:
				if err := d.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == "tr" {
				return row, nil
			}
		}
	}
}

// parseTableCell consumes a w:tc element
func parseTableCell(d *xml.Decoder, start xml.StartElement) (*TableCell, error) {
	cell := &TableCell{}

	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tcPr":
				raw, err := captureRawElement(d, t)
				if err != nil {
					return nil, err
				}
				cell.rawProps += raw
			case "p":
				para, err := parseParagraph(d, t)
				if err != nil {
					return nil, err
				}
				cell.Elements = append(cell.Elements, para)
			case "tbl":
				nested, err := parseTable(d, t)
				if err != nil {
					return nil, err
				}
				cell.Elements = append(cell.Elements, nested)
			default:
				raw, err := captureRawElement(d, t)
				if err != nil {
					return nil, err
				}
				cell.Elements = append(cell.Elements, &RawElement{XML: raw})
			}
		case xml.EndElement:
			if t.Name.Local == "tc" {
				return cell, nil
			}
		}
	}
}

// captureRawElement reconstructs an element and its entire subtree as raw
// XML with conventional namespace prefixes, consuming the decoder up to and
// including the element's end tag.
func captureRawElement(d *xml.Decoder, start xml.StartElement) (string, error) {
	var buf strings.Builder

	writeStartTag(&buf, start)

	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			writeStartTag(&buf, t)
		case xml.EndElement:
			depth--
			buf.WriteString("</")
			writePrefixedName(&buf, t.Name)
			buf.WriteString(">")
		case xml.CharData:
			buf.WriteString(escapeText(string(t)))
		}
	}

	return buf.String(), nil
}

func writeStartTag(buf *strings.Builder, t xml.StartElement) {
	buf.WriteString("<")
	writePrefixedName(buf, t.Name)
	for _, attr := range t.Attr {
		buf.WriteString(" ")
		writePrefixedName(buf, attr.Name)
		buf.WriteString(`="`)
		buf.WriteString(escapeAttr(attr.Value))
		buf.WriteString(`"`)
	}
	buf.WriteString(">")
}

func writePrefixedName(buf *strings.Builder, name xml.Name) {
	if name.Space != "" {
		buf.WriteString(namespaceToPrefix(name.Space))
		buf.WriteString(":")
	}
	buf.WriteString(name.Local)
}

// rawInner strips the outer tags from a captured raw element, returning its
// inner XML.
func rawInner(raw string) string {
	open := strings.Index(raw, ">")
	close := strings.LastIndex(raw, "<")
	if open == -1 || close <= open {
		return ""
	}
	return raw[open+1 : close]
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func escapeAttr(s string) string {
	s = escapeText(s)
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// marshal serializes the part back to XML, reusing the original root opening
// tag so all namespace declarations are preserved.
func (p *documentPart) marshal() []byte {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(p.openTag)
	if p.hasBody {
		b.WriteString("<w:body>")
	}
	for _, el := range p.Elements {
		writeBodyElement(&b, el)
	}
	if p.sectPr != "" {
		b.WriteString(p.sectPr)
	}
	if p.hasBody {
		b.WriteString("</w:body>")
	}
	b.WriteString("</")
	b.WriteString(p.rootName)
	b.WriteString(">")
	return []byte(b.String())
}

func writeBodyElement(b *strings.Builder, el BodyElement) {
	switch e := el.(type) {
	case *Paragraph:
		e.writeXML(b)
	case *Table:
		e.writeXML(b)
	case *RawElement:
		b.WriteString(e.XML)
	}
}

func (p *Paragraph) writeXML(b *strings.Builder) {
	b.WriteString("<w:p>")
	if p.Properties != nil {
		p.Properties.writeXML(b)
	}
	for _, child := range p.Children {
		switch c := child.(type) {
		case *Run:
			c.writeXML(b)
		case *RawChild:
			b.WriteString(c.XML)
		}
	}
	b.WriteString("</w:p>")
}

func (pp *ParagraphProperties) writeXML(b *strings.Builder) {
	if pp.raw != "" {
		b.WriteString("<w:pPr>")
		b.WriteString(pp.raw)
		b.WriteString("</w:pPr>")
		return
	}

	if pp.Spacing == nil && pp.Indent == nil && pp.Alignment == "" {
		return
	}

	b.WriteString("<w:pPr>")
	if pp.Spacing != nil {
		b.WriteString(`<w:spacing w:after="`)
		b.WriteString(strconv.Itoa(pp.Spacing.After))
		b.WriteString(`" w:line="`)
		b.WriteString(strconv.Itoa(pp.Spacing.Line))
		b.WriteString(`" w:lineRule="auto"/>`)
	}
	if pp.Indent != nil {
		b.WriteString(`<w:ind w:left="`)
		b.WriteString(strconv.Itoa(pp.Indent.Left))
		b.WriteString(`" w:hanging="`)
		b.WriteString(strconv.Itoa(pp.Indent.Hanging))
		b.WriteString(`"/>`)
	}
	if pp.Alignment != "" {
		b.WriteString(`<w:jc w:val="`)
		b.WriteString(escapeAttr(pp.Alignment))
		b.WriteString(`"/>`)
	}
	b.WriteString("</w:pPr>")
}

func (r *Run) writeXML(b *strings.Builder) {
	b.WriteString("<w:r>")
	if r.Properties != nil {
		r.Properties.writeXML(b)
	}
	if r.Tab {
		b.WriteString("<w:tab/>")
	}
	if r.Text != nil {
		r.Text.writeXML(b)
	}
	if r.Break != nil {
		if r.Break.Type != "" {
			b.WriteString(`<w:br w:type="`)
			b.WriteString(escapeAttr(r.Break.Type))
			b.WriteString(`"/>`)
		} else {
			b.WriteString("<w:br/>")
		}
	}
	for _, raw := range r.RawXML {
		b.WriteString(raw)
	}
	b.WriteString("</w:r>")
}

func (rp *RunProperties) writeXML(b *strings.Builder) {
	if rp.raw != "" {
		b.WriteString("<w:rPr>")
		b.WriteString(rp.raw)
		b.WriteString("</w:rPr>")
		return
	}

	if rp.Font == "" && !rp.Bold && rp.Size == 0 {
		return
	}

	b.WriteString("<w:rPr>")
	if rp.Font != "" {
		b.WriteString(`<w:rFonts w:ascii="`)
		b.WriteString(escapeAttr(rp.Font))
		b.WriteString(`" w:hAnsi="`)
		b.WriteString(escapeAttr(rp.Font))
		b.WriteString(`"/>`)
	}
	if rp.Bold {
		b.WriteString("<w:b/>")
	}
	if rp.Size > 0 {
		sz := strconv.Itoa(rp.Size)
		b.WriteString(`<w:sz w:val="`)
		b.WriteString(sz)
		b.WriteString(`"/><w:szCs w:val="`)
		b.WriteString(sz)
		b.WriteString(`"/>`)
	}
	b.WriteString("</w:rPr>")
}

func (t *Text) writeXML(b *strings.Builder) {
	if t.Content == "" {
		b.WriteString("<w:t/>")
		return
	}
	if t.Space == "preserve" || t.Content != strings.TrimSpace(t.Content) {
		b.WriteString(`<w:t xml:space="preserve">`)
	} else {
		b.WriteString("<w:t>")
	}
	b.WriteString(escapeText(t.Content))
	b.WriteString("</w:t>")
}

func (t *Table) writeXML(b *strings.Builder) {
	b.WriteString("<w:tbl>")
	b.WriteString(t.rawProps)
	for _, row := range t.Rows {
		row.writeXML(b)
	}
	for _, raw := range t.rawTrailing {
		b.WriteString(raw)
	}
	b.WriteString("</w:tbl>")
}

func (r *TableRow) writeXML(b *strings.Builder) {
	b.WriteString("<w:tr>")
	b.WriteString(r.rawProps)
	for _, cell := range r.Cells {
		cell.writeXML(b)
	}
	b.WriteString("</w:tr>")
}

func (c *TableCell) writeXML(b *strings.Builder) {
	b.WriteString("<w:tc>")
	b.WriteString(c.rawProps)
	for _, el := range c.Elements {
		writeBodyElement(b, el)
	}
	b.WriteString("</w:tc>")
}
