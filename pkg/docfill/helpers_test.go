package docfill

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

const testContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const testRootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const testDocRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`

// buildDOCX creates an in-memory DOCX from a map of part names to contents.
// Parts the caller does not supply get minimal defaults.
func buildDOCX(t *testing.T, parts map[string]string) []byte {
	t.Helper()

	all := map[string]string{
		"[Content_Types].xml":          testContentTypes,
		"_rels/.rels":                  testRootRels,
		"word/_rels/document.xml.rels": testDocRels,
	}
	for name, content := range parts {
		all[name] = content
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range all {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("writing zip entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

// docxWithBody wraps body-level XML in a minimal word/document.xml and
// packages it.
func docxWithBody(t *testing.T, bodyXML string) []byte {
	t.Helper()
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body>` +
		bodyXML + `</w:body></w:document>`
	return buildDOCX(t, map[string]string{"word/document.xml": doc})
}

// runXML builds a w:r element with the given text.
func runXML(text string) string {
	return fmt.Sprintf(`<w:r><w:t xml:space="preserve">%s</w:t></w:r>`, escapeText(text))
}

// paraXML builds a w:p element whose text is split across the given runs.
func paraXML(runTexts ...string) string {
	var b strings.Builder
	b.WriteString("<w:p>")
	for _, text := range runTexts {
		b.WriteString(runXML(text))
	}
	b.WriteString("</w:p>")
	return b.String()
}

// extractPart reads one part from a DOCX byte slice.
func extractPart(t *testing.T, docx []byte, name string) []byte {
	t.Helper()
	dr, err := NewDocxReader(bytes.NewReader(docx), int64(len(docx)))
	if err != nil {
		t.Fatalf("opening output docx: %v", err)
	}
	content, err := dr.GetPart(name)
	if err != nil {
		t.Fatalf("extracting %s: %v", name, err)
	}
	return content
}

// documentText parses a DOCX and returns the logical text of each body
// paragraph, in order. Table content is not included.
func documentText(t *testing.T, docx []byte) []string {
	t.Helper()
	part := parseDocPart(t, docx, "word/document.xml")
	var texts []string
	for _, el := range part.Elements {
		if p, ok := el.(*Paragraph); ok {
			texts = append(texts, p.GetText())
		}
	}
	return texts
}

// parseDocPart parses one XML part of a DOCX into the element tree.
func parseDocPart(t *testing.T, docx []byte, name string) *documentPart {
	t.Helper()
	content := extractPart(t, docx, name)
	part, err := parsePart(name, content)
	if err != nil {
		t.Fatalf("parsing %s: %v", name, err)
	}
	return part
}

// testPNG encodes a solid-color PNG of the given pixel dimensions.
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test png: %v", err)
	}
	return buf.Bytes()
}

// testPNGBase64 returns a base64-encoded solid-color PNG.
func testPNGBase64(t *testing.T, w, h int) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString(testPNG(t, w, h))
}

func testConfig() *Config {
	return DefaultConfig()
}
