// Package docfill fills reusable DOCX templates with caller-supplied values
// and images while preserving the template's formatting.
//
// Placeholders use the {{TOKEN}} syntax, where TOKEN matches [A-Z0-9_]+.
// A token's text may be fragmented across several formatting runs inside a
// paragraph; the engine locates it in the paragraph's logical text and
// splices the replacement into the run sequence without disturbing the
// surrounding runs. Image tokens (IMAGE_* names with base64 payloads) become
// embedded pictures scaled to fit the page content box, and two structured
// tokens expand into multiple formatted paragraphs from a small line-oriented
// mini-language.
//
// Basic usage:
//
//	result, err := docfill.FillDocument(templateBytes, values, images)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("filled.docx", result, 0644)
//
// Placeholders whose names appear in neither map are left verbatim in the
// output, which allows partial fills to be completed later.
package docfill
