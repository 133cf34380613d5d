package docfill

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Filler fills DOCX templates. The zero value is not usable; construct one
// with NewFiller.
type Filler struct {
	cfg *Config
}

// NewFiller creates a Filler with the given configuration. A nil cfg falls
// back to the global configuration.
func NewFiller(cfg *Config) *Filler {
	if cfg == nil {
		cfg = GetGlobalConfig()
	}
	return &Filler{cfg: cfg}
}

// FillDocument fills a DOCX template using the global configuration. See
// Filler.Fill.
func FillDocument(template []byte, values, images map[string]string) ([]byte, error) {
	return NewFiller(nil).Fill(template, values, images)
}

// Fill substitutes placeholders throughout a DOCX template: the document
// body, every table cell, and every header and footer part. Value tokens are
// spliced inline, IMAGE_ tokens become embedded pictures, and structured
// tokens expand into formatted paragraph sequences.
//
// Fill is best-effort: individual image failures are collected rather than
// aborting, and the returned bytes are a valid document even when the error
// is non-nil. Only container-level failures (unreadable zip, malformed part
// XML) prevent output entirely.
func (f *Filler) Fill(template []byte, values, images map[string]string) ([]byte, error) {
	dr, err := NewDocxReader(bytes.NewReader(template), int64(len(template)))
	if err != nil {
		return nil, NewDocumentError("open", "", err)
	}

	errs := &MultiError{}
	ctx := &fillContext{
		cfg:    f.cfg,
		values: values,
		images: images,
		media:  make(map[string][]byte),
		errs:   errs,
	}

	replaced := make(map[string][]byte)

	for _, partName := range fillablePartNames(dr) {
		content, err := dr.GetPart(partName)
		if err != nil {
			return nil, NewDocumentError("read", partName, err)
		}

		part, err := parsePart(partName, content)
		if err != nil {
			return nil, err
		}

		rels, err := dr.GetRelationships(partName)
		if err != nil {
			return nil, NewDocumentError("relationships", partName, err)
		}

		pf := &partFill{ctx: ctx, rels: rels}
		part.Elements = pf.fillElements(part.Elements)

		replaced[partName] = part.marshal()
		if pf.relsChanged {
			relsXML, err := marshalRelationships(rels)
			if err != nil {
				return nil, NewDocumentError("relationships", partName, err)
			}
			replaced[relsPathFor(partName)] = relsXML
		}
	}

	if len(ctx.media) > 0 {
		patched, err := patchContentTypes(dr, ctx.media)
		if err != nil {
			return nil, err
		}
		replaced["[Content_Types].xml"] = patched
	}

	out, err := repackage(dr, replaced, ctx.media)
	if err != nil {
		return nil, err
	}

	GetLogger().WithFields(Fields{
		"parts":  len(replaced),
		"images": ctx.imageCounter,
		"errors": errs.Len(),
	}).Debug("template fill complete")

	return out, errs.Err()
}

// fillablePartNames lists the XML parts subject to placeholder substitution:
// the main document, then headers, then footers, each group in name order.
func fillablePartNames(dr *DocxReader) []string {
	var headers, footers []string
	for name := range dr.Parts {
		if !headerFooterPattern.MatchString(name) {
			continue
		}
		if strings.HasPrefix(name, "word/header") {
			headers = append(headers, name)
		} else {
			footers = append(footers, name)
		}
	}
	sort.Strings(headers)
	sort.Strings(footers)

	names := make([]string, 0, 1+len(headers)+len(footers))
	names = append(names, "word/document.xml")
	names = append(names, headers...)
	names = append(names, footers...)
	return names
}

// patchContentTypes ensures [Content_Types].xml declares a Default entry for
// every media extension the fill introduced.
func patchContentTypes(dr *DocxReader, media map[string][]byte) ([]byte, error) {
	const partName = "[Content_Types].xml"

	content, err := dr.GetPart(partName)
	if err != nil {
		return nil, NewDocumentError("read", partName, err)
	}

	var types ContentTypes
	if err := xml.Unmarshal(content, &types); err != nil {
		return nil, NewDocumentError("parse", partName, err)
	}
	types.Namespace = "http://schemas.openxmlformats.org/package/2006/content-types"

	declared := make(map[string]bool, len(types.Defaults))
	for _, d := range types.Defaults {
		declared[strings.ToLower(d.Extension)] = true
	}

	exts := make(map[string]bool)
	for name := range media {
		if idx := strings.LastIndex(name, "."); idx != -1 {
			exts[strings.ToLower(name[idx+1:])] = true
		}
	}

	added := make([]string, 0, len(exts))
	for ext := range exts {
		if declared[ext] {
			continue
		}
		ct, ok := extensionContentTypes[ext]
		if !ok {
			ct = "image/png"
		}
		types.Defaults = append(types.Defaults, ContentTypeDefault{
			Extension:   ext,
			ContentType: ct,
		})
		added = append(added, ext)
	}
	sort.Strings(added)

	output, err := xml.Marshal(&types)
	if err != nil {
		return nil, NewDocumentError("marshal", partName, err)
	}

	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	buf.Write(output)
	return buf.Bytes(), nil
}

// repackage writes the output zip: original entries in their original order
// with replacements swapped in, then any replacement parts the template did
// not have, then the new media files.
func repackage(dr *DocxReader, replaced map[string][]byte, media map[string][]byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	written := make(map[string]bool)

	for _, file := range dr.reader.File {
		w, err := zw.Create(file.Name)
		if err != nil {
			return nil, NewDocumentError("write", file.Name, err)
		}

		if content, ok := replaced[file.Name]; ok {
			if _, err := w.Write(content); err != nil {
				return nil, NewDocumentError("write", file.Name, err)
			}
		} else {
			rc, err := file.Open()
			if err != nil {
				return nil, NewDocumentError("copy", file.Name, err)
			}
			if _, err := io.Copy(w, rc); err != nil {
				rc.Close()
				return nil, NewDocumentError("copy", file.Name, err)
			}
			rc.Close()
		}
		written[file.Name] = true
	}

	// Relationship parts created for headers or footers that had none.
	newParts := make([]string, 0)
	for name := range replaced {
		if !written[name] {
			newParts = append(newParts, name)
		}
	}
	sort.Strings(newParts)
	for _, name := range newParts {
		w, err := zw.Create(name)
		if err != nil {
			return nil, NewDocumentError("write", name, err)
		}
		if _, err := w.Write(replaced[name]); err != nil {
			return nil, NewDocumentError("write", name, err)
		}
	}

	mediaNames := make([]string, 0, len(media))
	for name := range media {
		mediaNames = append(mediaNames, name)
	}
	sort.Strings(mediaNames)
	for _, name := range mediaNames {
		w, err := zw.Create(name)
		if err != nil {
			return nil, NewDocumentError("write", name, err)
		}
		if _, err := w.Write(media[name]); err != nil {
			return nil, NewDocumentError("write", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, NewDocumentError("write", "", fmt.Errorf("failed to finalize package: %w", err))
	}

	return buf.Bytes(), nil
}
