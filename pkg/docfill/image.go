package docfill

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	// Register decoders for the image formats templates embed. The stdlib
	// covers png/jpeg/gif; x/image adds bmp, tiff and webp.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	emuPerInch = 914400

	// fallbackImageHeight is the assumed height, in inches, when image
	// metadata cannot be decoded.
	fallbackImageHeight = 4.0

	imageRelationshipType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

// FitResult is the outcome of a box-fit computation. Fallback is set when
// the image metadata could not be decoded and assumed dimensions were used
// instead; the scaler itself never fails.
type FitResult struct {
	Width    float64 // inches
	Height   float64 // inches
	Fallback bool
}

// fitDims scales intrinsic pixel dimensions to a display size that
// preserves the aspect ratio within the page content box: clamp the width
// first, then the height, then re-check the width. This converges in the
// two steps the constraints allow; it is not a general optimizer.
func fitDims(w0, h0 int, preferred, wmax, hmax float64) FitResult {
	if w0 <= 0 || h0 <= 0 {
		return fallbackFit(preferred, wmax, hmax)
	}

	aspect := float64(h0) / float64(w0)

	w := preferred
	if w > wmax {
		w = wmax
	}
	h := w * aspect

	if h > hmax {
		h = hmax
		w = h / aspect
		if w > wmax {
			w = wmax
			h = w * aspect
		}
	}

	return FitResult{Width: w, Height: h}
}

// fitBox computes display dimensions for raw image bytes. On decode failure
// it fails soft with assumed dimensions rather than raising; the caller
// decides whether an insertion failure is fatal.
func fitBox(data []byte, preferred, wmax, hmax float64) FitResult {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fallbackFit(preferred, wmax, hmax)
	}
	return fitDims(cfg.Width, cfg.Height, preferred, wmax, hmax)
}

func fallbackFit(preferred, wmax, hmax float64) FitResult {
	w := preferred
	if w > wmax {
		w = wmax
	}
	h := fallbackImageHeight
	if h > hmax {
		h = hmax
	}
	return FitResult{Width: w, Height: h, Fallback: true}
}

// imageExtension returns the media filename extension for a decoded format
// name as reported by image.DecodeConfig.
func imageExtension(format string) string {
	switch format {
	case "png":
		return ".png"
	case "jpeg":
		return ".jpg"
	case "gif":
		return ".gif"
	case "bmp":
		return ".bmp"
	case "tiff":
		return ".tif"
	case "webp":
		return ".webp"
	default:
		return ".png"
	}
}

// extensionContentTypes maps media file extensions to the content types that
// must be declared in [Content_Types].xml.
var extensionContentTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"tif":  "image/tiff",
	"webp": "image/webp",
}

// emu converts inches to English Metric Units.
func emu(inches float64) int64 {
	return int64(inches * emuPerInch)
}

// drawingXML synthesizes an inline picture element referencing an image
// relationship. Namespaces are declared locally so the markup is valid in
// any part regardless of which prefixes its root declares.
func drawingXML(relID string, id int, name string, widthIn, heightIn float64) string {
	cx := emu(widthIn)
	cy := emu(heightIn)

	var b strings.Builder
	b.WriteString(`<w:drawing>`)
	fmt.Fprintf(&b, `<wp:inline distT="0" distB="0" distL="0" distR="0" xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing">`)
	fmt.Fprintf(&b, `<wp:extent cx="%d" cy="%d"/>`, cx, cy)
	fmt.Fprintf(&b, `<wp:docPr id="%d" name="%s"/>`, id, escapeAttr(name))
	b.WriteString(`<a:graphic xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">`)
	b.WriteString(`<a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`)
	b.WriteString(`<pic:pic xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">`)
	fmt.Fprintf(&b, `<pic:nvPicPr><pic:cNvPr id="%d" name="%s"/><pic:cNvPicPr/></pic:nvPicPr>`, id, escapeAttr(name))
	fmt.Fprintf(&b, `<pic:blipFill><a:blip r:embed="%s" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`, escapeAttr(relID))
	b.WriteString(`<pic:spPr><a:xfrm><a:off x="0" y="0"/>`)
	fmt.Fprintf(&b, `<a:ext cx="%d" cy="%d"/>`, cx, cy)
	b.WriteString(`</a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`)
	b.WriteString(`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing>`)
	return b.String()
}
