package images

import (
	"bytes"
	"errors"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

const defaultSVGSize = 1024 // Size to use when SVG has no usable dimensions

// maxRasterDim is the maximum pixel dimension (width or height) allowed when
// rasterizing an SVG. This prevents OOM from malicious SVGs with enormous
// viewBox values (e.g. viewBox="0 0 100000 100000" would otherwise allocate
// ~37 GB for the RGBA buffer).
var maxRasterDim = 8192

// RasterizeSVGToImage rasterizes SVG to an RGBA image with a transparent
// background.
//
// Rules:
//   - if targetW == 0 && targetH == 0: use SVG viewBox dimensions (fallback to 1024x1024)
//   - if only one of targetW/targetH is > 0: scale by that dimension keeping aspect ratio
//   - if both targetW and targetH are > 0: fit into that box keeping aspect ratio
func RasterizeSVGToImage(svgData []byte, targetW, targetH int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, err
	}

	intrW := int(math.Ceil(icon.ViewBox.W))
	intrH := int(math.Ceil(icon.ViewBox.H))
	if intrW <= 0 {
		intrW = defaultSVGSize
	}
	if intrH <= 0 {
		intrH = defaultSVGSize
	}

	w, h := intrW, intrH
	if targetW <= 0 && targetH <= 0 {
		// Keep intrinsic size.
	} else if targetW > 0 && targetH <= 0 {
		w = targetW
		h = int(math.Round(float64(w) * float64(intrH) / float64(intrW)))
	} else if targetH > 0 && targetW <= 0 {
		h = targetH
		w = int(math.Round(float64(h) * float64(intrW) / float64(intrH)))
	} else {
		scaleW := float64(targetW) / float64(intrW)
		scaleH := float64(targetH) / float64(intrH)
		scale := math.Min(scaleW, scaleH)
		w = int(math.Round(float64(intrW) * scale))
		h = int(math.Round(float64(intrH) * scale))
	}
	w = max(w, 1)
	h = max(h, 1)

	// Clamp to maxRasterDim preserving aspect ratio to prevent OOM.
	if w > maxRasterDim || h > maxRasterDim {
		s := min(float64(maxRasterDim)/float64(w), float64(maxRasterDim)/float64(h))
		w = max(int(math.Round(float64(w)*s)), 1)
		h = max(int(math.Round(float64(h)*s)), 1)
	}

	icon.SetTarget(0, 0, float64(w), float64(h))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)
	return dst, nil
}

// MirrorSVG mirrors SVG content horizontally while keeping it in vector form.
// All children of the root element are moved into a group carrying a flip
// transform computed from the document's horizontal extent.
func MirrorSVG(svgData []byte) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(svgData); err != nil {
		return nil, err
	}

	root := doc.Root()
	if root == nil || root.Tag != "svg" {
		return nil, errors.New("not an svg document")
	}

	minX, width, ok := svgExtentX(root)
	if !ok {
		return nil, errors.New("svg has no usable horizontal extent")
	}

	// x' = (2*minX + width) - x
	flip := 2*minX + width
	g := etree.NewElement("g")
	g.CreateAttr("transform",
		"translate("+strconv.FormatFloat(flip, 'f', -1, 64)+" 0) scale(-1 1)")

	children := make([]etree.Token, len(root.Child))
	copy(children, root.Child)
	for _, tok := range children {
		g.AddChild(tok)
	}
	root.AddChild(g)

	return doc.WriteToBytes()
}

// svgExtentX determines the horizontal origin and width of an svg document
// from its viewBox, falling back to the width attribute.
func svgExtentX(root *etree.Element) (minX, width float64, ok bool) {
	if vb := root.SelectAttrValue("viewBox", ""); vb != "" {
		fields := strings.Fields(strings.ReplaceAll(vb, ",", " "))
		if len(fields) == 4 {
			x, errX := strconv.ParseFloat(fields[0], 64)
			w, errW := strconv.ParseFloat(fields[2], 64)
			if errX == nil && errW == nil && w > 0 {
				return x, w, true
			}
		}
	}

	if ws := root.SelectAttrValue("width", ""); ws != "" {
		ws = strings.TrimRightFunc(ws, func(r rune) bool {
			return r < '0' || r > '9'
		})
		if w, err := strconv.ParseFloat(ws, 64); err == nil && w > 0 {
			return 0, w, true
		}
	}

	return 0, 0, false
}
