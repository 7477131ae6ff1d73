package images

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strconv"

	"github.com/beevik/etree"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"bidic/jpegquality"
)

// fallbackJPEGQuality is used when the source quality cannot be estimated.
const fallbackJPEGQuality = 85

// MirrorImage flips raster image data horizontally and re-encodes it in its
// original format (jpeg, png or gif). For JPEG output a non-positive quality
// requests re-encoding at the estimated source quality, and JFIF density
// metadata is carried over when the source has it. Animated GIFs keep only
// their first frame. WebP input is accepted but there is no Go encoder for
// it, the mirrored counterpart carries a PNG payload.
func MirrorImage(data []byte, quality int) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var flipped image.Image = imaging.FlipH(img)
	if IsGrayscale(img) {
		flipped = toGray(flipped)
	}

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		q := quality
		if q <= 0 {
			if jr, err := jpegquality.NewWithBytes(data); err == nil {
				q = jr.Quality()
			} else {
				q = fallbackJPEGQuality
			}
		}
		if dpit, xdensity, ydensity, ok := ReadJFIFDensity(data); ok {
			return EncodeJPEGWithDPI(flipped, q, dpit, xdensity, ydensity)
		}
		if err := jpeg.Encode(&buf, flipped, &jpeg.Options{Quality: q}); err != nil {
			return nil, err
		}
	case "png":
		if err := png.Encode(&buf, flipped); err != nil {
			return nil, err
		}
	case "gif":
		if err := gif.Encode(&buf, flipped, nil); err != nil {
			return nil, err
		}
	case "webp":
		if err := png.Encode(&buf, flipped); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
	return buf.Bytes(), nil
}

// MirrorSVGToPNG rasterizes SVG content, flips it horizontally and encodes
// the result as PNG. A positive size fits the output into a size x size box.
func MirrorSVGToPNG(svgData []byte, size int) ([]byte, error) {
	img, err := RasterizeSVGToImage(svgData, size, size)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, imaging.FlipH(img)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MirrorSVGToEmbedded rasterizes and flips SVG content like MirrorSVGToPNG
// but wraps the PNG in a minimal svg envelope, for mirrored counterparts
// that must keep the .svg extension.
func MirrorSVGToEmbedded(svgData []byte, size int) ([]byte, error) {
	img, err := RasterizeSVGToImage(svgData, size, size)
	if err != nil {
		return nil, err
	}
	flipped := imaging.FlipH(img)

	var buf bytes.Buffer
	if err := png.Encode(&buf, flipped); err != nil {
		return nil, err
	}

	w := strconv.Itoa(flipped.Bounds().Dx())
	h := strconv.Itoa(flipped.Bounds().Dy())
	href := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	doc := etree.NewDocument()
	svg := doc.CreateElement("svg")
	svg.CreateAttr("xmlns", "http://www.w3.org/2000/svg")
	svg.CreateAttr("width", w)
	svg.CreateAttr("height", h)
	svg.CreateAttr("viewBox", "0 0 "+w+" "+h)
	im := svg.CreateElement("image")
	im.CreateAttr("width", w)
	im.CreateAttr("height", h)
	im.CreateAttr("href", href)

	return doc.WriteToBytes()
}

// toGray converts an image to 8-bit grayscale.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	g := image.NewGray(b)
	draw.Draw(g, b, img, b.Min, draw.Src)
	return g
}
