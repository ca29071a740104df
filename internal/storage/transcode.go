package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// JPEGQuality is used for every JPEG produced by the transcoder.
const JPEGQuality = 82

// MaxDecodePixels bounds the declared dimensions of an image that will be
// decoded. Larger images are stored as uploaded.
const MaxDecodePixels = 40_000_000

// Variant describes the target geometry of an encoded image.
type Variant struct {
	Width  int
	Height int
	// Cover crops to exactly Width x Height; otherwise the image is fitted
	// inside the box and never enlarged.
	Cover bool
	// ForceJPEG re-encodes every input as JPEG, including PNG.
	ForceJPEG bool
}

var (
	// ListingVariant fits gallery images inside 1200x1200.
	ListingVariant = Variant{Width: 1200, Height: 1200}
	// ProfileVariant produces a 512x512 JPEG avatar.
	ProfileVariant = Variant{Width: 512, Height: 512, Cover: true, ForceJPEG: true}
)

// Transcode re-encodes data for v. It never fails: when the input cannot be
// decoded or encoded the original bytes are returned unchanged.
func Transcode(data []byte, v Variant) Object {
	obj, err := transcode(data, v)
	if err != nil {
		return Passthrough(data)
	}
	return obj
}

// Passthrough wraps data without modification, sniffing its content type.
func Passthrough(data []byte) Object {
	contentType := http.DetectContentType(data)
	return Object{Data: data, ContentType: contentType, Ext: extensionFor(contentType)}
}

func transcode(data []byte, v Variant) (Object, error) {
	if len(data) == 0 {
		return Object{}, errors.New("empty image")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Object{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxDecodePixels {
		return Object{}, fmt.Errorf("image dimensions %dx%d exceed decode limit", cfg.Width, cfg.Height)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Object{}, fmt.Errorf("decode: %w", err)
	}

	var dst image.Image
	if v.Cover {
		dst = cover(src, v.Width, v.Height)
	} else {
		dst = fit(src, v.Width, v.Height)
	}

	var buf bytes.Buffer
	if format == "png" && !v.ForceJPEG {
		if err := png.Encode(&buf, dst); err != nil {
			return Object{}, fmt.Errorf("encode png: %w", err)
		}
		return Object{Data: buf.Bytes(), ContentType: "image/png", Ext: ".png"}, nil
	}

	if err := jpeg.Encode(&buf, flatten(dst), &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return Object{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return Object{Data: buf.Bytes(), ContentType: "image/jpeg", Ext: ".jpg"}, nil
}

func fit(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxW <= 0 || maxH <= 0 || (w <= maxW && h <= maxH) {
		return src
	}

	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func cover(src image.Image, w, h int) image.Image {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()

	// Largest centred crop of the source with the target aspect ratio.
	cropW, cropH := sw, sw*h/w
	if cropH > sh {
		cropW, cropH = sh*w/h, sh
	}
	x0 := b.Min.X + (sw-cropW)/2
	y0 := b.Min.Y + (sh-cropH)/2
	crop := image.Rect(x0, y0, x0+cropW, y0+cropH)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)
	return dst
}

// flatten composites transparent pixels onto white before JPEG encoding.
func flatten(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
