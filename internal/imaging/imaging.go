// Package imaging normalizes uploaded photos of found items.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Defaults for Processor fields left at zero.
const (
	MaxDimension   = 1024
	ThumbDimension = 256
	JPEGQuality    = 85
)

// MaxUploadSize is the largest accepted upload in bytes.
const MaxUploadSize = 5 << 20

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ErrUnsupported is returned when the uploaded bytes are not an accepted
// image format.
var ErrUnsupported = errors.New("unsupported image format")

// Processor downscales and re-encodes photos.
type Processor struct {
	MaxDimension   int
	ThumbDimension int
	Quality        int
}

// Result contains the processed photo and its thumbnail, both JPEG.
type Result struct {
	Image     []byte
	Thumbnail []byte
	MIME      string
}

// Process reads image data, validates the format by sniffing bytes, downscales
// it to fit MaxDimension and produces a thumbnail. Output is always JPEG.
func (p Processor) Process(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, fmt.Errorf("image larger than %d bytes", MaxUploadSize)
	}

	// Client headers are not trusted.
	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("%w: %s (JPEG, PNG and WebP accepted)", ErrUnsupported, detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	full, err := p.encode(downscale(img, orDefault(p.MaxDimension, MaxDimension)))
	if err != nil {
		return nil, err
	}
	thumb, err := p.encode(downscale(img, orDefault(p.ThumbDimension, ThumbDimension)))
	if err != nil {
		return nil, err
	}

	return &Result{Image: full, Thumbnail: thumb, MIME: "image/jpeg"}, nil
}

// Process runs the default Processor.
func Process(r io.Reader) (*Result, error) {
	return Processor{}.Process(r)
}

func (p Processor) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: orDefault(p.Quality, JPEGQuality)}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// downscale resizes the image so neither dimension exceeds maxDim, using
// Catmull-Rom interpolation. Images already within bounds are returned as is.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}

	newW = max(newW, 1)
	newH = max(newH, 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
