// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging normalises images uploaded as verification documents:
// EXIF orientation is applied, metadata is stripped by re-encoding, and
// oversized scans are scaled down before they are sent to the API.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// Defaults for Normalizer.
const (
	DefaultMaxDimension = 2400
	DefaultJPEGQuality  = 90
	maxInputSize        = 32 << 20
)

// ErrUnsupportedFormat is returned for anything but JPEG and PNG.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Normalizer rewrites JPEG and PNG images.
type Normalizer struct {
	MaxDimension int
	JPEGQuality  int
}

// NewNormalizer creates a normalizer with the default limits.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		MaxDimension: DefaultMaxDimension,
		JPEGQuality:  DefaultJPEGQuality,
	}
}

// Normalize decodes r, which must hold an image of contentType, and returns
// it re-encoded in the same format.
func (n *Normalizer) Normalize(r io.Reader, contentType string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInputSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	if len(data) > maxInputSize {
		return nil, fmt.Errorf("image larger than %d bytes", maxInputSize)
	}

	format := detectFormat(data)
	if format == "" || formatToMimeType(format) != contentType {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, contentType)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))

	if limit := n.MaxDimension; limit > 0 {
		b := img.Bounds()
		if b.Dx() > limit || b.Dy() > limit {
			img = imaging.Fit(img, limit, limit, imaging.Lanczos)
		}
	}

	out, err := encodeImage(img, format, n.JPEGQuality)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	return out, nil
}

// readExifOrientation reads the EXIF orientation tag from image data.
// Returns 1 (normal) if orientation cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation applies an EXIF orientation (1 to 8) to img.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	default:
		if quality <= 0 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// detectFormat returns "jpeg" or "png" from the leading bytes, or "".
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	switch {
	case strings.HasPrefix(contentType, "image/jpeg"):
		return "jpeg"
	case strings.HasPrefix(contentType, "image/png"):
		return "png"
	default:
		return ""
	}
}

func formatToMimeType(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	default:
		return ""
	}
}
