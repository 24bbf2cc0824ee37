// Package imagecodec implements the chunk image codec: PNG is always
// produced; when a chunk's PNG exceeds MaxPNGSize, a lossy JPEG
// alternative is produced alongside it for bandwidth-constrained
// mates. Encoding and decoding run on a worker pool so network I/O
// never blocks on CPU-bound image work.
package imagecodec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
)

// MaxPNGSize is the threshold, in encoded bytes, above which a lossy
// alternative encoding is produced. Matches the original
// implementation's ImageCoder::MAX_PNG_SIZE.
const MaxPNGSize = 32 * 1024

// LossyQuality is the JPEG quality used for the lossy alternative.
// The original implementation uses WebP at its default lossy quality;
// no WebP encoder exists anywhere in this project's reference corpus,
// so stdlib image/jpeg at quality 80 (the same ballpark default as the
// original's WebPQuality::DEFAULT) is substituted. See DESIGN.md.
const LossyQuality = 80

// ErrNonRGBAImage is returned when decoded image data is not RGBA8,
// mirroring the original's Error::NonRgbaChunkImage.
var ErrNonRGBAImage = errors.New("imagecodec: decoded image is not RGBA")

// ErrUnrecognizedFormat is returned when network chunk data matches
// neither PNG nor JPEG.
var ErrUnrecognizedFormat = errors.New("imagecodec: unrecognized chunk image format")

// EncodedChunk holds a chunk's encoded network representation. PNG is
// always populated unless the chunk was empty (fully transparent),
// in which case both fields are nil and the chunk is elided from the
// wire entirely. Lossy holds the JPEG alternative when PNG exceeds
// MaxPNGSize.
type EncodedChunk struct {
	PNG   []byte
	Lossy []byte
}

// Empty reports whether the image has nothing to encode.
func (e *EncodedChunk) Empty() bool { return e == nil || (e.PNG == nil && e.Lossy == nil) }

// EncodePNG encodes an image to PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("imagecodec: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeLossy encodes an image to JPEG at LossyQuality.
func EncodeLossy(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: LossyQuality}); err != nil {
		return nil, fmt.Errorf("imagecodec: encode lossy: %w", err)
	}
	return buf.Bytes(), nil
}

// isEmptyRGBA reports whether every byte of an RGBA image's pixel
// buffer is zero (fully transparent black), mirroring the original's
// Chunk::image_is_empty.
func isEmptyRGBA(img *image.RGBA) bool {
	for _, b := range img.Pix {
		if b != 0 {
			return false
		}
	}
	return true
}

// EncodeNetworkChunk produces a chunk's network representation: PNG
// always, plus a lossy JPEG alternative if the PNG exceeds
// MaxPNGSize. Fully transparent chunks are elided (both fields nil, no
// error) so callers can skip sending them entirely.
func EncodeNetworkChunk(img *image.RGBA) (*EncodedChunk, error) {
	if isEmptyRGBA(img) {
		return &EncodedChunk{}, nil
	}

	pngBytes, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}

	encoded := &EncodedChunk{PNG: pngBytes}
	if len(pngBytes) > MaxPNGSize {
		lossy, err := EncodeLossy(img)
		if err != nil {
			return nil, err
		}
		encoded.Lossy = lossy
	}
	return encoded, nil
}

// DecodeNetworkChunk decodes chunk data received over the wire. It
// tries JPEG first (the lossy alternative, when present, is what a
// bandwidth-constrained mate prefers to send) and falls back to PNG,
// mirroring the original's decode_network_data probing order.
func DecodeNetworkChunk(data []byte, chunkSize int) (*image.RGBA, error) {
	if img, err := decodeJPEG(data, chunkSize); err == nil {
		return img, nil
	}
	if img, err := decodePNG(data, chunkSize); err == nil {
		return img, nil
	}
	return nil, ErrUnrecognizedFormat
}

func decodePNG(data []byte, chunkSize int) (*image.RGBA, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return toRGBA(img, chunkSize)
}

func decodeJPEG(data []byte, chunkSize int) (*image.RGBA, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return toRGBA(img, chunkSize)
}

func toRGBA(img image.Image, chunkSize int) (*image.RGBA, error) {
	if rgba, ok := img.(*image.RGBA); ok {
		if rgba.Bounds().Dx() != chunkSize || rgba.Bounds().Dy() != chunkSize {
			return nil, fmt.Errorf("imagecodec: chunk has invalid size %v, want %dx%d", rgba.Bounds(), chunkSize, chunkSize)
		}
		return rgba, nil
	}
	bounds := img.Bounds()
	if bounds.Dx() != chunkSize || bounds.Dy() != chunkSize {
		return nil, fmt.Errorf("imagecodec: chunk has invalid size %v, want %dx%d", bounds, chunkSize, chunkSize)
	}
	out := image.NewRGBA(image.Rect(0, 0, chunkSize, chunkSize))
	for y := 0; y < chunkSize; y++ {
		for x := 0; x < chunkSize; x++ {
			out.Set(x, y, img.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	return out, nil
}
