package assets

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"os"

	"github.com/bbrks/go-blurhash"
	"golang.org/x/image/draw"
)

// blurHashSize is the longest side of the thumbnail the hash is computed from.
const blurHashSize = 32

// ComputeBlurHash generates a BlurHash placeholder for the image at path.
// Icons are small and square-ish, so 3x3 components are enough.
func ComputeBlurHash(path string) (string, error) {
	file, err := os.Open(path) //#nosec G304 -- paths are derived from validated tokens and icon records
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	hash, err := blurhash.Encode(3, 3, thumbnail(img))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

// thumbnail scales img so that its longest side is at most blurHashSize.
func thumbnail(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= blurHashSize && h <= blurHashSize {
		return img
	}

	dw, dh := blurHashSize, blurHashSize
	if w > h {
		dh = max(1, h*blurHashSize/w)
	} else {
		dw = max(1, w*blurHashSize/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
