package imaging

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"strings"

	// Register decoders for the formats we accept.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

const MaxImageSize = 1024 * 1024

// Dimensions decodes only the image header and returns its width and height.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// IsGifExt reports whether the file name carries a .gif extension.
func IsGifExt(fileName string) bool {
	return strings.HasSuffix(strings.ToLower(fileName), ".gif")
}

// Thumbnail decodes the image and scales it down to fit within size x size,
// preserving aspect ratio, encoded as PNG. Images already within the box are
// re-encoded unchanged.
func Thumbnail(size uint, data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	thumb := resize.Thumbnail(size, size, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// ReadAll reads at most limit+1 bytes so callers can detect oversized uploads
// without buffering arbitrarily large bodies.
func ReadAll(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit+1))
}
