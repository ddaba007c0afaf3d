package imaging

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

func TestDimensions(t *testing.T) {
	w, h, err := Dimensions(encodePNG(t, 320, 240))
	require.NoError(t, err)
	assert.Equal(t, 320, w)
	assert.Equal(t, 240, h)

	_, _, err = Dimensions([]byte("not an image"))
	assert.Error(t, err)
}

func TestIsGifExt(t *testing.T) {
	assert.True(t, IsGifExt("animation.gif"))
	assert.True(t, IsGifExt("ANIMATION.GIF"))
	assert.False(t, IsGifExt("photo.png"))
	assert.False(t, IsGifExt("gif.jpeg"))
}

func TestThumbnail(t *testing.T) {
	t.Run("scales down preserving aspect ratio", func(t *testing.T) {
		out, err := Thumbnail(200, encodePNG(t, 400, 300))
		require.NoError(t, err)

		w, h, err := Dimensions(out)
		require.NoError(t, err)
		assert.Equal(t, 200, w)
		assert.Equal(t, 150, h)
	})

	t.Run("keeps images already within the box", func(t *testing.T) {
		out, err := Thumbnail(200, encodePNG(t, 120, 80))
		require.NoError(t, err)

		w, h, err := Dimensions(out)
		require.NoError(t, err)
		assert.Equal(t, 120, w)
		assert.Equal(t, 80, h)
	})

	t.Run("rejects undecodable input", func(t *testing.T) {
		_, err := Thumbnail(200, []byte("not an image"))
		assert.Error(t, err)
	})
}

func TestReadAllLimit(t *testing.T) {
	data, err := ReadAll(bytes.NewReader(make([]byte, 10)), 4)
	require.NoError(t, err)
	// One byte over the limit signals an oversized payload.
	assert.Len(t, data, 5)
}
