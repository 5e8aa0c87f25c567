package photo_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"homease-backend/internal/photo"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalize_ConvertsAndDownsizes(t *testing.T) {
	out, err := photo.Normalize(encodePNG(t, 3000, 1500), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", out.MIMEType)
	assert.Equal(t, "jpg", out.Ext)

	img, err := imaging.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, photo.MaxDimension, img.Bounds().Dx())
	assert.Equal(t, 1024, img.Bounds().Dy())
}

func TestNormalize_SmallJPEGPassesThrough(t *testing.T) {
	src := imaging.New(100, 80, color.White)
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, src, imaging.JPEG))

	out, err := photo.Normalize(buf.Bytes(), "")
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), out.Data)
	assert.Equal(t, "jpg", out.Ext)
}

func TestNormalize_Errors(t *testing.T) {
	_, err := photo.Normalize(nil, "image/jpeg")
	assert.ErrorIs(t, err, photo.ErrEmpty)

	_, err = photo.Normalize([]byte("definitely not an image"), "image/jpeg")
	assert.Error(t, err)
}

func TestDetectMIME(t *testing.T) {
	assert.Equal(t, "image/png", photo.DetectMIME(encodePNG(t, 2, 2), "image/jpeg"))
	assert.Equal(t, "image/webp", photo.DetectMIME([]byte("????"), "image/webp"))
	assert.Equal(t, "image/jpeg", photo.DetectMIME([]byte("????"), "text/plain"))
}

func TestRaw_KeepsSniffedExtension(t *testing.T) {
	data := append([]byte("\x89PNG\r\n\x1a\n"), "truncated"...)
	out := photo.Raw(data, "image/jpeg")
	assert.Equal(t, "image/png", out.MIMEType)
	assert.Equal(t, "png", out.Ext)
	assert.Equal(t, data, out.Data)

	assert.Equal(t, "jpg", photo.Raw([]byte("????"), "").Ext)
}
