package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func heicBytes(payload string) []byte {
	return append([]byte("\x00\x00\x00\x18ftypheic"), []byte(payload)...)
}

type fakeConverter struct {
	out []byte
	err error
}

func (f fakeConverter) Convert([]byte) ([]byte, error) {
	return f.out, f.err
}

func TestProcess_PNGProducesBase64AndPreview(t *testing.T) {
	registry := NewPreviewRegistry()
	sut := NewProcessor(registry, nil)

	att, err := sut.Process(pngBytes(t, 100, 60))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", att.ContentType)

	raw, err := base64.StdEncoding.DecodeString(att.Data)
	require.NoError(t, err)
	decoded, _, err := image.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 100, decoded.Bounds().Dx())

	preview, ok := registry.Get(att.PreviewHandle)
	require.True(t, ok)
	assert.Equal(t, raw, preview)
}

func TestProcess_DownscalesToBoundingBox(t *testing.T) {
	sut := NewProcessor(NewPreviewRegistry(), nil)
	sut.maxDim = 200

	att, err := sut.Process(jpegBytes(t, 800, 400))
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(att.Data)
	require.NoError(t, err)
	decoded, _, err := image.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 200, decoded.Bounds().Dx())
	assert.Equal(t, 100, decoded.Bounds().Dy(), "aspect ratio preserved")
}

func TestProcess_PortraitDownscale(t *testing.T) {
	sut := NewProcessor(NewPreviewRegistry(), nil)
	sut.maxDim = 100

	att, err := sut.Process(jpegBytes(t, 50, 400))
	require.NoError(t, err)

	raw, _ := base64.StdEncoding.DecodeString(att.Data)
	decoded, _, err := image.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 100, decoded.Bounds().Dy())
	assert.Equal(t, 12, decoded.Bounds().Dx())
}

func TestProcess_SmallImagePassesThrough(t *testing.T) {
	sut := NewProcessor(NewPreviewRegistry(), nil)

	att, err := sut.Process(jpegBytes(t, 300, 200))
	require.NoError(t, err)

	raw, _ := base64.StdEncoding.DecodeString(att.Data)
	decoded, _, err := image.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 300, decoded.Bounds().Dx())
	assert.Equal(t, 200, decoded.Bounds().Dy())
}

func TestProcess_TooLarge(t *testing.T) {
	sut := NewProcessor(NewPreviewRegistry(), nil)
	sut.maxBytes = 1024

	_, err := sut.Process(pngBytes(t, 500, 500))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestProcess_UnsupportedFormat(t *testing.T) {
	sut := NewProcessor(NewPreviewRegistry(), nil)

	_, err := sut.Process([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestProcess_HEICConverted(t *testing.T) {
	sut := NewProcessor(NewPreviewRegistry(), fakeConverter{out: jpegBytes(t, 40, 40)})

	att, err := sut.Process(heicBytes("payload"))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", att.ContentType)
}

func TestProcess_HEICConversionFailure(t *testing.T) {
	sut := NewProcessor(NewPreviewRegistry(), fakeConverter{err: fmt.Errorf("codec exploded")})

	_, err := sut.Process(heicBytes("payload"))
	assert.ErrorIs(t, err, ErrConversionFailed)
}

func TestProcess_HEICWithoutConverter(t *testing.T) {
	sut := NewProcessor(NewPreviewRegistry(), nil)

	_, err := sut.Process(heicBytes("payload"))
	assert.ErrorIs(t, err, ErrConversionFailed)
}

func TestPreviewRegistry_ReleaseFreesHandle(t *testing.T) {
	registry := NewPreviewRegistry()

	handle := registry.Issue([]byte("bytes"))
	_, ok := registry.Get(handle)
	require.True(t, ok)

	registry.Release(handle)
	_, ok = registry.Get(handle)
	assert.False(t, ok)
	assert.Equal(t, 0, registry.Len())
}

func TestPreviewRegistry_ReleaseUnknownHandleIsNoOp(t *testing.T) {
	registry := NewPreviewRegistry()
	registry.Release("missing")
	assert.Equal(t, 0, registry.Len())
}
