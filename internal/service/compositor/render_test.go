package compositor

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 13), B: uint8(x + y), A: 255})
		}
	}
	return img
}

func TestMirror_RoundTrip(t *testing.T) {
	for _, w := range []int{1, 2, 7, 16} {
		img := gradient(w, 5)
		orig := append([]uint8(nil), img.Pix...)

		Mirror(img)
		if w > 1 {
			assert.NotEqual(t, orig, img.Pix, "width %d should change after one flip", w)
		}
		Mirror(img)
		assert.Equal(t, orig, img.Pix, "width %d should round-trip", w)
	}
}

func TestMirror_SwapsColumns(t *testing.T) {
	img := gradient(4, 2)
	want := img.RGBAAt(0, 1)

	Mirror(img)

	assert.Equal(t, want, img.RGBAAt(3, 1))
}

func TestRender_CropsWithoutScaling(t *testing.T) {
	src := gradient(100, 50)
	region := CropRegion(100, 50) // 40x50 at x=30

	out, err := Render(src, region, region.Size(), false)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 40, 50), out.Bounds())
	assert.Equal(t, src.RGBAAt(30, 0), out.RGBAAt(0, 0))
	assert.Equal(t, src.RGBAAt(69, 49), out.RGBAAt(39, 49))
}

func TestRender_MirrorsFrontCapture(t *testing.T) {
	src := gradient(100, 50)
	region := CropRegion(100, 50)

	plain, err := Render(src, region, region.Size(), false)
	require.NoError(t, err)
	mirrored, err := Render(src, region, region.Size(), true)
	require.NoError(t, err)

	assert.Equal(t, plain.RGBAAt(0, 10), mirrored.RGBAAt(39, 10))
	Mirror(mirrored)
	assert.Equal(t, plain.Pix, mirrored.Pix)
}

func TestRender_ScalesToDisplay(t *testing.T) {
	src := gradient(640, 480)
	out, err := Render(src, CropRegion(640, 480), image.Pt(320, 400), false)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(320, 400), out.Bounds().Size())
}

func TestRender_NoSurface(t *testing.T) {
	src := gradient(10, 10)
	_, err := Render(src, CropRegion(10, 10), image.Pt(0, 0), false)
	assert.ErrorIs(t, err, ErrSurfaceUnavailable)

	_, err = Render(src, Region{}, image.Pt(10, 10), false)
	assert.ErrorIs(t, err, ErrSurfaceUnavailable)
}

func TestCrop_OffsetBounds(t *testing.T) {
	src := gradient(200, 100).SubImage(image.Rect(100, 0, 200, 100)).(*image.RGBA)

	cropped, err := Crop(src)
	require.NoError(t, err)

	assert.Equal(t, image.Pt(80, 100), cropped.Bounds().Size())
	assert.Equal(t, 110, cropped.Bounds().Min.X)
}
