package draw

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

var red = color.RGBA{R: 255, A: 255}

func TestFloodFill_UniformZeroFillsEverything(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))

	n := FloodFill(img, image.Pt(3, 2), red)

	assert.Equal(t, 48, n)
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			assert.Equal(t, red, img.RGBAAt(x, y))
		}
	}
}

func TestFloodFill_StopsAtBoundary(t *testing.T) {
	assert := assert.New(t)

	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	// A closed box from (2,2) to (6,6).
	Rectangle(img, image.Rect(2, 2, 7, 7), red)

	FloodFill(img, image.Pt(4, 4), red)

	// Interior filled.
	assert.Equal(red, img.RGBAAt(3, 3))
	assert.Equal(red, img.RGBAAt(5, 5))
	// Outside untouched.
	assert.Equal(color.RGBA{}, img.RGBAAt(0, 0))
	assert.Equal(color.RGBA{}, img.RGBAAt(8, 4))
}

func TestFloodFill_Idempotent(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	Rectangle(img, image.Rect(1, 1, 8, 8), red)

	FloodFill(img, image.Pt(4, 4), red)
	once := bytes.Clone(img.Pix)
	FloodFill(img, image.Pt(4, 4), red)

	assert.Equal(t, once, img.Pix)
}

func TestFloodFill_EraseConnectedBlob(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 3))
	Line(img, image.Pt(0, 1), image.Pt(3, 1), red, 1)
	Line(img, image.Pt(6, 1), image.Pt(9, 1), red, 1)

	FloodFill(img, image.Pt(1, 1), color.RGBA{})

	assert.Equal(t, color.RGBA{}, img.RGBAAt(2, 1))
	assert.Equal(t, red, img.RGBAAt(7, 1))
}

func TestFloodFill_SeedOutside(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	assert.Zero(t, FloodFill(img, image.Pt(5, 5), red))
}

func TestLine_WidthAndClipping(t *testing.T) {
	assert := assert.New(t)

	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	Line(img, image.Pt(-5, 10), image.Pt(25, 10), red, 5)

	assert.Equal(red, img.RGBAAt(0, 10))
	assert.Equal(red, img.RGBAAt(19, 10))
	assert.Equal(red, img.RGBAAt(10, 8))
	assert.Equal(red, img.RGBAAt(10, 12))
	assert.Equal(color.RGBA{}, img.RGBAAt(10, 14))
}

func TestLine_TransparentErases(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 5, 5))
	FloodFill(img, image.Pt(0, 0), red)

	Line(img, image.Pt(0, 2), image.Pt(4, 2), color.RGBA{}, 1)

	assert.Equal(t, color.RGBA{}, img.RGBAAt(2, 2))
	assert.Equal(t, red, img.RGBAAt(2, 1))
}

func TestClone(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	c := Clone(img)
	c.SetRGBA(0, 0, red)

	assert.Equal(t, color.RGBA{}, img.RGBAAt(0, 0))
	assert.Nil(t, Clone(nil))
}
