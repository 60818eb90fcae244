package geometry

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointFloorRoundsDown(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(PointInt{X: 2, Y: -1}, NewPoint2D(2.9, -0.1).Floor())
	assert.Equal(image.Pt(5, 2), NewPoint2D(10.5, 5).Scale(0.5).Floor().ImagePoint())
}

func TestRectFromCorners(t *testing.T) {
	assert := assert.New(t)
	r := RectFromCorners(PointInt{X: 5, Y: 1}, PointInt{X: 2, Y: 4})
	assert.Equal(RectInt{X: 2, Y: 1, Width: 3, Height: 3}, r)
	assert.True(r.Contains(2, 1))
	assert.False(r.Contains(5, 1))
	assert.True(r.Within(image.Rect(0, 0, 5, 4)))
	assert.False(r.Within(image.Rect(0, 0, 4, 4)))
	assert.True(RectFromCorners(PointInt{X: 1, Y: 1}, PointInt{X: 1, Y: 3}).Empty())
}
