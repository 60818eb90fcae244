package tools

import (
	"image"

	"segmate/internal/editor"
)

// Contour previews the outlines of the mask. It never changes the layer.
type Contour struct {
	editor.BaseTool
}

// NewContour creates a contour tool.
func NewContour() editor.Tool {
	return &Contour{}
}

func (t *Contour) OnPaint() *image.RGBA {
	canvas := t.Canvas()
	if canvas == nil || !t.IsMask() {
		return canvas
	}
	m := maskMat(canvas)
	defer m.Close()

	outline := contours(m)
	defer outline.Close()
	return colored(outline, t.Color())
}
