// Package tools holds the built-in editor tools. Mask operations run on
// OpenCV through gocv.
package tools

import "segmate/internal/editor"

// Keys of the built-in tools.
const (
	CursorKey     = editor.CursorTool
	DrawKey       = "draw_tool"
	BucketFillKey = "bucket_tool"
	ContourKey    = "contour_tool"
	MorphologyKey = "morphology_tool"
	MasksKey      = "masks_tool"
	CopyMaskKey   = "copymask_tool"
	FillHolesKey  = "fillholes_tool"
)

// Register adds the built-in tools to reg.
func Register(reg *editor.Registry) {
	reg.Register(CursorKey, "Cursor", NewCursor)
	reg.Register(DrawKey, "Draw", NewDraw)
	reg.Register(BucketFillKey, "Bucket Fill", NewBucketFill)
	reg.Register(ContourKey, "Contour", NewContour)
	reg.Register(MorphologyKey, "Morphology", NewMorphology)
	reg.Register(MasksKey, "Masks", NewMasks)
	reg.Register(CopyMaskKey, "Copy Mask", NewCopyMask)
	reg.Register(FillHolesKey, "Fill Holes", NewFillHoles)
}
