package tools

import (
	"segmate/internal/editor"
	"segmate/internal/plugins"
)

// ThresholdEntryPoint is the plugin entry point of the threshold tool.
const ThresholdEntryPoint = "segmate.tools.Threshold"

func init() {
	plugins.Provide(ThresholdEntryPoint, NewThreshold)
}

// Threshold segments the image layer with Otsu's method into the mask. It
// ships as a plugin: a plugin directory whose manifest names the entry point
// installs it.
type Threshold struct {
	selecting
	panel *editor.Panel
}

// NewThreshold creates a threshold tool.
func NewThreshold() editor.Tool {
	t := &Threshold{}
	t.panel = editor.NewPanel("Threshold").
		AddLabel("Otsu threshold of the image layer").
		AddAction("Threshold", t.Run)
	return t
}

func (t *Threshold) Panel() *editor.Panel { return t.panel }

// Run replaces the mask with the thresholded image layer.
func (t *Threshold) Run() {
	if !t.CheckEditable() {
		return
	}
	base := t.Layer(0)
	if base == nil || base.Bounds() != t.Canvas().Bounds() {
		t.SendStatus("No image layer to threshold")
		return
	}
	out := otsu(base)
	defer out.Close()

	t.applyGray("Threshold", matToGray(out))
}
