package tools

import "segmate/internal/editor"

// FillHoles closes the interior holes of the whole mask.
type FillHoles struct {
	editor.BaseTool
	panel *editor.Panel
}

// NewFillHoles creates a fill holes tool.
func NewFillHoles() editor.Tool {
	t := &FillHoles{}
	t.panel = editor.NewPanel("Fill Holes Tool").
		AddAction("Fill holes in layer", t.Fill)
	return t
}

func (t *FillHoles) Panel() *editor.Panel { return t.panel }

// Fill fills every hole of the mask.
func (t *FillHoles) Fill() {
	if !t.CheckEditable() {
		return
	}
	m := maskMat(t.Canvas())
	defer m.Close()

	filled := fillHoles(m)
	defer filled.Close()
	t.Apply(colored(filled, t.Color()), "Fill Holes")
}
