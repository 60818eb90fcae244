package panels

import (
	"fmt"

	"segmate/internal/editor"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// ToolPanel shows the parameter panel of the current tool.
type ToolPanel struct {
	container *fyne.Container
	onAction  func()
}

// NewToolPanel creates an empty tool panel.
func NewToolPanel() *ToolPanel {
	tp := &ToolPanel{
		container: container.NewVBox(),
	}
	tp.SetPanel(nil)
	return tp
}

// Container returns the panel container.
func (tp *ToolPanel) Container() fyne.CanvasObject {
	return tp.container
}

// OnAction sets a callback run after any tool action button.
func (tp *ToolPanel) OnAction(callback func()) {
	tp.onAction = callback
}

// SetPanel replaces the shown controls with those of p. A nil panel shows a
// placeholder.
func (tp *ToolPanel) SetPanel(p *editor.Panel) {
	tp.container.RemoveAll()
	if p == nil {
		tp.container.Add(widget.NewLabel("No settings for this tool"))
	} else {
		tp.container.Add(widget.NewCard(p.Title, "", BuildPanel(p, tp.afterAction)))
	}
	tp.container.Refresh()
}

func (tp *ToolPanel) afterAction() {
	if tp.onAction != nil {
		tp.onAction()
	}
}

// BuildPanel turns the items of p into widgets. after runs once each action
// button's Run returns.
func BuildPanel(p *editor.Panel, after func()) *fyne.Container {
	box := container.NewVBox()
	for _, item := range p.Items {
		switch it := item.(type) {
		case *editor.Slider:
			box.Add(sliderRow(it))
		case *editor.Action:
			action := it
			box.Add(widget.NewButton(action.Label, func() {
				if action.Run != nil {
					action.Run()
				}
				if after != nil {
					after()
				}
			}))
		case *editor.Separator:
			box.Add(widget.NewSeparator())
		case *editor.Label:
			l := widget.NewLabel(it.Text)
			l.Wrapping = fyne.TextWrapWord
			box.Add(l)
		}
	}
	return box
}

func sliderRow(s *editor.Slider) fyne.CanvasObject {
	value := widget.NewLabel(fmt.Sprintf("%d", s.Value))
	slider := widget.NewSlider(float64(s.Min), float64(s.Max))
	slider.Step = 1
	slider.SetValue(float64(s.Value))
	slider.OnChanged = func(v float64) {
		n := int(v)
		if n == s.Value {
			return
		}
		s.Value = n
		value.SetText(fmt.Sprintf("%d", n))
		if s.OnChange != nil {
			s.OnChange(n)
		}
	}
	return container.NewVBox(
		container.NewBorder(nil, nil, widget.NewLabel(s.Label+":"), value),
		slider,
	)
}
