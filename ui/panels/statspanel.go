package panels

import (
	"errors"
	"log"

	"segmate/internal/app"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// StatsPanel shows the area, centroid and intensity of each mask layer of
// the loaded image.
type StatsPanel struct {
	state     *app.State
	container *fyne.Container
	rows      *fyne.Container
}

// NewStatsPanel creates a new statistics panel.
func NewStatsPanel(state *app.State) *StatsPanel {
	sp := &StatsPanel{
		state: state,
		rows:  container.NewVBox(),
	}
	refresh := widget.NewButton("Refresh", sp.Sync)
	sp.container = container.NewVBox(
		widget.NewCard("Mask Statistics", "", sp.rows),
		refresh,
	)
	return sp
}

// Container returns the panel container.
func (sp *StatsPanel) Container() fyne.CanvasObject {
	return sp.container
}

// Sync recomputes the statistics.
func (sp *StatsPanel) Sync() {
	sp.rows.RemoveAll()
	defer sp.rows.Refresh()

	all, err := sp.state.MaskStats()
	if err != nil {
		if !errors.Is(err, app.ErrNoProject) {
			log.Printf("Panels: mask stats: %v", err)
		}
		sp.rows.Add(widget.NewLabel("No statistics"))
		return
	}
	st := sp.state.Store
	for l, s := range all {
		if !st.Layer(l).Mask {
			continue
		}
		name := widget.NewLabelWithStyle(st.Layer(l).Folder, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
		value := widget.NewLabel(s.String())
		value.Wrapping = fyne.TextWrapWord
		sp.rows.Add(container.NewVBox(name, value))
	}
}
