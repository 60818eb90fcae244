package editor

// Panel is the parameter panel a tool shows next to the canvas. It only
// describes the controls; ui/panels turns it into widgets.
type Panel struct {
	Title string
	Items []PanelItem
}

// PanelItem is one of *Slider, *Action, *Separator or *Label.
type PanelItem interface {
	panelItem()
}

// Slider is an integer slider.
type Slider struct {
	Label    string
	Min, Max int
	Value    int
	OnChange func(v int)
}

// Action is a push button.
type Action struct {
	Label string
	Run   func()
}

// Separator draws a horizontal rule.
type Separator struct{}

// Label shows static text.
type Label struct {
	Text string
}

func (*Slider) panelItem() {}
func (*Action) panelItem() {}
func (*Separator) panelItem() {}
func (*Label) panelItem() {}

// NewPanel creates an empty panel.
func NewPanel(title string) *Panel {
	return &Panel{Title: title}
}

// AddSlider appends a slider and returns the panel.
func (p *Panel) AddSlider(label string, min, max, value int, onChange func(int)) *Panel {
	p.Items = append(p.Items, &Slider{Label: label, Min: min, Max: max, Value: value, OnChange: onChange})
	return p
}

// AddAction appends a button and returns the panel.
func (p *Panel) AddAction(label string, run func()) *Panel {
	p.Items = append(p.Items, &Action{Label: label, Run: run})
	return p
}

// AddSeparator appends a separator and returns the panel.
func (p *Panel) AddSeparator() *Panel {
	p.Items = append(p.Items, &Separator{})
	return p
}

// AddLabel appends static text and returns the panel.
func (p *Panel) AddLabel(text string) *Panel {
	p.Items = append(p.Items, &Label{Text: text})
	return p
}

// Action returns the action with the given label, or nil.
func (p *Panel) Action(label string) *Action {
	for _, it := range p.Items {
		if a, ok := it.(*Action); ok && a.Label == label {
			return a
		}
	}
	return nil
}

// Slider returns the slider with the given label, or nil.
func (p *Panel) Slider(label string) *Slider {
	for _, it := range p.Items {
		if s, ok := it.(*Slider); ok && s.Label == label {
			return s
		}
	}
	return nil
}
