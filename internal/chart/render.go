package chart

// Scene is the drawable result of a chart spec. Exactly one of Bars, Line or
// Pie is populated, matching Kind.
type Scene struct {
	Kind   Kind       `json:"kind"`
	Title  string     `json:"title"`
	Bars   []Bar      `json:"bars,omitempty"`
	Line   *LineScene `json:"line,omitempty"`
	Pie    []Slice    `json:"pie,omitempty"`
	Legend []Legend   `json:"legend"`
}

// Legend is a label row printed under a chart.
type Legend struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

// Empty reports whether the scene has nothing to draw.
func (s Scene) Empty() bool {
	switch s.Kind {
	case KindBar:
		return len(s.Bars) == 0
	case KindLine:
		return s.Line == nil || len(s.Line.Points) == 0
	case KindPie:
		return len(s.Pie) == 0
	}
	return true
}

// Render selects the geometry for spec.Kind and builds the scene.
func Render(spec Spec) (Scene, error) {
	if err := spec.Validate(); err != nil {
		return Scene{}, err
	}

	scene := Scene{Kind: spec.Kind, Title: spec.Title, Legend: []Legend{}}
	if len(spec.Series) == 0 {
		return scene, nil
	}

	switch spec.Kind {
	case KindBar:
		scene.Bars = BarGeometry(spec.Series, spec.accent())
		for _, b := range scene.Bars {
			scene.Legend = append(scene.Legend, Legend{Label: b.Label, Value: b.Value})
		}
	case KindLine:
		line := LineGeometry(spec.Series, spec.accent())
		scene.Line = &line
		for _, item := range spec.Series {
			scene.Legend = append(scene.Legend, Legend{Label: item.Label, Value: item.Value})
		}
	case KindPie:
		scene.Pie = PieGeometry(spec.Series)
		for i, item := range spec.Series {
			scene.Legend = append(scene.Legend, Legend{Label: item.Label, Value: item.Value, Color: Palette[i%len(Palette)]})
		}
	}
	return scene, nil
}
