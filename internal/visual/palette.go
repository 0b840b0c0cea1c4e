package visual

// Colors is a fill pair for normal and selected state.
type Colors struct {
	Background         string `toml:"background"`
	BackgroundSelected string `toml:"background_selected"`
	Progress           string `toml:"progress"`
	ProgressSelected   string `toml:"progress_selected"`
}

// BackgroundFor returns the background fill for the selection state.
func (c Colors) BackgroundFor(selected bool) string {
	if selected {
		return c.BackgroundSelected
	}
	return c.Background
}

// ProgressFor returns the progress fill for the selection state.
func (c Colors) ProgressFor(selected bool) string {
	if selected {
		return c.ProgressSelected
	}
	return c.Progress
}

// Palette holds every color the chart draws with.
type Palette struct {
	Bar          Colors `toml:"bar"`
	Project      Colors `toml:"project"`
	Milestone    Colors `toml:"milestone"`
	Handle       string `toml:"handle"`
	Arrow        string `toml:"arrow"`
	Label        string `toml:"label"`
	LabelOutside string `toml:"label_outside"`
	GridRow      string `toml:"grid_row"`
	GridRowAlt   string `toml:"grid_row_alt"`
	GridLine     string `toml:"grid_line"`
	Today        string `toml:"today"`
	Header       string `toml:"header"`
	HeaderText   string `toml:"header_text"`
}

// DefaultPalette returns the stock light theme.
func DefaultPalette() Palette {
	return Palette{
		Bar: Colors{
			Background:         "#b8c2cc",
			BackgroundSelected: "#aeb8c2",
			Progress:           "#a3a3ff",
			ProgressSelected:   "#8282f5",
		},
		Project: Colors{
			Background:         "#fac465",
			BackgroundSelected: "#f7bb53",
			Progress:           "#7db59a",
			ProgressSelected:   "#59a985",
		},
		Milestone: Colors{
			Background:         "#f1c453",
			BackgroundSelected: "#f29e4c",
		},
		Handle:       "#dddddd",
		Arrow:        "grey",
		Label:        "#ffffff",
		LabelOutside: "#555555",
		GridRow:      "#ffffff",
		GridRowAlt:   "#f5f5f5",
		GridLine:     "#ebeff2",
		Today:        "rgba(252, 248, 227, 0.5)",
		Header:       "#ffffff",
		HeaderText:   "#333333",
	}
}
