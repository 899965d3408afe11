package beam

// Palette cycles across arrays in overlay output.
var Palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728",
	"#9467bd", "#8c564b", "#e377c2", "#17becf",
}

// Overlay holds global element positions tagged with their array color.
type Overlay struct {
	X     []float64 `json:"x"`
	Y     []float64 `json:"y"`
	Color []string  `json:"color"`
	Array []int     `json:"array"`
}

// ColorFor returns the palette entry of the array at index i.
func ColorFor(i int) string {
	return Palette[i%len(Palette)]
}

func buildOverlay(arrays []*Array) Overlay {
	var o Overlay
	for ai, a := range arrays {
		color := ColorFor(ai)
		for _, e := range a.Elements {
			x, y := a.toGlobal(e.X, e.Y)
			o.X = append(o.X, x)
			o.Y = append(o.Y, y)
			o.Color = append(o.Color, color)
			o.Array = append(o.Array, ai)
		}
	}
	return o
}
