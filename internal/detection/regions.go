package detection

// ComputeRegions turns lines sorted left to right into candidate spine
// strips of a width x height row.
//
// With no lines the whole row is one region. Otherwise the strip before the
// first line, each gap between neighbouring lines and the strip after the
// last line are kept when their width lies strictly inside
// Config.WidthBounds(width).
func ComputeRegions(lines []Line, width, height int, cfg Config) []Region {
	if len(lines) == 0 {
		return []Region{{X: 0, Width: float64(width), Height: height}}
	}
	minW, maxW := cfg.WidthBounds(width)

	var regions []Region
	add := func(x0, x1 float64, left, right *Line) {
		w := x1 - x0
		if w > minW && w < maxW {
			regions = append(regions, Region{X: x0, Width: w, Height: height, Left: left, Right: right})
		}
	}

	edge := func(i int) *Line {
		l := lines[i]
		return &l
	}

	add(0, lines[0].Key, nil, edge(0))
	for i := 0; i+1 < len(lines); i++ {
		add(lines[i].Key, lines[i+1].Key, edge(i), edge(i+1))
	}
	last := len(lines) - 1
	add(lines[last].Key, float64(width), edge(last), nil)
	return regions
}
