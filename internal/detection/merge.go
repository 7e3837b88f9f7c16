package detection

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// MergeLines collapses near-duplicate parallel lines.
//
// Lines are sorted by Key and grouped greedily: a line joins the current
// group when its Key is within threshold of the last line added to it. A
// group becomes one line whose across-axis endpoints are the group means and
// whose along-axis endpoints are the enclosing span of all members, so the
// merged edge keeps the longest visual extent. The angle is the group mean.
//
// The input is not modified. Callers that need ordered output must call
// SortLines on the result.
func MergeLines(lines []Line, threshold float64) []Line {
	if len(lines) == 0 {
		return nil
	}
	sorted := make([]Line, len(lines))
	copy(sorted, lines)
	SortLines(sorted)

	merged := make([]Line, 0, len(sorted))
	group := []Line{sorted[0]}
	for _, l := range sorted[1:] {
		if math.Abs(l.Key-group[len(group)-1].Key) <= threshold {
			group = append(group, l)
			continue
		}
		merged = append(merged, collapse(group))
		group = []Line{l}
	}
	return append(merged, collapse(group))
}

// SortLines orders lines by Key, keeping the input order of equal keys.
func SortLines(lines []Line) {
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Key < lines[j].Key })
}

func collapse(group []Line) Line {
	n := len(group)
	across1 := make([]float64, n)
	across2 := make([]float64, n)
	angles := make([]float64, n)
	lo, hi := math.Inf(1), math.Inf(-1)

	vertical := group[0].Orientation != Horizontal
	for i, l := range group {
		l = normalized(l)
		angles[i] = l.Angle
		if vertical {
			across1[i], across2[i] = l.X1, l.X2
			lo, hi = math.Min(lo, l.Y1), math.Max(hi, l.Y2)
		} else {
			across1[i], across2[i] = l.Y1, l.Y2
			lo, hi = math.Min(lo, l.X1), math.Max(hi, l.X2)
		}
	}

	out := Line{Orientation: group[0].Orientation, Angle: stat.Mean(angles, nil)}
	if vertical {
		out.X1, out.X2 = stat.Mean(across1, nil), stat.Mean(across2, nil)
		out.Y1, out.Y2 = lo, hi
		out.Key = out.AvgX()
	} else {
		out.Y1, out.Y2 = stat.Mean(across1, nil), stat.Mean(across2, nil)
		out.X1, out.X2 = lo, hi
		out.Key = out.AvgY()
	}
	return out
}

// normalized orders the endpoints of l along its main axis: top to bottom
// for vertical lines, left to right for horizontal ones.
func normalized(l Line) Line {
	swap := l.Y1 > l.Y2
	if l.Orientation == Horizontal {
		swap = l.X1 > l.X2
	}
	if swap {
		l.X1, l.X2 = l.X2, l.X1
		l.Y1, l.Y2 = l.Y2, l.Y1
	}
	return l
}
