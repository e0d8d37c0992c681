package postprocess

import (
	"sort"

	"smartpole/internal/model"
)

// NMS performs class-aware non-maximum suppression: boxes of the same class
// overlapping a stronger one by more than threshold IoU are dropped.
// The result is ordered by descending confidence.
func NMS(cands []Candidate, threshold float64) []Candidate {
	if len(cands) == 0 {
		return []Candidate{}
	}

	sorted := make([]Candidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	kept := make([]Candidate, 0, len(sorted))
	for _, c := range sorted {
		suppressed := false
		for _, k := range kept {
			if k.ClassID == c.ClassID && IoU(k.Box, c.Box) > threshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, c)
		}
	}
	return kept
}

// IoU returns the intersection over union of two boxes.
func IoU(a, b model.BBox) float64 {
	ix := min(a.X2, b.X2) - max(a.X1, b.X1)
	iy := min(a.Y2, b.Y2) - max(a.Y1, b.Y1)
	if ix <= 0 || iy <= 0 {
		return 0
	}

	inter := ix * iy
	union := a.Width()*a.Height() + b.Width()*b.Height() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
