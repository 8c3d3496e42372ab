package recur

import "evcal/internal/model"

// Filter keeps the instances whose start falls inside w (bounds included),
// in their original order, dropping repeats of an identical start/end pair.
// Filtering an already filtered set with the same window returns it as is.
func Filter(instances []Instance, w model.ViewWindow) []Instance {
	out := make([]Instance, 0, len(instances))
	seen := make(map[Instance]bool, len(instances))
	for _, in := range instances {
		if !w.Contains(in.Start) {
			continue
		}
		key := Instance{Start: in.Start.UTC(), End: in.End.UTC()}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, in)
	}
	return out
}
