package ollama

import "github.com/ollama/ollama/api"

type layer struct {
	total     int64
	completed int64
}

// pullProgress folds per-layer pull reports into one percentage. Layers appear
// one after another, so the raw ratio can drop when a new layer is announced;
// the reported value never decreases.
type pullProgress struct {
	layers map[string]layer
	last   float64
}

func newPullProgress() *pullProgress {
	return &pullProgress{layers: map[string]layer{}}
}

// update records p and returns the percentage to report, if any.
func (pp *pullProgress) update(p api.ProgressResponse) (float64, bool) {
	if p.Digest == "" || p.Total <= 0 {
		return 0, false
	}
	pp.layers[p.Digest] = layer{total: p.Total, completed: min(p.Completed, p.Total)}

	var total, completed int64
	for _, l := range pp.layers {
		total += l.total
		completed += l.completed
	}
	pct := float64(completed) * 100 / float64(total)
	if pct <= pp.last {
		return 0, false
	}
	pp.last = pct
	return pct, true
}
