package cvanalysis

import "sort"

// Result is one analyzed CV in a bulk response.
type Result struct {
	Filename string `json:"filename"`
	Analysis
	TextPreview string `json:"text_preview,omitempty"`
}

// TopCandidates returns at most n results of the given domain ordered by
// quality score, highest first. Equal scores keep their input order.
func TopCandidates(results []Result, domain string, n int) []Result {
	if n <= 0 {
		return []Result{}
	}
	out := []Result{}
	for _, r := range results {
		if r.Domain == domain {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].QualityScore > out[j].QualityScore
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
