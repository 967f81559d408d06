package cvanalysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func result(name, domain string, score float64) Result {
	return Result{Filename: name, Analysis: Analysis{Domain: domain, QualityScore: score}}
}

func TestTopCandidates(t *testing.T) {
	results := []Result{
		result("a", DomainTech, 40),
		result("b", DomainEducation, 99),
		result("c", DomainTech, 80),
		result("d", DomainTech, 40),
		result("e", DomainTech, 10),
	}

	top := TopCandidates(results, DomainTech, 3)
	assert.Len(t, top, 3)
	assert.Equal(t, []string{"c", "a", "d"}, []string{top[0].Filename, top[1].Filename, top[2].Filename})
	for _, r := range top {
		assert.Equal(t, DomainTech, r.Domain)
	}

	assert.Len(t, TopCandidates(results, DomainTech, 10), 4)
	assert.Empty(t, TopCandidates(results, DomainLaw, 5))
	assert.Empty(t, TopCandidates(results, DomainTech, 0))
	assert.Empty(t, TopCandidates(results, DomainTech, -2))
}

func TestPreview(t *testing.T) {
	short := "court texte"
	assert.Equal(t, short, Preview(short))

	long := make([]rune, 600)
	for i := range long {
		long[i] = 'é'
	}
	p := []rune(Preview(string(long)))
	assert.Len(t, p, 503)
	assert.Equal(t, "...", string(p[500:]))
}
