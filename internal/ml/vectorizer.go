package ml

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// DefaultMaxFeatures caps the vocabulary size.
const DefaultMaxFeatures = 5000

// Vectorizer turns documents into L2-normalized TF-IDF vectors over a fixed
// vocabulary learned by Fit. Tokens are lowercase runs of at least two
// letters, digits or underscores; English stop words are dropped.
type Vectorizer struct {
	MaxFeatures int            `json:"max_features"`
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
}

// NewVectorizer returns an unfitted vectorizer. maxFeatures <= 0 selects
// DefaultMaxFeatures.
func NewVectorizer(maxFeatures int) *Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &Vectorizer{MaxFeatures: maxFeatures}
}

// Features returns the vocabulary size.
func (v *Vectorizer) Features() int {
	return len(v.IDF)
}

// Fitted reports whether Fit has produced a vocabulary.
func (v *Vectorizer) Fitted() bool {
	return v != nil && len(v.Vocabulary) > 0 && len(v.IDF) == len(v.Vocabulary)
}

// Fit learns the vocabulary and inverse document frequencies. When more
// distinct terms than MaxFeatures exist, the most frequent ones across the
// corpus are kept, ties broken alphabetically. Columns are assigned in
// alphabetical term order.
func (v *Vectorizer) Fit(docs []string) error {
	if len(docs) == 0 {
		return ErrNoSamples
	}
	if v.MaxFeatures <= 0 {
		v.MaxFeatures = DefaultMaxFeatures
	}

	totals := map[string]int{}
	docFreq := map[string]int{}
	for _, doc := range docs {
		seen := map[string]struct{}{}
		for _, tok := range Tokenize(doc) {
			totals[tok]++
			if _, ok := seen[tok]; !ok {
				seen[tok] = struct{}{}
				docFreq[tok]++
			}
		}
	}
	if len(totals) == 0 {
		return ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(totals))
	for term := range totals {
		terms = append(terms, term)
	}
	if len(terms) > v.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if totals[terms[i]] != totals[terms[j]] {
				return totals[terms[i]] > totals[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:v.MaxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v.Vocabulary = make(map[string]int, len(terms))
	v.IDF = make([]float64, len(terms))
	for i, term := range terms {
		v.Vocabulary[term] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}
	return nil
}

// Transform vectorizes a single document. Unknown terms are ignored; a
// document without known terms yields the zero vector.
func (v *Vectorizer) Transform(doc string) Vector {
	counts := map[int]float64{}
	for _, tok := range Tokenize(doc) {
		if col, ok := v.Vocabulary[tok]; ok {
			counts[col]++
		}
	}
	if len(counts) == 0 {
		return Vector{}
	}

	out := Vector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for col := range counts {
		out.Indices = append(out.Indices, col)
	}
	sort.Ints(out.Indices)
	var norm float64
	for _, col := range out.Indices {
		w := counts[col] * v.IDF[col]
		out.Values = append(out.Values, w)
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range out.Values {
			out.Values[i] /= norm
		}
	}
	return out
}

// TransformAll vectorizes every document.
func (v *Vectorizer) TransformAll(docs []string) []Vector {
	out := make([]Vector, len(docs))
	for i, doc := range docs {
		out[i] = v.Transform(doc)
	}
	return out
}

// FitTransform is Fit followed by TransformAll.
func (v *Vectorizer) FitTransform(docs []string) ([]Vector, error) {
	if err := v.Fit(docs); err != nil {
		return nil, err
	}
	return v.TransformAll(docs), nil
}

// Tokenize splits text into lowercase tokens of two or more word characters,
// dropping English stop words.
func Tokenize(text string) []string {
	var out []string
	var b strings.Builder
	runes := 0
	flush := func() {
		if runes >= 2 {
			tok := b.String()
			if _, stop := englishStopWords[tok]; !stop {
				out = append(out, tok)
			}
		}
		b.Reset()
		runes = 0
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
			runes++
			continue
		}
		flush()
	}
	flush()
	return out
}
