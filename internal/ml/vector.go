// Package ml holds the small set of learning algorithms used to classify CVs:
// a TF-IDF vectorizer, a random forest and an RBF-kernel SVM, all operating on
// sparse vectors and all serializable to JSON.
package ml

import (
	"errors"
	"sort"
)

var (
	ErrNoSamples       = errors.New("ml: no training samples")
	ErrLengthMismatch  = errors.New("ml: samples and labels differ in length")
	ErrEmptyVocabulary = errors.New("ml: empty vocabulary; documents contain only stop words")
	ErrTooManyClasses  = errors.New("ml: svm supports at most two classes")
	ErrMalformedTree   = errors.New("ml: malformed decision tree")
)

// Vector is a sparse feature vector. Indices are strictly increasing.
type Vector struct {
	Indices []int     `json:"i"`
	Values  []float64 `json:"v"`
}

// At returns the value of feature i.
func (v Vector) At(i int) float64 {
	k := sort.SearchInts(v.Indices, i)
	if k < len(v.Indices) && v.Indices[k] == i {
		return v.Values[k]
	}
	return 0
}

// Dot returns the inner product of two sparse vectors.
func (v Vector) Dot(o Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// SquaredNorm returns the squared L2 norm.
func (v Vector) SquaredNorm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return sum
}

func squaredDistance(a, b Vector) float64 {
	d := a.SquaredNorm() + b.SquaredNorm() - 2*a.Dot(b)
	if d < 0 {
		return 0
	}
	return d
}

// classIndex returns the sorted distinct labels and each sample's class index.
func classIndex(y []string) ([]string, []int) {
	seen := map[string]struct{}{}
	for _, label := range y {
		seen[label] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for label := range seen {
		classes = append(classes, label)
	}
	sort.Strings(classes)
	pos := make(map[string]int, len(classes))
	for i, c := range classes {
		pos[c] = i
	}
	idx := make([]int, len(y))
	for i, label := range y {
		idx[i] = pos[label]
	}
	return classes, idx
}
