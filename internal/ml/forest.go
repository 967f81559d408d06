package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// DefaultTrees is the forest size used when RandomForest.Trees is unset.
const DefaultTrees = 100

// RandomForest is a bagged ensemble of gini decision trees. Each split
// considers sqrt(features) randomly chosen non-constant features.
type RandomForest struct {
	Trees   int      `json:"n_estimators"`
	Seed    int64    `json:"random_state"`
	Classes []string `json:"classes"`
	Forest  []Tree   `json:"trees"`
}

// Tree is a fitted decision tree stored as a flat node table; node 0 is the
// root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is either a split (Left/Right >= 0) or a leaf carrying the class
// distribution of its training samples.
type Node struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t"`
	Left      int       `json:"l"`
	Right     int       `json:"r"`
	Dist      []float64 `json:"p,omitempty"`
}

// NewRandomForest returns an unfitted forest.
func NewRandomForest(trees int, seed int64) *RandomForest {
	if trees <= 0 {
		trees = DefaultTrees
	}
	return &RandomForest{Trees: trees, Seed: seed}
}

// Fitted reports whether Fit has run.
func (f *RandomForest) Fitted() bool {
	return f != nil && len(f.Classes) > 0 && len(f.Forest) > 0
}

// Fit trains the forest on X with labels y. nFeatures is the dimensionality
// of X.
func (f *RandomForest) Fit(X []Vector, y []string, nFeatures int) error {
	if len(X) == 0 {
		return ErrNoSamples
	}
	if len(X) != len(y) {
		return ErrLengthMismatch
	}
	if f.Trees <= 0 {
		f.Trees = DefaultTrees
	}
	classes, yi := classIndex(y)
	f.Classes = classes
	f.Forest = make([]Tree, f.Trees)

	maxFeatures := int(math.Sqrt(float64(nFeatures)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	rng := rand.New(rand.NewSource(f.Seed))
	for t := 0; t < f.Trees; t++ {
		sample := make([]int, len(X))
		for i := range sample {
			sample[i] = rng.Intn(len(X))
		}
		b := treeBuilder{
			X:           X,
			y:           yi,
			nClasses:    len(classes),
			maxFeatures: maxFeatures,
			rng:         rand.New(rand.NewSource(rng.Int63())),
		}
		b.grow(sample)
		f.Forest[t] = Tree{Nodes: b.nodes}
	}
	return nil
}

// PredictProba returns the averaged class distribution for x, aligned with
// Classes.
func (f *RandomForest) PredictProba(x Vector) []float64 {
	out := make([]float64, len(f.Classes))
	if len(f.Forest) == 0 {
		return out
	}
	for _, tree := range f.Forest {
		dist := tree.leaf(x)
		for c := range out {
			if c < len(dist) {
				out[c] += dist[c]
			}
		}
	}
	for c := range out {
		out[c] /= float64(len(f.Forest))
	}
	return out
}

// Predict returns the most probable class and its probability. Ties resolve
// to the lexically smallest class.
func (f *RandomForest) Predict(x Vector) (string, float64) {
	proba := f.PredictProba(x)
	if len(proba) == 0 {
		return "", 0
	}
	best := 0
	for c := 1; c < len(proba); c++ {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return f.Classes[best], proba[best]
}

// PredictAll predicts each row of X.
func (f *RandomForest) PredictAll(X []Vector) []string {
	out := make([]string, len(X))
	for i, x := range X {
		out[i], _ = f.Predict(x)
	}
	return out
}

// Validate checks a decoded forest before use: split features must lie in
// [0, nFeatures), children must point forward inside the node table and
// leaves must carry one probability per class. Trees that pass cannot loop
// or index out of range in PredictProba.
func (f *RandomForest) Validate(nFeatures int) error {
	for ti, tree := range f.Forest {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("%w: tree %d has no nodes", ErrMalformedTree, ti)
		}
		for k, n := range tree.Nodes {
			if n.Left < 0 || n.Right < 0 {
				if n.Left >= 0 || n.Right >= 0 {
					return fmt.Errorf("%w: tree %d node %d has one child", ErrMalformedTree, ti, k)
				}
				if len(n.Dist) != len(f.Classes) {
					return fmt.Errorf("%w: tree %d leaf %d has %d probabilities for %d classes", ErrMalformedTree, ti, k, len(n.Dist), len(f.Classes))
				}
				continue
			}
			if n.Feature < 0 || n.Feature >= nFeatures {
				return fmt.Errorf("%w: tree %d node %d splits on feature %d of %d", ErrMalformedTree, ti, k, n.Feature, nFeatures)
			}
			for _, child := range []int{n.Left, n.Right} {
				if child <= k || child >= len(tree.Nodes) {
					return fmt.Errorf("%w: tree %d node %d has child %d", ErrMalformedTree, ti, k, child)
				}
			}
		}
	}
	return nil
}

func (t Tree) leaf(x Vector) []float64 {
	if len(t.Nodes) == 0 {
		return nil
	}
	k := 0
	for {
		n := t.Nodes[k]
		if n.Left < 0 {
			return n.Dist
		}
		if x.At(n.Feature) <= n.Threshold {
			k = n.Left
		} else {
			k = n.Right
		}
	}
}

type treeBuilder struct {
	X           []Vector
	y           []int
	nClasses    int
	maxFeatures int
	rng         *rand.Rand
	nodes       []Node
}

type split struct {
	feature   int
	threshold float64
	impurity  float64
}

func (b *treeBuilder) grow(samples []int) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Left: -1, Right: -1})

	counts := b.counts(samples)
	if len(samples) < 2 || isPure(counts) {
		b.nodes[id].Dist = normalize(counts)
		return id
	}

	best, ok := b.bestSplit(samples, counts)
	if !ok {
		b.nodes[id].Dist = normalize(counts)
		return id
	}

	var left, right []int
	for _, s := range samples {
		if b.X[s].At(best.feature) <= best.threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	l := b.grow(left)
	r := b.grow(right)
	b.nodes[id].Feature = best.feature
	b.nodes[id].Threshold = best.threshold
	b.nodes[id].Left = l
	b.nodes[id].Right = r
	return id
}

// bestSplit draws candidate features among those non-zero in at least one
// sample; features absent from every sample are constant and never split.
// Drawing continues past maxFeatures until a valid split exists.
func (b *treeBuilder) bestSplit(samples []int, counts []float64) (split, bool) {
	active := map[int]struct{}{}
	for _, s := range samples {
		for _, f := range b.X[s].Indices {
			active[f] = struct{}{}
		}
	}
	features := make([]int, 0, len(active))
	for f := range active {
		features = append(features, f)
	}
	sort.Ints(features)
	b.rng.Shuffle(len(features), func(i, j int) { features[i], features[j] = features[j], features[i] })

	parent := gini(counts, float64(len(samples)))
	best := split{impurity: math.Inf(1)}
	found := false
	visited := 0
	for _, f := range features {
		if visited >= b.maxFeatures && found {
			break
		}
		cand, ok := b.evaluate(samples, f)
		if !ok {
			continue
		}
		visited++
		if cand.impurity < best.impurity {
			best = cand
			found = true
		}
	}
	if !found || best.impurity >= parent {
		return split{}, false
	}
	return best, true
}

func (b *treeBuilder) evaluate(samples []int, feature int) (split, bool) {
	type pair struct {
		v float64
		c int
	}
	pairs := make([]pair, len(samples))
	for i, s := range samples {
		pairs[i] = pair{v: b.X[s].At(feature), c: b.y[s]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].v < pairs[j].v })
	if pairs[0].v == pairs[len(pairs)-1].v {
		return split{}, false
	}

	n := float64(len(pairs))
	left := make([]float64, b.nClasses)
	right := make([]float64, b.nClasses)
	for _, p := range pairs {
		right[p.c]++
	}
	best := split{feature: feature, impurity: math.Inf(1)}
	for i := 0; i < len(pairs)-1; i++ {
		left[pairs[i].c]++
		right[pairs[i].c]--
		if pairs[i].v == pairs[i+1].v {
			continue
		}
		nl := float64(i + 1)
		nr := n - nl
		imp := (nl*gini(left, nl) + nr*gini(right, nr)) / n
		if imp < best.impurity {
			best.impurity = imp
			best.threshold = (pairs[i].v + pairs[i+1].v) / 2
		}
	}
	return best, !math.IsInf(best.impurity, 1)
}

func (b *treeBuilder) counts(samples []int) []float64 {
	out := make([]float64, b.nClasses)
	for _, s := range samples {
		out[b.y[s]]++
	}
	return out
}

func gini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := c / n
		g -= p * p
	}
	return g
}

func isPure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func normalize(counts []float64) []float64 {
	var total float64
	for _, c := range counts {
		total += c
	}
	out := make([]float64, len(counts))
	if total == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = c / total
	}
	return out
}
