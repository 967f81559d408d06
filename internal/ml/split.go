package ml

import (
	"math"
	"math/rand"
	"sort"
)

// TrainTestSplit shuffles sample positions with seed and returns a train and a
// test partition. The test size is ceil(testFraction*n).
func TrainTestSplit(n int, testFraction float64, seed int64) ([]int, []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := testSize(n, testFraction)
	test := append([]int(nil), perm[:nTest]...)
	train := append([]int(nil), perm[nTest:]...)
	return train, test
}

// StratifiedSplit is TrainTestSplit preserving class proportions. ok is false
// when stratification is impossible: a class with fewer than two members, or
// a partition smaller than the number of classes.
func StratifiedSplit(labels []string, testFraction float64, seed int64) (train, test []int, ok bool) {
	n := len(labels)
	classes, yi := classIndex(labels)
	nTest := testSize(n, testFraction)
	if nTest < len(classes) || n-nTest < len(classes) {
		return nil, nil, false
	}
	members := make([][]int, len(classes))
	for i, c := range yi {
		members[c] = append(members[c], i)
	}
	for _, m := range members {
		if len(m) < 2 {
			return nil, nil, false
		}
	}

	// Largest-remainder allocation of test slots, each class keeping at
	// least one sample on each side.
	alloc := make([]int, len(classes))
	type rem struct {
		class int
		frac  float64
	}
	rems := make([]rem, len(classes))
	assigned := 0
	for c, m := range members {
		exact := float64(len(m)) * float64(nTest) / float64(n)
		alloc[c] = int(math.Floor(exact))
		if alloc[c] < 1 {
			alloc[c] = 1
		}
		if alloc[c] > len(m)-1 {
			alloc[c] = len(m) - 1
		}
		assigned += alloc[c]
		rems[c] = rem{class: c, frac: exact - math.Floor(exact)}
	}
	sort.SliceStable(rems, func(i, j int) bool { return rems[i].frac > rems[j].frac })
	for k := 0; assigned < nTest && k < 2*len(rems); k++ {
		c := rems[k%len(rems)].class
		if alloc[c] < len(members[c])-1 {
			alloc[c]++
			assigned++
		}
	}

	rng := rand.New(rand.NewSource(seed))
	for c, m := range members {
		shuffled := append([]int(nil), m...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		test = append(test, shuffled[:alloc[c]]...)
		train = append(train, shuffled[alloc[c]:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test, true
}

// Accuracy returns the fraction of equal positions.
func Accuracy(pred, truth []string) float64 {
	if len(truth) == 0 || len(pred) != len(truth) {
		return 0
	}
	hits := 0
	for i := range truth {
		if pred[i] == truth[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(truth))
}

func testSize(n int, fraction float64) int {
	t := int(math.Ceil(fraction * float64(n)))
	if t > n {
		t = n
	}
	return t
}

// Subset picks the rows at positions idx.
func Subset[T any](rows []T, idx []int) []T {
	out := make([]T, len(idx))
	for k, i := range idx {
		out[k] = rows[i]
	}
	return out
}
