package ml

import (
	"math"
	"math/rand"
	"sort"
)

// treeNode is one node of a classification tree. Leaves carry per-class
// sample counts from training.
type treeNode struct {
	feature     int
	threshold   float64
	left, right *treeNode
	leaf        bool
	counts      []int
}

type treeBuilder struct {
	x               [][]float64
	y               []int // class indices
	nClasses        int
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int
	nCandidates     int
	rng             *rand.Rand
}

func (b *treeBuilder) build(indices []int, depth int) *treeNode {
	counts := b.classCounts(indices)
	if depth >= b.maxDepth || len(indices) < b.minSamplesSplit || pure(counts) {
		return &treeNode{leaf: true, counts: counts}
	}

	feature, threshold, ok := b.bestSplit(indices)
	if !ok {
		return &treeNode{leaf: true, counts: counts}
	}

	var left, right []int
	for _, i := range indices {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      b.build(left, depth+1),
		right:     b.build(right, depth+1),
	}
}

// bestSplit scans a random √p subset of features for the threshold with the
// lowest weighted gini impurity, honoring the minimum leaf size.
func (b *treeBuilder) bestSplit(indices []int) (int, float64, bool) {
	nFeatures := len(b.x[0])
	candidates := b.rng.Perm(nFeatures)[:b.nCandidates]
	sort.Ints(candidates) // deterministic evaluation order

	bestGini := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	for _, f := range candidates {
		values := make([]float64, 0, len(indices))
		for _, i := range indices {
			values = append(values, b.x[i][f])
		}
		sort.Float64s(values)

		for v := 1; v < len(values); v++ {
			if values[v] == values[v-1] {
				continue
			}
			threshold := (values[v] + values[v-1]) / 2
			leftCounts := make([]int, b.nClasses)
			rightCounts := make([]int, b.nClasses)
			nLeft, nRight := 0, 0
			for _, i := range indices {
				if b.x[i][f] <= threshold {
					leftCounts[b.y[i]]++
					nLeft++
				} else {
					rightCounts[b.y[i]]++
					nRight++
				}
			}
			if nLeft < b.minSamplesLeaf || nRight < b.minSamplesLeaf {
				continue
			}
			g := (float64(nLeft)*gini(leftCounts, nLeft) + float64(nRight)*gini(rightCounts, nRight)) / float64(nLeft+nRight)
			if g < bestGini {
				bestGini = g
				bestFeature = f
				bestThreshold = threshold
			}
		}
	}
	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func (b *treeBuilder) classCounts(indices []int) []int {
	counts := make([]int, b.nClasses)
	for _, i := range indices {
		counts[b.y[i]]++
	}
	return counts
}

func (n *treeNode) predict(row []float64) []int {
	if n.leaf {
		return n.counts
	}
	if row[n.feature] <= n.threshold {
		return n.left.predict(row)
	}
	return n.right.predict(row)
}

func gini(counts []int, total int) float64 {
	if total == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		impurity -= p * p
	}
	return impurity
}

func pure(counts []int) bool {
	seen := 0
	for _, c := range counts {
		if c > 0 {
			seen++
		}
	}
	return seen <= 1
}

func majority(counts []int) int {
	best, bestCount := 0, -1
	for class, c := range counts {
		if c > bestCount {
			best, bestCount = class, c
		}
	}
	return best
}
