// Package ml trains a random-forest classifier on the feature table and
// serves (class, probability) predictions through the same signal contract
// used by the rule-based strategies.
package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"
)

// ErrNotTrained is returned when Predict is invoked before Fit.
var ErrNotTrained = errors.New("model must be trained before predicting")

// Hyperparams is the closed set of recognized classifier knobs. Unknown keys
// in configuration are rejected at decode time; out-of-range values here.
type Hyperparams struct {
	NEstimators     int   `yaml:"n_estimators"`
	MaxDepth        int   `yaml:"max_depth"`
	MinSamplesSplit int   `yaml:"min_samples_split"`
	MinSamplesLeaf  int   `yaml:"min_samples_leaf"`
	Seed            int64 `yaml:"seed"`
}

// DefaultHyperparams mirrors the stock configuration: 200 trees, depth 6,
// seeded for reproducible runs.
func DefaultHyperparams() Hyperparams {
	return Hyperparams{NEstimators: 200, MaxDepth: 6, MinSamplesSplit: 2, MinSamplesLeaf: 1, Seed: 42}
}

// Validate checks every hyperparameter against its valid range.
func (h Hyperparams) Validate() error {
	if h.NEstimators < 1 || h.NEstimators > 1000 {
		return fmt.Errorf("n_estimators %d outside [1,1000]", h.NEstimators)
	}
	if h.MaxDepth < 1 || h.MaxDepth > 64 {
		return fmt.Errorf("max_depth %d outside [1,64]", h.MaxDepth)
	}
	if h.MinSamplesSplit < 2 {
		return fmt.Errorf("min_samples_split %d below 2", h.MinSamplesSplit)
	}
	if h.MinSamplesLeaf < 1 {
		return fmt.Errorf("min_samples_leaf %d below 1", h.MinSamplesLeaf)
	}
	return nil
}

// SignalModel is a supervised three-class (buy/sell/hold) signal source.
type SignalModel struct {
	params  Hyperparams
	log     zerolog.Logger
	classes []string
	trees   []*treeNode
}

// NewSignalModel validates the hyperparameters and returns an untrained model.
func NewSignalModel(params Hyperparams, log zerolog.Logger) (*SignalModel, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("classifier config: %w", err)
	}
	return &SignalModel{params: params, log: log}, nil
}

// Trained reports whether Fit has completed.
func (m *SignalModel) Trained() bool { return len(m.trees) > 0 }

// Fit trains the forest on a stratified 80/20 split with the configured seed
// and logs held-out classification performance. Identical inputs and seed
// reproduce an identical forest.
func (m *SignalModel) Fit(x [][]float64, y []string) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("training set malformed: %d rows, %d labels", len(x), len(y))
	}
	width := len(x[0])
	for i, row := range x {
		if len(row) != width {
			return fmt.Errorf("training row %d has width %d, want %d", i, len(row), width)
		}
	}

	classes, classIdx := classIndex(y)
	if len(classes) < 2 {
		return fmt.Errorf("training set needs at least 2 classes, got %d", len(classes))
	}
	encoded := make([]int, len(y))
	for i, label := range y {
		encoded[i] = classIdx[label]
	}

	rng := rand.New(rand.NewSource(m.params.Seed))
	trainIdx, testIdx := stratifiedSplit(encoded, len(classes), 0.2, rng)

	nCandidates := int(math.Ceil(math.Sqrt(float64(width))))
	builder := &treeBuilder{
		x:               x,
		y:               encoded,
		nClasses:        len(classes),
		maxDepth:        m.params.MaxDepth,
		minSamplesSplit: m.params.MinSamplesSplit,
		minSamplesLeaf:  m.params.MinSamplesLeaf,
		nCandidates:     nCandidates,
		rng:             rng,
	}

	trees := make([]*treeNode, 0, m.params.NEstimators)
	for t := 0; t < m.params.NEstimators; t++ {
		sample := make([]int, len(trainIdx))
		for i := range sample {
			sample[i] = trainIdx[rng.Intn(len(trainIdx))]
		}
		trees = append(trees, builder.build(sample, 0))
	}
	m.classes = classes
	m.trees = trees

	m.reportHeldOut(x, encoded, testIdx)
	return nil
}

// Prediction is the classifier's output for one feature row.
type Prediction struct {
	Class       string
	Probability float64
}

// Predict returns the majority class across the forest and the fraction of
// trees voting for it. It fails explicitly on an untrained model.
func (m *SignalModel) Predict(row []float64) (Prediction, error) {
	if !m.Trained() {
		return Prediction{}, ErrNotTrained
	}
	votes := make([]int, len(m.classes))
	for _, tree := range m.trees {
		votes[majority(tree.predict(row))]++
	}
	winner := majority(votes)
	return Prediction{
		Class:       m.classes[winner],
		Probability: float64(votes[winner]) / float64(len(m.trees)),
	}, nil
}

func (m *SignalModel) reportHeldOut(x [][]float64, y []int, testIdx []int) {
	if len(testIdx) == 0 {
		m.log.Warn().Msg("held-out set empty, skipping classification report")
		return
	}
	tp := make([]int, len(m.classes))
	fp := make([]int, len(m.classes))
	fn := make([]int, len(m.classes))
	correct := 0
	for _, i := range testIdx {
		pred, _ := m.Predict(x[i])
		predIdx := indexOf(m.classes, pred.Class)
		if predIdx == y[i] {
			tp[predIdx]++
			correct++
		} else {
			fp[predIdx]++
			fn[y[i]]++
		}
	}
	for c, class := range m.classes {
		precision := ratio(tp[c], tp[c]+fp[c])
		recall := ratio(tp[c], tp[c]+fn[c])
		f1 := 0.0
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		m.log.Info().
			Str("class", class).
			Float64("precision", precision).
			Float64("recall", recall).
			Float64("f1", f1).
			Msg("held-out class performance")
	}
	m.log.Info().
		Int("test_samples", len(testIdx)).
		Float64("accuracy", ratio(correct, len(testIdx))).
		Msg("held-out accuracy")
}

// stratifiedSplit shuffles each class bucket with the shared rng and carves
// off testFraction of every class, keeping at least one training sample per
// class.
func stratifiedSplit(y []int, nClasses int, testFraction float64, rng *rand.Rand) (train, test []int) {
	buckets := make([][]int, nClasses)
	for i, class := range y {
		buckets[class] = append(buckets[class], i)
	}
	for _, bucket := range buckets {
		rng.Shuffle(len(bucket), func(i, j int) { bucket[i], bucket[j] = bucket[j], bucket[i] })
		nTest := int(float64(len(bucket)) * testFraction)
		if nTest >= len(bucket) {
			nTest = len(bucket) - 1
		}
		if nTest < 0 {
			nTest = 0
		}
		test = append(test, bucket[:nTest]...)
		train = append(train, bucket[nTest:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

func classIndex(y []string) ([]string, map[string]int) {
	seen := map[string]bool{}
	classes := []string{}
	for _, label := range y {
		if !seen[label] {
			seen[label] = true
			classes = append(classes, label)
		}
	}
	sort.Strings(classes)
	idx := make(map[string]int, len(classes))
	for i, c := range classes {
		idx[c] = i
	}
	return classes, idx
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return 0
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
