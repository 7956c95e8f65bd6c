package models

import "sort"

// Decision tree hyperparameter defaults.
const (
	DefaultMaxDepth        = 5
	DefaultMinSamplesSplit = 2
)

// TreeConfig holds decision tree hyperparameters. Zero values take the
// defaults.
type TreeConfig struct {
	MaxDepth        int
	MinSamplesSplit int
}

func (c TreeConfig) withDefaults() TreeConfig {
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.MinSamplesSplit <= 0 {
		c.MinSamplesSplit = DefaultMinSamplesSplit
	}
	return c
}

// treeNode is either an internal split (feature ≤ threshold goes left) or a
// leaf carrying the mean label of its samples.
type treeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
	Leaf      bool      `json:"leaf"`
	Value     float64   `json:"value"`
}

// Tree is a trained regression-style decision tree: leaves store mean label
// values, so Predict yields a probability rather than a hard class. The zero
// value behaves as untrained and predicts 0.5.
type Tree struct {
	root *treeNode
}

// TrainTree grows a decision tree by recursive Gini-impurity splitting. An
// empty training set yields the untrained model. A shape mismatch is the
// only error.
func TrainTree(cfg TreeConfig, features [][]float64, labels []float64) (*Tree, error) {
	if err := checkShape(features, labels); err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return &Tree{}, nil
	}
	cfg = cfg.withDefaults()

	idx := make([]int, len(features))
	for i := range idx {
		idx[i] = i
	}
	return &Tree{root: buildNode(cfg, features, labels, idx, 0)}, nil
}

func buildNode(cfg TreeConfig, features [][]float64, labels []float64, idx []int, depth int) *treeNode {
	mean := meanLabel(labels, idx)

	if depth >= cfg.MaxDepth || len(idx) < cfg.MinSamplesSplit || isPure(labels, idx) {
		return &treeNode{Leaf: true, Value: mean}
	}

	feature, threshold, ok := bestSplit(features, labels, idx)
	if !ok {
		return &treeNode{Leaf: true, Value: mean}
	}

	var left, right []int
	for _, i := range idx {
		if features[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildNode(cfg, features, labels, left, depth+1),
		Right:     buildNode(cfg, features, labels, right, depth+1),
	}
}

// bestSplit scans every feature and every midpoint threshold between
// consecutive distinct sorted values, keeping the first split that minimizes
// the sample-weighted child Gini impurity. Splits leaving an empty side are
// skipped; a split that does not improve on the parent impurity is rejected.
func bestSplit(features [][]float64, labels []float64, idx []int) (int, float64, bool) {
	parent := giniOf(labels, idx)
	best := parent
	bestFeature, bestThreshold := -1, 0.0
	n := float64(len(idx))

	dim := len(features[idx[0]])
	values := make([]float64, 0, len(idx))

	for f := 0; f < dim; f++ {
		values = values[:0]
		for _, i := range idx {
			values = append(values, features[i][f])
		}
		sort.Float64s(values)

		for k := 1; k < len(values); k++ {
			if values[k] == values[k-1] {
				continue
			}
			threshold := (values[k] + values[k-1]) / 2

			var left, right []int
			for _, i := range idx {
				if features[i][f] <= threshold {
					left = append(left, i)
				} else {
					right = append(right, i)
				}
			}
			if len(left) == 0 || len(right) == 0 {
				continue
			}

			weighted := (float64(len(left))*giniOf(labels, left) +
				float64(len(right))*giniOf(labels, right)) / n
			if weighted < best {
				best = weighted
				bestFeature = f
				bestThreshold = threshold
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

// Predict walks the tree following feature ≤ threshold to the left until a
// leaf. Untrained trees answer 0.5.
func (t *Tree) Predict(features []float64) float64 {
	if t == nil || t.root == nil {
		return 0.5
	}
	node := t.root
	for !node.Leaf {
		if node.Feature < len(features) && features[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// Gini computes the Gini impurity 1 − Σ p² of a binary label set. An empty
// set is pure by convention.
func Gini(labels []float64) float64 {
	if len(labels) == 0 {
		return 0
	}
	pos := 0
	for _, l := range labels {
		if l > 0.5 {
			pos++
		}
	}
	p := float64(pos) / float64(len(labels))
	return 1 - p*p - (1-p)*(1-p)
}

func giniOf(labels []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	pos := 0
	for _, i := range idx {
		if labels[i] > 0.5 {
			pos++
		}
	}
	p := float64(pos) / float64(len(idx))
	return 1 - p*p - (1-p)*(1-p)
}

func meanLabel(labels []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, i := range idx {
		sum += labels[i]
	}
	return sum / float64(len(idx))
}

func isPure(labels []float64, idx []int) bool {
	for i := 1; i < len(idx); i++ {
		if labels[idx[i]] != labels[idx[0]] {
			return false
		}
	}
	return true
}
