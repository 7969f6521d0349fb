package ml

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// BoostParams are the gradient boosting hyperparameters.
type BoostParams struct {
	Rounds         int     `json:"rounds"`
	MaxDepth       int     `json:"max_depth"`
	LearningRate   float64 `json:"learning_rate"`
	Lambda         float64 `json:"lambda"`
	Gamma          float64 `json:"gamma"`
	MinChildWeight float64 `json:"min_child_weight"`
}

// DefaultBoostParams mirrors the usual xgboost regressor defaults.
func DefaultBoostParams() BoostParams {
	return BoostParams{
		Rounds:         100,
		MaxDepth:       6,
		LearningRate:   0.3,
		Lambda:         1,
		MinChildWeight: 1,
	}
}

func (p BoostParams) validate() error {
	switch {
	case p.Rounds < 1:
		return fmt.Errorf("rounds must be positive, got %d", p.Rounds)
	case p.MaxDepth < 1:
		return fmt.Errorf("max depth must be positive, got %d", p.MaxDepth)
	case p.LearningRate <= 0 || p.LearningRate > 1:
		return fmt.Errorf("learning rate must be in (0, 1], got %v", p.LearningRate)
	case p.Lambda < 0:
		return fmt.Errorf("lambda must be non-negative, got %v", p.Lambda)
	case p.Gamma < 0:
		return fmt.Errorf("gamma must be non-negative, got %v", p.Gamma)
	case p.MinChildWeight < 0:
		return fmt.Errorf("min child weight must be non-negative, got %v", p.MinChildWeight)
	}
	return nil
}

// Node is one node of a regression tree. Rows with x[Feature] < Threshold go
// to Left.
type Node struct {
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Leaf      bool    `json:"leaf,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Gain      float64 `json:"gain,omitempty"`
}

// Tree is a regression tree stored as a flat node array rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) predict(row []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if row[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Booster is an additive ensemble of regression trees fit by second order
// gradient boosting on squared error.
type Booster struct {
	Params      BoostParams `json:"params"`
	NumFeatures int         `json:"num_features"`
	BaseScore   float64     `json:"base_score"`
	Trees       []Tree      `json:"trees"`
}

// FitBooster trains a booster. Cancelling ctx stops training between rounds.
func FitBooster(ctx context.Context, x [][]float64, y []float64, params BoostParams) (*Booster, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("need matching non-empty inputs, got %d rows and %d targets", len(x), len(y))
	}
	width := len(x[0])
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrFeatureCount, i, len(row), width)
		}
	}

	var sum float64
	for _, v := range y {
		sum += v
	}

	b := &Booster{
		Params:      params,
		NumFeatures: width,
		BaseScore:   sum / float64(len(y)),
	}

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = b.BaseScore
	}

	grad := make([]float64, len(y))
	hess := make([]float64, len(y))
	rows := make([]int, len(y))
	for i := range rows {
		rows[i] = i
	}

	for round := 0; round < params.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("training stopped at round %d: %w", round, err)
		}

		for i := range y {
			grad[i] = pred[i] - y[i]
			hess[i] = 1
		}

		g := &grower{x: x, grad: grad, hess: hess, params: params}
		g.grow(append([]int(nil), rows...), 0)
		tree := Tree{Nodes: g.nodes}

		for i, row := range x {
			pred[i] += tree.predict(row)
		}
		b.Trees = append(b.Trees, tree)
	}

	return b, nil
}

// Predict evaluates the ensemble on one row.
func (b *Booster) Predict(row []float64) (float64, error) {
	if len(row) != b.NumFeatures {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, len(row), b.NumFeatures)
	}
	out := b.BaseScore
	for i := range b.Trees {
		out += b.Trees[i].predict(row)
	}
	return out, nil
}

// PredictAll evaluates every row.
func (b *Booster) PredictAll(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		v, err := b.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (b *Booster) validate() error {
	if b.NumFeatures <= 0 {
		return fmt.Errorf("booster has no features")
	}
	for ti, t := range b.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Leaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= b.NumFeatures {
				return fmt.Errorf("tree %d node %d splits on feature %d", ti, ni, n.Feature)
			}
			if n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d has invalid children", ti, ni)
			}
		}
	}
	return nil
}

type grower struct {
	x      [][]float64
	grad   []float64
	hess   []float64
	params BoostParams
	nodes  []Node
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

func (g *grower) grow(rows []int, depth int) int {
	var gSum, hSum float64
	for _, r := range rows {
		gSum += g.grad[r]
		hSum += g.hess[r]
	}

	id := len(g.nodes)
	g.nodes = append(g.nodes, Node{})

	leaf := func() int {
		g.nodes[id] = Node{
			Leaf:  true,
			Value: -gSum / (hSum + g.params.Lambda) * g.params.LearningRate,
		}
		return id
	}

	if depth >= g.params.MaxDepth || len(rows) < 2 {
		return leaf()
	}

	best, ok := g.bestSplit(rows, gSum, hSum)
	if !ok {
		return leaf()
	}

	var left, right []int
	for _, r := range rows {
		if g.x[r][best.feature] < best.threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return leaf()
	}

	l := g.grow(left, depth+1)
	r := g.grow(right, depth+1)
	g.nodes[id] = Node{
		Feature:   best.feature,
		Threshold: best.threshold,
		Left:      l,
		Right:     r,
		Gain:      best.gain,
	}
	return id
}

// bestSplit scans every feature with exact greedy enumeration over sorted
// values. Ties keep the lowest feature index.
func (g *grower) bestSplit(rows []int, gSum, hSum float64) (split, bool) {
	lambda := g.params.Lambda
	parent := gSum * gSum / (hSum + lambda)

	best := split{gain: 0}
	found := false
	sorted := make([]int, len(rows))

	for f := 0; f < len(g.x[rows[0]]); f++ {
		copy(sorted, rows)
		sort.SliceStable(sorted, func(a, b int) bool {
			return g.x[sorted[a]][f] < g.x[sorted[b]][f]
		})

		var gl, hl float64
		for k := 0; k < len(sorted)-1; k++ {
			r := sorted[k]
			gl += g.grad[r]
			hl += g.hess[r]

			cur, next := g.x[r][f], g.x[sorted[k+1]][f]
			if cur == next {
				continue
			}
			gr, hr := gSum-gl, hSum-hl
			if hl < g.params.MinChildWeight || hr < g.params.MinChildWeight {
				continue
			}

			gain := 0.5*(gl*gl/(hl+lambda)+gr*gr/(hr+lambda)-parent) - g.params.Gamma
			if gain > best.gain && !math.IsInf(gain, 0) {
				best = split{feature: f, threshold: cur + (next-cur)/2, gain: gain}
				found = true
			}
		}
	}
	return best, found
}
