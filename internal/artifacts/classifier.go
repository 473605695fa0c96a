package artifacts

import (
	"encoding/json"
	"fmt"
	"math"
)

// Classifier estimates class probabilities for a samples x features matrix.
// Rows of the result follow the order of Classes().
type Classifier interface {
	PredictProba(x [][]float64) ([][]float64, error)
	Classes() []int
	NumFeatures() int
	Kind() string
}

const (
	ClassifierKindRandomForest       = "random_forest"
	ClassifierKindLogisticRegression = "logistic_regression"

	leafNode = -1
)

type classifierDocument struct {
	Kind      string         `json:"kind"`
	NFeatures int            `json:"n_features"`
	Classes   []int          `json:"classes"`
	Trees     []treeDocument `json:"trees,omitempty"`
	Coef      []float64      `json:"coef,omitempty"`
	Intercept float64        `json:"intercept,omitempty"`
}

type treeDocument struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

// DecisionTree is a flattened binary tree: node i is a leaf when
// ChildrenLeft[i] == -1, otherwise samples with x[Feature[i]] <= Threshold[i]
// go left.
type DecisionTree struct {
	ChildrenLeft  []int
	ChildrenRight []int
	Feature       []int
	Threshold     []float64
	Value         [][]float64
}

func (t *DecisionTree) leafFor(row []float64) (int, error) {
	node := 0
	// A well-formed tree reaches a leaf in fewer steps than it has nodes.
	for steps := 0; steps <= len(t.ChildrenLeft); steps++ {
		if t.ChildrenLeft[node] == leafNode {
			return node, nil
		}
		if row[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return 0, fmt.Errorf("tree traversal did not terminate")
}

// proba returns the normalised class distribution of the leaf row lands in.
func (t *DecisionTree) proba(row []float64) ([]float64, error) {
	leaf, err := t.leafFor(row)
	if err != nil {
		return nil, err
	}
	counts := t.Value[leaf]
	total := 0.0
	for _, c := range counts {
		total += c
	}
	out := make([]float64, len(counts))
	for i, c := range counts {
		if total == 0 {
			out[i] = 1 / float64(len(counts))
		} else {
			out[i] = c / total
		}
	}
	return out, nil
}

// RandomForest averages the leaf distributions of its trees.
type RandomForest struct {
	Trees     []*DecisionTree
	classes   []int
	nFeatures int
}

func (f *RandomForest) Kind() string     { return ClassifierKindRandomForest }
func (f *RandomForest) Classes() []int   { return f.classes }
func (f *RandomForest) NumFeatures() int { return f.nFeatures }

func (f *RandomForest) PredictProba(x [][]float64) ([][]float64, error) {
	if err := checkShape(x, f.nFeatures); err != nil {
		return nil, err
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		sum := make([]float64, len(f.classes))
		for ti, tree := range f.Trees {
			p, err := tree.proba(row)
			if err != nil {
				return nil, fmt.Errorf("tree %d: %w", ti, err)
			}
			for c := range sum {
				sum[c] += p[c]
			}
		}
		for c := range sum {
			sum[c] /= float64(len(f.Trees))
		}
		out[i] = sum
	}
	return out, nil
}

// LogisticRegression is a binary logistic model over the scaled features.
type LogisticRegression struct {
	Coef      []float64
	Intercept float64
	classes   []int
}

func (m *LogisticRegression) Kind() string     { return ClassifierKindLogisticRegression }
func (m *LogisticRegression) Classes() []int   { return m.classes }
func (m *LogisticRegression) NumFeatures() int { return len(m.Coef) }

func (m *LogisticRegression) PredictProba(x [][]float64) ([][]float64, error) {
	if err := checkShape(x, len(m.Coef)); err != nil {
		return nil, err
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		z := m.Intercept
		for j, v := range row {
			z += m.Coef[j] * v
		}
		p := 1 / (1 + math.Exp(-z))
		out[i] = []float64{1 - p, p}
	}
	return out, nil
}

func checkShape(x [][]float64, width int) error {
	if len(x) == 0 {
		return fmt.Errorf("expected at least one sample")
	}
	for i, row := range x {
		if len(row) != width {
			return fmt.Errorf("sample %d has %d features, model expects %d", i, len(row), width)
		}
	}
	return nil
}

func decodeClassifier(data []byte) (Classifier, error) {
	if err := validateDocument(classifierSchemaLoader, data); err != nil {
		return nil, err
	}

	var doc classifierDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode classifier: %w", err)
	}

	switch doc.Kind {
	case ClassifierKindRandomForest:
		forest := &RandomForest{classes: doc.Classes, nFeatures: doc.NFeatures}
		for i, td := range doc.Trees {
			tree, err := buildTree(td, doc.NFeatures, len(doc.Classes))
			if err != nil {
				return nil, fmt.Errorf("tree %d: %w", i, err)
			}
			forest.Trees = append(forest.Trees, tree)
		}
		return forest, nil
	case ClassifierKindLogisticRegression:
		if len(doc.Classes) != 2 {
			return nil, fmt.Errorf("logistic regression must be binary, got %d classes", len(doc.Classes))
		}
		if len(doc.Coef) != doc.NFeatures {
			return nil, fmt.Errorf("logistic regression has %d coefficients for %d features", len(doc.Coef), doc.NFeatures)
		}
		return &LogisticRegression{Coef: doc.Coef, Intercept: doc.Intercept, classes: doc.Classes}, nil
	default:
		return nil, fmt.Errorf("unsupported classifier kind %q", doc.Kind)
	}
}

func buildTree(td treeDocument, nFeatures, nClasses int) (*DecisionTree, error) {
	n := len(td.ChildrenLeft)
	if len(td.ChildrenRight) != n || len(td.Feature) != n || len(td.Threshold) != n || len(td.Value) != n {
		return nil, fmt.Errorf("node arrays differ in length")
	}
	for i := 0; i < n; i++ {
		if len(td.Value[i]) != nClasses {
			return nil, fmt.Errorf("node %d has %d class values, want %d", i, len(td.Value[i]), nClasses)
		}
		left, right := td.ChildrenLeft[i], td.ChildrenRight[i]
		if left == leafNode {
			continue
		}
		if left <= 0 || left >= n || right <= 0 || right >= n {
			return nil, fmt.Errorf("node %d has child index out of range", i)
		}
		if f := td.Feature[i]; f < 0 || f >= nFeatures {
			return nil, fmt.Errorf("node %d splits on feature %d of %d", i, f, nFeatures)
		}
	}
	return &DecisionTree{
		ChildrenLeft:  td.ChildrenLeft,
		ChildrenRight: td.ChildrenRight,
		Feature:       td.Feature,
		Threshold:     td.Threshold,
		Value:         td.Value,
	}, nil
}
