package intent

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/npg-labs/neuroguard/backend/internal/signal"
)

// ModelWeights is the serialized form of a trained linear classifier:
// one weight vector and bias per class, over the canonical feature order.
type ModelWeights struct {
	Features []string             `json:"features"`
	Classes  []string             `json:"classes"`
	Weights  map[string][]float64 `json:"weights"`
	Bias     map[string]float64   `json:"bias"`
}

// ModelClassifier is the trained-model-backed classifier. It scores the
// feature vector against per-class weights and reports softmax confidence.
type ModelClassifier struct {
	weights ModelWeights
}

// LoadModelClassifier reads model weights from a JSON file.
func LoadModelClassifier(path string) (*ModelClassifier, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model weights: %w", err)
	}
	var w ModelWeights
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("parse model weights: %w", err)
	}
	return NewModelClassifier(w)
}

// NewModelClassifier validates the weights and returns a classifier.
func NewModelClassifier(w ModelWeights) (*ModelClassifier, error) {
	if len(w.Classes) == 0 {
		return nil, fmt.Errorf("model weights define no classes")
	}
	for _, class := range w.Classes {
		switch Type(class) {
		case Intentional, Subconscious, Neutral:
		default:
			return nil, fmt.Errorf("unknown class %q in model weights", class)
		}
		vec, ok := w.Weights[class]
		if !ok {
			return nil, fmt.Errorf("missing weight vector for class %q", class)
		}
		if len(vec) != len(featureOrder) {
			return nil, fmt.Errorf("class %q has %d weights, expected %d", class, len(vec), len(featureOrder))
		}
	}
	return &ModelClassifier{weights: w}, nil
}

// Classify implements Classifier.
func (m *ModelClassifier) Classify(features signal.Features) (Result, error) {
	if err := validateFeatures(features); err != nil {
		return Result{}, err
	}

	vec := vectorize(features)
	scores := make([]float64, len(m.weights.Classes))
	for i, class := range m.weights.Classes {
		s := m.weights.Bias[class]
		for j, w := range m.weights.Weights[class] {
			s += w * vec[j]
		}
		scores[i] = s
	}

	probs := softmax(scores)
	best := 0
	for i := range probs {
		if probs[i] > probs[best] {
			best = i
		}
	}

	label := Type(m.weights.Classes[best])
	confidence := probs[best]
	return Result{
		IntentType:  label,
		Confidence:  confidence,
		Explanation: fmt.Sprintf("Model classified as %s with %.0f%% confidence", label, confidence*100),
	}, nil
}

func softmax(scores []float64) []float64 {
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}
	var sum float64
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = math.Exp(s - maxScore)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
