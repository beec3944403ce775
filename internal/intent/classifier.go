package intent

import (
	"errors"
	"fmt"
	"math"

	"github.com/npg-labs/neuroguard/backend/internal/signal"
)

// ErrInvalidFeatures flags malformed classifier input.
var ErrInvalidFeatures = errors.New("invalid features")

// Type labels a classification outcome. The set is closed.
type Type string

const (
	Intentional  Type = "intentional"
	Subconscious Type = "subconscious"
	Neutral      Type = "neutral"
)

// Result is one classification: a label from the closed set, a confidence
// in [0,1], and a short human-readable justification.
type Result struct {
	IntentType  Type    `json:"intent_type"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// Classifier maps band-power features to an intent result. Implementations
// must be interchangeable: the rest of the engine is classifier-agnostic.
type Classifier interface {
	Classify(features signal.Features) (Result, error)
}

// featureOrder is the canonical vector layout shared by model
// implementations and training tooling.
var featureOrder = []string{
	"delta", "theta", "alpha", "beta", "gamma",
	"beta_alpha_ratio", "gamma_beta_ratio",
}

// validateFeatures rejects empty feature sets and non-finite band powers.
func validateFeatures(features signal.Features) error {
	if len(features) == 0 {
		return fmt.Errorf("%w: empty feature set", ErrInvalidFeatures)
	}
	for _, name := range featureOrder {
		v, ok := features[name]
		if !ok {
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: feature %s is not finite", ErrInvalidFeatures, name)
		}
	}
	return nil
}

// vectorize flattens features into the canonical order, defaulting missing
// entries to zero.
func vectorize(features signal.Features) []float64 {
	vec := make([]float64, len(featureOrder))
	for i, name := range featureOrder {
		vec[i] = features[name]
	}
	return vec
}
