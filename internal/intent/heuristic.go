package intent

import (
	"fmt"
	"strings"

	"github.com/npg-labs/neuroguard/backend/internal/signal"
)

// HeuristicClassifier scores band powers with fixed neuroscience-derived
// rules. Intentional commands show strong beta and controlled gamma;
// subconscious activity shows elevated theta or stress-level gamma.
type HeuristicClassifier struct{}

// NewHeuristicClassifier returns the rule-based classifier.
func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

const ratioEpsilon = 1e-10

// Classify implements Classifier.
func (h *HeuristicClassifier) Classify(features signal.Features) (Result, error) {
	if err := validateFeatures(features); err != nil {
		return Result{}, err
	}

	beta := features["beta"]
	alpha := features["alpha"]
	theta := features["theta"]
	gamma := features["gamma"]

	betaAlpha := beta / (alpha + ratioEpsilon)
	thetaAlpha := theta / (alpha + ratioEpsilon)

	score := 0
	var reasons []string

	// Intentional markers
	if beta > 15 {
		score += 2
		reasons = append(reasons, "strong beta (focus)")
	}
	if betaAlpha > 1.5 {
		score++
		reasons = append(reasons, "high beta/alpha ratio")
	}
	if gamma > 10 && gamma < 30 {
		score++
		reasons = append(reasons, "controlled gamma")
	}

	// Subconscious markers
	if theta > 20 {
		score -= 2
		reasons = append(reasons, "elevated theta (emotional)")
	}
	if gamma > 40 {
		score -= 2
		reasons = append(reasons, "high gamma (stress)")
	}
	if thetaAlpha > 1.0 {
		score--
		reasons = append(reasons, "high theta/alpha")
	}
	if beta < 10 {
		score--
		reasons = append(reasons, "low beta")
	}

	switch {
	case score >= 2:
		return Result{
			IntentType:  Intentional,
			Confidence:  clampConfidence(0.5 + float64(score)*0.1),
			Explanation: fmt.Sprintf("Intentional command detected: %s", joinReasons(reasons)),
		}, nil
	case score <= -2:
		return Result{
			IntentType:  Subconscious,
			Confidence:  clampConfidence(0.5 - float64(score)*0.1),
			Explanation: fmt.Sprintf("Subconscious activity detected: %s", joinReasons(reasons)),
		}, nil
	default:
		return Result{
			IntentType:  Neutral,
			Confidence:  0.6,
			Explanation: "Neutral brain state, no clear intent",
		}, nil
	}
}

func clampConfidence(c float64) float64 {
	if c > 0.9 {
		return 0.9
	}
	if c < 0 {
		return 0
	}
	return c
}

func joinReasons(reasons []string) string {
	if len(reasons) > 2 {
		reasons = reasons[:2]
	}
	return strings.Join(reasons, ", ")
}
