package intent

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/npg-labs/neuroguard/backend/internal/signal"
)

func baseFeatures() signal.Features {
	return signal.Features{
		"delta": 5, "theta": 5, "alpha": 10, "beta": 12, "gamma": 5,
		"mean_amplitude": 1, "std_amplitude": 1,
		"beta_alpha_ratio": 1.2, "gamma_beta_ratio": 0.4,
		"num_channels": 4,
	}
}

func TestHeuristic_IntentionalOnStrongBeta(t *testing.T) {
	c := NewHeuristicClassifier()

	f := baseFeatures()
	f["beta"] = 20 // strong beta alone scores +2

	res, err := c.Classify(f)
	assert.NoError(t, err)
	assert.Equal(t, Intentional, res.IntentType)
	assert.Contains(t, res.Explanation, "strong beta")
}

func TestHeuristic_SubconsciousOnThetaAndGamma(t *testing.T) {
	c := NewHeuristicClassifier()

	f := baseFeatures()
	f["theta"] = 25
	f["gamma"] = 50

	res, err := c.Classify(f)
	assert.NoError(t, err)
	assert.Equal(t, Subconscious, res.IntentType)
}

func TestHeuristic_NeutralDefault(t *testing.T) {
	c := NewHeuristicClassifier()

	res, err := c.Classify(baseFeatures())
	assert.NoError(t, err)
	assert.Equal(t, Neutral, res.IntentType)
	assert.Equal(t, 0.6, res.Confidence)
}

func TestHeuristic_ConfidenceBounds(t *testing.T) {
	c := NewHeuristicClassifier()

	// Stack every intentional marker: score 4, confidence capped at 0.9.
	f := baseFeatures()
	f["beta"] = 20
	f["alpha"] = 5
	f["gamma"] = 20

	res, err := c.Classify(f)
	assert.NoError(t, err)
	assert.Equal(t, Intentional, res.IntentType)
	assert.LessOrEqual(t, res.Confidence, 0.9)
	assert.GreaterOrEqual(t, res.Confidence, 0.5)
}

func TestHeuristic_RejectsBadFeatures(t *testing.T) {
	c := NewHeuristicClassifier()

	t.Run("empty", func(t *testing.T) {
		_, err := c.Classify(signal.Features{})
		assert.ErrorIs(t, err, ErrInvalidFeatures)
	})

	t.Run("NaN", func(t *testing.T) {
		f := baseFeatures()
		f["beta"] = math.NaN()
		_, err := c.Classify(f)
		assert.ErrorIs(t, err, ErrInvalidFeatures)
	})

	t.Run("Inf", func(t *testing.T) {
		f := baseFeatures()
		f["gamma"] = math.Inf(1)
		_, err := c.Classify(f)
		assert.ErrorIs(t, err, ErrInvalidFeatures)
	})
}
