package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/npg-labs/neuroguard/backend/internal/intent"
	"github.com/npg-labs/neuroguard/backend/internal/models"
	"github.com/npg-labs/neuroguard/backend/internal/signal"
)

func filterFeatures() signal.Features {
	return signal.Features{
		"delta": 1, "theta": 2, "alpha": 3, "beta": 4, "gamma": 5,
		"beta_alpha_ratio": 1.33, "gamma_beta_ratio": 1.25,
		"mean_amplitude": 0.5, "std_amplitude": 0.4, "num_channels": 4,
	}
}

func TestFilterByGrants_NoGrantsOnlyMotorFlag(t *testing.T) {
	out := FilterByGrants(filterFeatures(), intent.Intentional, nil)
	assert.Equal(t, map[string]float64{"motor_intent": 1.0}, out)

	out = FilterByGrants(filterFeatures(), intent.Neutral, nil)
	assert.Equal(t, map[string]float64{"motor_intent": 0.0}, out)
}

func TestFilterByGrants_PerPermission(t *testing.T) {
	f := filterFeatures()

	t.Run("motor_intent", func(t *testing.T) {
		out := FilterByGrants(f, intent.Intentional, []models.PermissionType{models.PermissionMotorIntent})
		assert.Equal(t, map[string]float64{"motor_intent": 1.0, "beta": 4}, out)
	})

	t.Run("focus_level", func(t *testing.T) {
		out := FilterByGrants(f, intent.Neutral, []models.PermissionType{models.PermissionFocusLevel})
		assert.Equal(t, map[string]float64{"beta_alpha_ratio": 1.33}, out)
	})

	t.Run("emotional_state", func(t *testing.T) {
		out := FilterByGrants(f, intent.Neutral, []models.PermissionType{models.PermissionEmotionalState})
		assert.Equal(t, map[string]float64{"theta": 2, "alpha": 3}, out)
	})

	t.Run("full_spectrum", func(t *testing.T) {
		out := FilterByGrants(f, intent.Neutral, []models.PermissionType{models.PermissionFullSpectrum})
		assert.Len(t, out, len(f))
	})

	t.Run("grants accumulate", func(t *testing.T) {
		out := FilterByGrants(f, intent.Intentional, []models.PermissionType{
			models.PermissionMotorIntent, models.PermissionFocusLevel,
		})
		assert.Equal(t, map[string]float64{
			"motor_intent": 1.0, "beta": 4, "beta_alpha_ratio": 1.33,
		}, out)
	})
}

func TestHasRawCapability(t *testing.T) {
	assert.False(t, HasRawCapability(nil))
	assert.False(t, HasRawCapability([]models.PermissionType{models.PermissionMotorIntent}))
	assert.True(t, HasRawCapability([]models.PermissionType{models.PermissionFullSpectrum}))
	assert.True(t, HasRawCapability([]models.PermissionType{"raw_signal"}))
}
