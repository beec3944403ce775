package privacy

import (
	"github.com/npg-labs/neuroguard/backend/internal/intent"
	"github.com/npg-labs/neuroguard/backend/internal/models"
	"github.com/npg-labs/neuroguard/backend/internal/signal"
)

// FilterByGrants narrows a computed feature set down to what the app's
// granted permissions expose. Apps with no grants receive only the
// motor-intent flag. The returned map feeds Engine.Release; nothing here
// leaves the engine un-noised unless the full-spectrum capability applies.
func FilterByGrants(features signal.Features, intentType intent.Type, grants []models.PermissionType) map[string]float64 {
	motorFlag := 0.0
	if intentType == intent.Intentional {
		motorFlag = 1.0
	}

	if len(grants) == 0 {
		return map[string]float64{"motor_intent": motorFlag}
	}

	out := make(map[string]float64)
	for _, g := range grants {
		switch g.Normalize() {
		case models.PermissionMotorIntent:
			out["motor_intent"] = motorFlag
			out["beta"] = features["beta"]
		case models.PermissionFocusLevel:
			out["beta_alpha_ratio"] = features["beta_alpha_ratio"]
		case models.PermissionEmotionalState:
			out["theta"] = features["theta"]
			out["alpha"] = features["alpha"]
		case models.PermissionFullSpectrum:
			for k, v := range features {
				out[k] = v
			}
		}
	}
	return out
}

// HasRawCapability reports whether the grant set carries the explicit raw
// (full-spectrum) capability.
func HasRawCapability(grants []models.PermissionType) bool {
	for _, g := range grants {
		if g.Normalize() == models.PermissionFullSpectrum {
			return true
		}
	}
	return false
}
