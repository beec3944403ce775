package privacy

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/npg-labs/neuroguard/backend/internal/metrics"
	"github.com/npg-labs/neuroguard/backend/internal/models"
)

// ErrStorageFault is returned when the audit trail cannot record a privacy
// intervention. The release fails rather than returning un-audited data.
var ErrStorageFault = errors.New("privacy intervention not audited")

// Tier is the discrete dashboard label derived from the continuous level.
type Tier string

const (
	TierStrict      Tier = "strict"
	TierBalanced    Tier = "balanced"
	TierPerformance Tier = "performance"
)

// Noise fractions anchored at the three tiers, as a share of the released
// feature range.
const (
	strictNoiseFraction      = 0.25
	balancedNoiseFraction    = 0.15
	performanceNoiseFraction = 0.05

	strictBoundary      = 0.3
	performanceBoundary = 0.7
)

// TierFor derives the discrete tier label from a continuous level. The
// mapping is pure and order preserving; the continuous value stays the
// source of truth.
func TierFor(level float64) Tier {
	switch {
	case level <= strictBoundary:
		return TierStrict
	case level >= performanceBoundary:
		return TierPerformance
	default:
		return TierBalanced
	}
}

// NoiseFraction maps a privacy level onto the injected noise magnitude as a
// fraction of the feature range. It is monotonically non-increasing in
// level: 25% at or below 0.3, 5% at or above 0.7, linear in between (15% at
// the balanced midpoint 0.5).
func NoiseFraction(level float64) float64 {
	switch {
	case level <= strictBoundary:
		return strictNoiseFraction
	case level >= performanceBoundary:
		return performanceNoiseFraction
	default:
		span := (level - strictBoundary) / (performanceBoundary - strictBoundary)
		return strictNoiseFraction - span*(strictNoiseFraction-performanceNoiseFraction)
	}
}

// Auditor records privacy interventions in the append-only audit trail.
type Auditor interface {
	Append(entry *models.AuditEntry) error
}

// Engine injects calibrated Laplace noise into released feature sets.
// Every release is audited; raw values only leave the engine for apps
// holding the full-spectrum capability.
type Engine struct {
	levels  *LevelStore
	audit   Auditor
	epsilon float64
	delta   float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine returns an Engine releasing against the given level store and
// audit trail. rng may be seeded for tests; nil uses a time-seeded source.
func NewEngine(levels *LevelStore, audit Auditor, epsilon, delta float64, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Engine{levels: levels, audit: audit, epsilon: epsilon, delta: delta, rng: rng}
}

// Epsilon returns the configured privacy budget.
func (e *Engine) Epsilon() float64 { return e.epsilon }

// Delta returns the configured breach probability.
func (e *Engine) Delta() float64 { return e.delta }

// EffectiveEpsilon returns the budget in force at a given level. Higher
// levels spend more budget and inject less noise.
func (e *Engine) EffectiveEpsilon(level float64) float64 {
	return e.epsilon * (level + 0.1)
}

// Release noises the feature set destined for appID according to the
// current level and appends one audit entry recording the intervention.
// When hasRaw is true the app holds the full-spectrum capability and the
// values pass through untouched; the release is still audited.
func (e *Engine) Release(appID string, features map[string]float64, hasRaw bool) (map[string]float64, error) {
	level := e.levels.Level()

	out := make(map[string]float64, len(features))
	if hasRaw {
		for k, v := range features {
			out[k] = v
		}
	} else {
		scale := NoiseFraction(level) * featureRange(features)
		for k, v := range features {
			noised := v + e.laplace(scale)
			if noised < 0 {
				noised = 0 // band powers stay non-negative
			}
			out[k] = noised
		}
	}

	entry := &models.AuditEntry{
		AppID:  appID,
		Action: models.AuditActionPrivacyRelease,
		Actor:  "privacy_engine",
		Details: fmt.Sprintf("released %s at level %.2f (tier %s, raw=%t)",
			featureCategories(features), level, TierFor(level), hasRaw),
	}
	if err := e.audit.Append(entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFault, err)
	}
	metrics.IncPrivacyIntervention()
	return out, nil
}

// laplace draws Laplace(0, scale) noise via inverse CDF sampling.
func (e *Engine) laplace(scale float64) float64 {
	if scale <= 0 {
		return 0
	}
	e.mu.Lock()
	u := e.rng.Float64() - 0.5
	e.mu.Unlock()
	if u == 0 {
		return 0
	}
	sign := 1.0
	if u < 0 {
		sign = -1.0
	}
	return -scale * sign * math.Log(1-2*math.Abs(u))
}

// featureRange returns the value spread of the released set, floored at 1
// so near-constant sets still receive meaningful noise.
func featureRange(features map[string]float64) float64 {
	if len(features) == 0 {
		return 1
	}
	first := true
	var lo, hi float64
	for _, v := range features {
		if first {
			lo, hi = v, v
			first = false
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi-lo < 1 {
		return 1
	}
	return hi - lo
}

func featureCategories(features map[string]float64) string {
	names := make([]string, 0, len(features))
	for k := range features {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
