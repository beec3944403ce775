package signal

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
)

// BrainState selects the characteristic band mixture of a synthetic signal.
type BrainState string

const (
	StateFocused  BrainState = "focused"
	StateRelaxed  BrainState = "relaxed"
	StateStressed BrainState = "stressed"
	StateNeutral  BrainState = "neutral"
)

// standard 10-20 electrode names
var channelNames = []string{
	"Fp1", "Fp2", "F3", "F4", "C3", "C4", "P3", "P4",
	"O1", "O2", "F7", "F8", "T3", "T4", "T5", "T6",
}

type component struct {
	amplitude float64
	freq      float64 // Hz
}

// Per-state sinusoid mixtures. Focused leans on beta with some gamma,
// relaxed on alpha, stressed on high beta plus gamma and theta, neutral is
// spread across all bands.
var stateComponents = map[BrainState][]component{
	StateFocused: {
		{0.6, 20}, // beta
		{0.3, 40}, // gamma
		{0.2, 10}, // alpha
	},
	StateRelaxed: {
		{0.7, 10}, // alpha
		{0.2, 6},  // theta
		{0.1, 15}, // beta
	},
	StateStressed: {
		{0.7, 25}, // high beta
		{0.5, 45}, // gamma
		{0.4, 7},  // theta
	},
	StateNeutral: {
		{0.3, 3},  // delta
		{0.3, 6},  // theta
		{0.4, 10}, // alpha
		{0.3, 18}, // beta
		{0.2, 35}, // gamma
	},
}

// Generator produces synthetic multichannel EEG-like signals for demos and
// tests. It stands in for real device input and is the only randomness in
// the signal path.
type Generator struct {
	samplingRate int
	numChannels  int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator returns a Generator for the given acquisition parameters.
// The channel count is capped at the 10-20 electrode set.
func NewGenerator(samplingRate, numChannels int, rng *rand.Rand) *Generator {
	if numChannels > len(channelNames) {
		numChannels = len(channelNames)
	}
	if numChannels < 1 {
		numChannels = 1
	}
	return &Generator{samplingRate: samplingRate, numChannels: numChannels, rng: rng}
}

// normFloat64 draws one sample of measurement noise. The generator is
// shared across requests and rand.Rand is not safe for concurrent use.
func (g *Generator) normFloat64() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.NormFloat64()
}

// Generate produces duration seconds of synthetic EEG for the given brain
// state. Unknown states fall back to neutral.
func (g *Generator) Generate(duration float64, state BrainState) (Signal, error) {
	if duration <= 0 {
		return Signal{}, fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidSignal, duration)
	}
	components, ok := stateComponents[state]
	if !ok {
		components = stateComponents[StateNeutral]
	}

	nSamples := int(duration * float64(g.samplingRate))
	channels := make(map[string][]float64, g.numChannels)
	for _, name := range channelNames[:g.numChannels] {
		samples := make([]float64, nSamples)
		for i := range samples {
			t := float64(i) / float64(g.samplingRate)
			var v float64
			for _, c := range components {
				v += c.amplitude * math.Sin(2*math.Pi*c.freq*t)
			}
			samples[i] = v + g.normFloat64()*0.1
		}
		channels[name] = samples
	}

	return Signal{Channels: channels, SamplingRate: g.samplingRate}, nil
}

// GenerateWithIntent produces a signal whose band mixture matches the given
// intent label: intentional maps to focused motor planning, anything else to
// the stressed emotional profile.
func (g *Generator) GenerateWithIntent(duration float64, intentional bool) (Signal, error) {
	if intentional {
		return g.Generate(duration, StateFocused)
	}
	return g.Generate(duration, StateStressed)
}
