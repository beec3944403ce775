package signal

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerator_Generate_Shape(t *testing.T) {
	gen := NewGenerator(256, 8, rand.New(rand.NewSource(1)))

	sig, err := gen.Generate(2.0, StateRelaxed)
	assert.NoError(t, err)
	assert.Len(t, sig.Channels, 8)
	assert.Equal(t, 256, sig.SamplingRate)
	assert.InDelta(t, 2.0, sig.Duration(), 1e-9)

	for name, samples := range sig.Channels {
		assert.Len(t, samples, 512, "channel %s", name)
	}
	assert.NoError(t, sig.Validate(8))
}

func TestGenerator_Generate_UsesElectrodeNames(t *testing.T) {
	gen := NewGenerator(256, 4, rand.New(rand.NewSource(1)))

	sig, err := gen.Generate(1.0, StateNeutral)
	assert.NoError(t, err)
	for _, name := range []string{"Fp1", "Fp2", "F3", "F4"} {
		assert.Contains(t, sig.Channels, name)
	}
}

func TestGenerator_Generate_RejectsBadDuration(t *testing.T) {
	gen := NewGenerator(256, 4, rand.New(rand.NewSource(1)))

	_, err := gen.Generate(0, StateFocused)
	assert.Error(t, err)
	_, err = gen.Generate(-1, StateFocused)
	assert.Error(t, err)
}

func TestGenerator_StatesProduceDistinctSpectra(t *testing.T) {
	gen := NewGenerator(256, 4, rand.New(rand.NewSource(42)))
	p := NewProcessor(32)

	focused, err := gen.Generate(2.0, StateFocused)
	assert.NoError(t, err)
	relaxed, err := gen.Generate(2.0, StateRelaxed)
	assert.NoError(t, err)

	fb, err := p.BandPowers(focused)
	assert.NoError(t, err)
	rb, err := p.BandPowers(relaxed)
	assert.NoError(t, err)

	// Focused is beta-heavy, relaxed is alpha-heavy.
	assert.Greater(t, fb.Beta, fb.Alpha)
	assert.Greater(t, rb.Alpha, rb.Beta)
}

func TestGenerator_GenerateWithIntent(t *testing.T) {
	gen := NewGenerator(256, 4, rand.New(rand.NewSource(3)))

	sig, err := gen.GenerateWithIntent(1.0, true)
	assert.NoError(t, err)
	assert.NoError(t, sig.Validate(8))

	sig, err = gen.GenerateWithIntent(1.0, false)
	assert.NoError(t, err)
	assert.NoError(t, sig.Validate(8))
}

// One Generator serves every synthetic-signal request, so concurrent
// Generate calls must be safe.
func TestGenerator_ConcurrentGenerate(t *testing.T) {
	gen := NewGenerator(256, 4, rand.New(rand.NewSource(7)))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				sig, err := gen.Generate(0.5, StateFocused)
				assert.NoError(t, err)
				assert.Len(t, sig.Channels, 4)
			}
		}()
	}
	wg.Wait()
}
