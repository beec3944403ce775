package signal

import (
	"math"
)

// Band is a named frequency range in Hz.
type Band struct {
	Name string
	Low  float64
	High float64
}

// Standard EEG frequency bands.
var bandDefinitions = []Band{
	{Name: "delta", Low: 0.5, High: 4},
	{Name: "theta", Low: 4, High: 8},
	{Name: "alpha", Low: 8, High: 13},
	{Name: "beta", Low: 13, High: 30},
	{Name: "gamma", Low: 30, High: 100},
}

// BandNames returns the band names in canonical low-to-high order.
func BandNames() []string {
	names := make([]string, len(bandDefinitions))
	for i, b := range bandDefinitions {
		names[i] = b.Name
	}
	return names
}

// Bands holds the per-band power values derived from one signal.
// Every power is >= 0.
type Bands struct {
	Delta float64 `json:"delta"`
	Theta float64 `json:"theta"`
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// AsMap returns the band powers keyed by band name.
func (b Bands) AsMap() map[string]float64 {
	return map[string]float64{
		"delta": b.Delta,
		"theta": b.Theta,
		"alpha": b.Alpha,
		"beta":  b.Beta,
		"gamma": b.Gamma,
	}
}

// Features is the full feature set handed to the intent classifier: band
// powers plus amplitude statistics and band ratios.
type Features map[string]float64

const ratioEpsilon = 1e-10

// Processor turns a raw multichannel signal into normalized frequency-band
// powers. It is deterministic: identical input yields identical output.
type Processor struct {
	maxChannels int
}

// NewProcessor returns a Processor bounded to maxChannels input channels
// (0 disables the bound).
func NewProcessor(maxChannels int) *Processor {
	return &Processor{maxChannels: maxChannels}
}

// BandPowers extracts per-band spectral power, averaged across channels.
func (p *Processor) BandPowers(sig Signal) (Bands, error) {
	if err := sig.Validate(p.maxChannels); err != nil {
		return Bands{}, err
	}

	sums := make([]float64, len(bandDefinitions))
	for _, name := range sig.ChannelNames() {
		powers := channelBandPowers(sig.Channels[name], sig.SamplingRate)
		for i, v := range powers {
			sums[i] += v
		}
	}

	n := float64(len(sig.Channels))
	out := Bands{
		Delta: sums[0] / n,
		Theta: sums[1] / n,
		Alpha: sums[2] / n,
		Beta:  sums[3] / n,
		Gamma: sums[4] / n,
	}
	return out, nil
}

// Features computes the classifier feature set: band powers, amplitude
// statistics over all samples, and band ratios.
func (p *Processor) Features(sig Signal) (Features, error) {
	bands, err := p.BandPowers(sig)
	if err != nil {
		return nil, err
	}

	// fixed channel order keeps the float summation bit-for-bit repeatable
	names := sig.ChannelNames()
	var sum, sumAbs, count float64
	for _, name := range names {
		for _, v := range sig.Channels[name] {
			sum += v
			sumAbs += math.Abs(v)
			count++
		}
	}
	mean := sum / count
	var varSum float64
	for _, name := range names {
		for _, v := range sig.Channels[name] {
			d := v - mean
			varSum += d * d
		}
	}

	features := Features(bands.AsMap())
	features["mean_amplitude"] = sumAbs / count
	features["std_amplitude"] = math.Sqrt(varSum / count)
	features["beta_alpha_ratio"] = bands.Beta / (bands.Alpha + ratioEpsilon)
	features["gamma_beta_ratio"] = bands.Gamma / (bands.Beta + ratioEpsilon)
	features["num_channels"] = float64(len(sig.Channels))
	return features, nil
}

// channelBandPowers computes mean spectral power per band for one channel
// using the Goertzel recurrence at each DFT bin inside the band. Direct
// evaluation keeps the processor dependency-free and bit-for-bit
// deterministic.
func channelBandPowers(samples []float64, samplingRate int) []float64 {
	n := len(samples)
	binHz := float64(samplingRate) / float64(n)

	out := make([]float64, len(bandDefinitions))
	for i, band := range bandDefinitions {
		lowBin := int(math.Ceil(band.Low / binHz))
		highBin := int(math.Floor(band.High / binHz))
		if highBin > n/2 {
			highBin = n / 2
		}
		if lowBin > highBin {
			continue
		}
		var total float64
		for k := lowBin; k <= highBin; k++ {
			total += goertzelPower(samples, k)
		}
		out[i] = total / float64(highBin-lowBin+1)
	}
	return out
}

// goertzelPower returns |X[k]|^2 for DFT bin k.
func goertzelPower(samples []float64, k int) float64 {
	n := len(samples)
	w := 2 * math.Pi * float64(k) / float64(n)
	coeff := 2 * math.Cos(w)

	var s0, s1, s2 float64
	for _, x := range samples {
		s0 = x + coeff*s1 - s2
		s2 = s1
		s1 = s0
	}
	return s1*s1 + s2*s2 - coeff*s1*s2
}
