package signal

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidSignal flags malformed or mismatched channel data. Requests
// carrying such a signal are rejected with no side effects.
var ErrInvalidSignal = errors.New("invalid signal")

// Signal is one multichannel acquisition. It is created per request and
// never persisted.
type Signal struct {
	Channels     map[string][]float64 `json:"channels"`
	SamplingRate int                  `json:"sampling_rate"`
}

// Duration returns the signal length in seconds.
func (s Signal) Duration() float64 {
	for _, samples := range s.Channels {
		return float64(len(samples)) / float64(s.SamplingRate)
	}
	return 0
}

// ChannelNames returns the channel names in stable sorted order.
func (s Signal) ChannelNames() []string {
	names := make([]string, 0, len(s.Channels))
	for name := range s.Channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the structural invariants: at least one channel, all
// channels of equal non-zero length, positive sampling rate.
func (s Signal) Validate(maxChannels int) error {
	if s.SamplingRate <= 0 {
		return fmt.Errorf("%w: sampling rate must be positive, got %d", ErrInvalidSignal, s.SamplingRate)
	}
	if len(s.Channels) == 0 {
		return fmt.Errorf("%w: no channels", ErrInvalidSignal)
	}
	if maxChannels > 0 && len(s.Channels) > maxChannels {
		return fmt.Errorf("%w: %d channels exceeds maximum %d", ErrInvalidSignal, len(s.Channels), maxChannels)
	}
	length := -1
	for name, samples := range s.Channels {
		if len(samples) == 0 {
			return fmt.Errorf("%w: channel %s is empty", ErrInvalidSignal, name)
		}
		if length == -1 {
			length = len(samples)
			continue
		}
		if len(samples) != length {
			return fmt.Errorf("%w: channel %s has %d samples, expected %d", ErrInvalidSignal, name, len(samples), length)
		}
	}
	return nil
}
