package engine

import (
	"errors"
	"io"

	"github.com/charmbracelet/log"

	"go-keytrack/keyfind"
	"go-keytrack/music"
)

// DefaultThreshold is the certainty a candidate must exceed to be accepted
const DefaultThreshold = 0.8

// State of the key tracker
type State int

const (
	Undetermined State = iota
	Established
)

func (s State) String() string {
	if s == Established {
		return "established"
	}
	return "undetermined"
}

// Tracker decides when the reported key changes. A candidate is accepted only
// if its certainty exceeds the threshold and its key differs from the current
// one; confident reconfirmations of the same key are not reported.
type Tracker struct {
	correlator *keyfind.Correlator
	threshold  float64
	current    *keyfind.Estimate
	log        *log.Logger
}

// NewTracker creates a tracker in the Undetermined state
func NewTracker(c *keyfind.Correlator, threshold float64, logger *log.Logger) *Tracker {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Tracker{
		correlator: c,
		threshold:  threshold,
		log:        logger,
	}
}

// Observe analyses a window and applies the hysteresis rule. It returns the
// accepted estimate and true only when the reported key changed.
func (t *Tracker) Observe(window []music.Sonority) (keyfind.Estimate, bool) {
	if len(window) == 0 {
		return keyfind.Estimate{}, false
	}
	candidate, err := t.correlator.Rank(keyfind.Histogram(window))
	if errors.Is(err, keyfind.ErrEmptyDistribution) {
		return keyfind.Estimate{}, false
	}
	if err != nil {
		panic(err)
	}
	return candidate, t.Consider(candidate)
}

// Consider applies the hysteresis rule to a candidate estimate
func (t *Tracker) Consider(candidate keyfind.Estimate) bool {
	if candidate.Certainty <= t.threshold {
		t.log.Debug("weak key candidate", "key", candidate.Key, "certainty", candidate.Certainty)
		return false
	}
	if t.current != nil && t.current.Key.Equal(candidate.Key) {
		return false
	}
	accepted := candidate
	t.current = &accepted
	return true
}

// Current returns the accepted estimate, if any
func (t *Tracker) Current() (keyfind.Estimate, bool) {
	if t.current == nil {
		return keyfind.Estimate{}, false
	}
	return *t.current, true
}

// Key returns the accepted key, or nil while undetermined
func (t *Tracker) Key() *music.Key {
	if t.current == nil {
		return nil
	}
	k := t.current.Key
	return &k
}

// State reports Undetermined or Established
func (t *Tracker) State() State {
	if t.current == nil {
		return Undetermined
	}
	return Established
}

// Threshold returns the configured certainty threshold
func (t *Tracker) Threshold() float64 {
	return t.threshold
}

// Reset forgets the accepted key
func (t *Tracker) Reset() {
	t.current = nil
}
