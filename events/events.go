package events

import "go-keytrack/music"

// DefaultQueueSize is the per-kind buffer used by NewChannels
const DefaultQueueSize = 64

// Every event carries the generation it was produced in. The engine bumps the
// generation on reset and publishes a KeyChangeEvent with Display Unknown as
// the marker; consumers drop anything older.

// KeyChangeEvent is emitted when the tracker accepts a new key
type KeyChangeEvent struct {
	Display   string
	Certainty float64
	Key       music.Key
	Gen       uint64
}

// IsReset reports whether ev is the marker published after a reset
func (ev KeyChangeEvent) IsReset() bool {
	return ev.Display == Unknown
}

// DegreeEvent carries the roman numeral of the latest sonority
type DegreeEvent struct {
	Display string
	Gen     uint64
}

// AlternateKeysEvent carries the runner-up keys, e.g. "e minor / G major / a minor"
type AlternateKeysEvent struct {
	Display string
	Gen     uint64
}

// HistogramEvent carries the pitch-class counts of the latest analysis
// window and of every sonority since the last reset
type HistogramEvent struct {
	Counts  [12]float64
	Session [12]float64
	Gen     uint64
}

// ScoreEntry is one played sonority as shown in the score view
type ScoreEntry struct {
	Notes  string `json:"notes"`
	Degree string `json:"degree"`
}

// ScoreEvent carries the most recent sonorities, oldest first
type ScoreEvent struct {
	Entries []ScoreEntry
	Gen     uint64
}

// Channels is one queue per emitted-value kind, from the tracking
// goroutine to the presentation layer
type Channels struct {
	Keys       *Queue[KeyChangeEvent]
	Degrees    *Queue[DegreeEvent]
	Alternates *Queue[AlternateKeysEvent]
	Histograms *Queue[HistogramEvent]
	Scores     *Queue[ScoreEvent]
}

// NewChannels creates all queues with the given capacity
func NewChannels(size int) *Channels {
	return &Channels{
		Keys:       NewQueue[KeyChangeEvent](size),
		Degrees:    NewQueue[DegreeEvent](size),
		Alternates: NewQueue[AlternateKeysEvent](size),
		Histograms: NewQueue[HistogramEvent](size),
		Scores:     NewQueue[ScoreEvent](size),
	}
}

// Snapshot is the presentation-side view built from drained events
type Snapshot struct {
	Key              string       `json:"key"`
	Certainty        float64      `json:"certainty"`
	Degree           string       `json:"degree"`
	Alternates       string       `json:"alternates"`
	Histogram        [12]float64  `json:"histogram"`
	SessionHistogram [12]float64  `json:"session_histogram"`
	Score            []ScoreEntry `json:"score"`
	Generation       uint64       `json:"generation"`
}

// Unknown is shown before anything has been determined
const Unknown = "?"

// EmptySnapshot returns a snapshot with every field unknown
func EmptySnapshot() Snapshot {
	return Snapshot{Key: Unknown, Degree: Unknown, Alternates: Unknown}
}

// Drain applies the latest available item of each kind to s. Empty queues
// leave the corresponding field unchanged. An item from a newer generation
// clears s first; items from older generations are dropped. Returns true if
// anything changed.
func (c *Channels) Drain(s *Snapshot) bool {
	key, hasKey := c.Keys.Latest()
	deg, hasDeg := c.Degrees.Latest()
	alt, hasAlt := c.Alternates.Latest()
	hist, hasHist := c.Histograms.Latest()
	score, hasScore := c.Scores.Latest()

	gen := s.Generation
	for _, g := range []struct {
		ok  bool
		gen uint64
	}{
		{hasKey, key.Gen}, {hasDeg, deg.Gen}, {hasAlt, alt.Gen},
		{hasHist, hist.Gen}, {hasScore, score.Gen},
	} {
		if g.ok && g.gen > gen {
			gen = g.gen
		}
	}

	changed := false
	if gen > s.Generation {
		*s = EmptySnapshot()
		s.Generation = gen
		changed = true
	}

	if hasKey && key.Gen == gen {
		s.Key = key.Display
		s.Certainty = key.Certainty
		changed = true
	}
	if hasDeg && deg.Gen == gen {
		s.Degree = deg.Display
		changed = true
	}
	if hasAlt && alt.Gen == gen {
		s.Alternates = alt.Display
		changed = true
	}
	if hasHist && hist.Gen == gen {
		s.Histogram = hist.Counts
		s.SessionHistogram = hist.Session
		changed = true
	}
	if hasScore && score.Gen == gen {
		s.Score = score.Entries
		changed = true
	}
	return changed
}
