package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-keytrack/events"
	"go-keytrack/keyfind"
	"go-keytrack/midi"
	"go-keytrack/music"
)

func triad(root int) music.Sonority {
	return music.NewSonority(
		music.PitchFromMIDI(root),
		music.PitchFromMIDI(root+4),
		music.PitchFromMIDI(root+7),
	)
}

func press(notes ...uint8) []midi.NoteEvent {
	var evs []midi.NoteEvent
	for _, n := range notes {
		evs = append(evs, midi.NoteEvent{Note: n, Velocity: 90})
	}
	for _, n := range notes {
		evs = append(evs, midi.NoteEvent{Note: n})
	}
	return evs
}

func drainKeys(q *events.Queue[events.KeyChangeEvent]) []events.KeyChangeEvent {
	var out []events.KeyChangeEvent
	for {
		ev, ok := q.Next()
		if !ok {
			return out
		}
		out = append(out, ev)
	}
}

func TestWindowBeforeBufferFills(t *testing.T) {
	b := NewBuffer()
	for i := 0; i < 5; i++ {
		b.Append(triad(60 + i))
	}
	w := b.Window(16)
	require.Len(t, w, 5)
	assert.Equal(t, triad(64).MIDI(), w[4].MIDI())
}

func TestWindowExcludesNewestOnceFull(t *testing.T) {
	b := NewBuffer()
	for i := 0; i < 17; i++ {
		b.Append(triad(40 + i))
	}
	w := b.Window(16)
	require.Len(t, w, 16)
	assert.Equal(t, triad(40).MIDI(), w[0].MIDI())
	assert.Equal(t, triad(55).MIDI(), w[15].MIDI())
}

func TestWindowAtExactSizeIncludesNewest(t *testing.T) {
	b := NewBuffer()
	for i := 0; i < 16; i++ {
		b.Append(triad(40 + i))
	}
	w := b.Window(16)
	require.Len(t, w, 16)
	assert.Equal(t, triad(55).MIDI(), w[15].MIDI())
}

func TestBufferClear(t *testing.T) {
	b := NewBuffer()
	b.Append(triad(60))
	b.Clear()
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Window(16))
}

func estimate(tonic int, mode music.Mode, certainty float64) keyfind.Estimate {
	return keyfind.Estimate{
		Key:       music.Key{Tonic: music.PitchClass(tonic), Mode: mode},
		Certainty: certainty,
	}
}

func TestTrackerHysteresis(t *testing.T) {
	tr := NewTracker(keyfind.NewCorrelator(keyfind.Krumhansl, 3), 0.8, nil)
	assert := assert.New(t)

	assert.False(tr.Consider(estimate(0, music.Major, 0.8)), "threshold is exclusive")
	assert.Equal(Undetermined, tr.State())

	assert.True(tr.Consider(estimate(0, music.Major, 0.95)))
	assert.Equal(Established, tr.State())

	assert.False(tr.Consider(estimate(0, music.Major, 0.99)), "same key is not re-reported")
	assert.False(tr.Consider(estimate(7, music.Major, 0.5)), "weak candidate keeps current key")
	assert.Equal("C major", tr.Key().String())

	assert.True(tr.Consider(estimate(9, music.Minor, 0.9)))
	assert.Equal("a minor", tr.Key().String())

	tr.Reset()
	assert.Equal(Undetermined, tr.State())
	assert.Nil(tr.Key())
}

func TestTrackerEmptyWindowKeepsState(t *testing.T) {
	tr := NewTracker(keyfind.NewCorrelator(keyfind.Krumhansl, 3), 0.8, nil)
	_, changed := tr.Observe(nil)
	assert.False(t, changed)
	assert.Equal(t, Undetermined, tr.State())

	_, changed = tr.Observe([]music.Sonority{triad(60)})
	assert.True(t, changed)
	_, changed = tr.Observe(nil)
	assert.False(t, changed)
	assert.Equal(t, Established, tr.State())
}

func TestRepeatedTriadEmitsOneKeyChange(t *testing.T) {
	out := events.NewChannels(events.DefaultQueueSize)
	e := New(Options{Threshold: 0.8}, out)

	var evs []midi.NoteEvent
	for i := 0; i < 5; i++ {
		evs = append(evs, press(60, 64, 67)...)
	}
	n := 0
	for _, ev := range evs {
		if _, ok := e.Handle(ev); ok {
			n++
		}
	}
	require.Equal(t, 5, n)

	keys := drainKeys(out.Keys)
	require.Len(t, keys, 1)
	assert.Equal(t, "C major", keys[0].Display)
	assert.Greater(t, keys[0].Certainty, 0.8)

	assert.Equal(t, 5, out.Degrees.Len())
	deg, _ := out.Degrees.Latest()
	assert.Equal(t, "I", deg.Display)

	alt, ok := out.Alternates.Latest()
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(alt.Display, "e minor / G major"), alt.Display)
	assert.Len(t, strings.Split(alt.Display, " / "), 3)
}

func TestNoAnnotationWhileUndetermined(t *testing.T) {
	out := events.NewChannels(events.DefaultQueueSize)
	e := New(Options{Threshold: 0.8}, out)

	for _, ev := range press(60) {
		e.Handle(ev)
	}
	assert.Equal(t, Undetermined, e.Tracker().State())
	assert.Equal(t, 0, out.Keys.Len())
	assert.Equal(t, 0, out.Degrees.Len())
	assert.Equal(t, 1, out.Histograms.Len())
}

func TestThresholdOfOneNeverAccepts(t *testing.T) {
	out := events.NewChannels(events.DefaultQueueSize)
	e := New(Options{Threshold: 1.0}, out)
	for i := 0; i < 4; i++ {
		for _, ev := range press(60, 64, 67) {
			e.Handle(ev)
		}
	}
	assert.Equal(t, 0, out.Keys.Len())
	assert.Equal(t, 0, out.Degrees.Len())
}

func TestResetReturnsToUndetermined(t *testing.T) {
	out := events.NewChannels(events.DefaultQueueSize)
	e := New(Options{}, out)
	for _, ev := range press(60, 64, 67) {
		e.Handle(ev)
	}
	require.Equal(t, Established, e.Tracker().State())

	session := e.Session()
	drainKeys(out.Keys)
	e.reset()
	assert.NotEqual(t, session, e.Session())
	assert.Equal(t, uint64(1), e.Generation())
	assert.Equal(t, 0, e.Buffered())
	assert.Equal(t, Undetermined, e.Tracker().State())

	marker := drainKeys(out.Keys)
	require.Len(t, marker, 1)
	assert.True(t, marker[0].IsReset())
	assert.Equal(t, uint64(1), marker[0].Gen)

	_, changed := e.Tracker().Observe(nil)
	assert.False(t, changed)
	assert.Equal(t, Undetermined, e.Tracker().State())

	// the same key is reported again after a reset
	for _, ev := range press(60, 64, 67) {
		e.Handle(ev)
	}
	keys := drainKeys(out.Keys)
	require.Len(t, keys, 1)
	assert.Equal(t, "C major", keys[0].Display)
	assert.Equal(t, uint64(1), keys[0].Gen)

	score, ok := out.Scores.Latest()
	require.True(t, ok)
	assert.Len(t, score.Entries, 1)
	hist, _ := out.Histograms.Latest()
	assert.Equal(t, 1.0, hist.Session[0])
}

func TestScoreKeepsRecentSonorities(t *testing.T) {
	out := events.NewChannels(events.DefaultQueueSize)
	e := New(Options{ScoreLength: 3}, out)

	// one Db before the key is known, then C major triads
	for _, ev := range press(61) {
		e.Handle(ev)
	}
	first, ok := out.Scores.Latest()
	require.True(t, ok)
	assert.Equal(t, []events.ScoreEntry{{Notes: "<C#4>"}}, first.Entries)

	for i := 0; i < 4; i++ {
		for _, ev := range press(60, 63, 67) {
			e.Handle(ev)
		}
	}
	score, ok := out.Scores.Latest()
	require.True(t, ok)
	require.Len(t, score.Entries, 3)
	last := score.Entries[2]
	assert.Equal(t, "<C4 Eb4 G4>", last.Notes)
	assert.Equal(t, "i", last.Degree)

	// published entries are not aliased by later appends
	for _, ev := range press(67, 71, 62) {
		e.Handle(ev)
	}
	assert.Equal(t, "<C4 Eb4 G4>", score.Entries[2].Notes)
}

func TestSessionHistogramOutlivesWindow(t *testing.T) {
	out := events.NewChannels(events.DefaultQueueSize)
	e := New(Options{Window: 2}, out)
	for _, root := range []uint8{60, 65, 67, 60} {
		for _, ev := range press(root, root+4, root+7) {
			e.Handle(ev)
		}
	}

	hist, ok := out.Histograms.Latest()
	require.True(t, ok)
	assert.Equal(t, 2.0, keyfind.Distribution(hist.Counts).Total()/3)
	assert.Equal(t, 12.0, keyfind.Distribution(hist.Session).Total())
	assert.Equal(t, 3.0, hist.Session[0], "C in C, F and C triads")

	e.reset()
	for _, ev := range press(62) {
		e.Handle(ev)
	}
	hist, _ = out.Histograms.Latest()
	assert.Equal(t, 1.0, keyfind.Distribution(hist.Session).Total())
}

func TestAnnotateIsPure(t *testing.T) {
	est := keyfind.Estimate{
		Key: music.Key{Tonic: 0, Mode: music.Major},
		Alternates: []keyfind.Candidate{
			{Key: music.Key{Tonic: 4, Mode: music.Minor}},
			{Key: music.Key{Tonic: 0, Mode: music.Major}},
			{Key: music.Key{Tonic: 10, Mode: music.Major}},
			{Key: music.Key{Tonic: 9, Mode: music.Minor}},
			{Key: music.Key{Tonic: 5, Mode: music.Major}},
		},
	}
	g7 := music.NewSonority(
		music.PitchFromMIDI(55), music.PitchFromMIDI(59),
		music.PitchFromMIDI(62), music.PitchFromMIDI(65),
	)

	a := Annotate(g7, est, 3)
	assert.Equal(t, a, Annotate(g7, est, 3))
	assert.Equal(t, "V7", a.Degree)
	assert.Equal(t, "e minor / Bb major / a minor", a.Alternates)
}

type fakeSource struct {
	ch chan midi.NoteEvent
}

func (f *fakeSource) ID() string { return "fake" }
func (f *fakeSource) NoteEvents() <-chan midi.NoteEvent { return f.ch }
func (f *fakeSource) Close() error { return nil }

func TestRunUntilSourceCloses(t *testing.T) {
	src := &fakeSource{ch: make(chan midi.NoteEvent, 32)}
	for _, ev := range press(57, 60, 64) {
		src.ch <- ev
	}
	close(src.ch)

	out := events.NewChannels(events.DefaultQueueSize)
	e := New(Options{}, out)
	require.NoError(t, e.Run(context.Background(), src))

	ev, ok := out.Keys.Latest()
	require.True(t, ok)
	assert.Equal(t, "a minor", ev.Display)
}

func TestRunStopsOnCancel(t *testing.T) {
	src := &fakeSource{ch: make(chan midi.NoteEvent)}
	e := New(Options{}, events.NewChannels(events.DefaultQueueSize))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx, src) }()

	e.Reset()
	e.Reset()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
