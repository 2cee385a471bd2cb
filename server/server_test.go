package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-keytrack/events"
)

type countingResetter struct{ n int }

func (c *countingResetter) Reset() { c.n++ }

func getState(t *testing.T, h http.Handler) events.Snapshot {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var snap events.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	return snap
}

func TestStateBeforeAnyEvent(t *testing.T) {
	s := New(events.NewChannels(8), &countingResetter{}, 0, nil)
	assert.Equal(t, events.EmptySnapshot(), getState(t, s.Handler()))
}

func TestStateReflectsDrainedEvents(t *testing.T) {
	ch := events.NewChannels(8)
	s := New(ch, &countingResetter{}, 0, nil)

	ch.Keys.Publish(events.KeyChangeEvent{Display: "Eb major", Certainty: 0.87})
	ch.Degrees.Publish(events.DegreeEvent{Display: "IV"})
	ch.Alternates.Publish(events.AlternateKeysEvent{Display: "c minor / Bb major / g minor"})
	ch.Histograms.Publish(events.HistogramEvent{Counts: [12]float64{3: 2, 7: 1, 10: 1}})
	s.drain()

	snap := getState(t, s.Handler())
	assert.Equal(t, "Eb major", snap.Key)
	assert.InDelta(t, 0.87, snap.Certainty, 1e-9)
	assert.Equal(t, "IV", snap.Degree)
	assert.Equal(t, "c minor / Bb major / g minor", snap.Alternates)
	assert.Equal(t, 2.0, snap.Histogram[3])
}

func TestResetClearsStateOnMarker(t *testing.T) {
	ch := events.NewChannels(8)
	r := &countingResetter{}
	s := New(ch, r, 0, nil)

	ch.Keys.Publish(events.KeyChangeEvent{Display: "D major", Certainty: 0.9})
	s.drain()
	require.Equal(t, "D major", s.Snapshot().Key)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reset", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, r.n)

	// queued before the engine handled the reset, then its marker
	ch.Degrees.Publish(events.DegreeEvent{Display: "V"})
	ch.Keys.Publish(events.KeyChangeEvent{Display: events.Unknown, Gen: 1})
	s.drain()

	want := events.EmptySnapshot()
	want.Generation = 1
	assert.Equal(t, want, getState(t, s.Handler()))

	ch.Degrees.Publish(events.DegreeEvent{Display: "IV"})
	s.drain()
	assert.Equal(t, events.Unknown, s.Snapshot().Degree, "stale generation is ignored")
}

func TestStateIncludesScore(t *testing.T) {
	ch := events.NewChannels(8)
	s := New(ch, &countingResetter{}, 0, nil)

	ch.Scores.Publish(events.ScoreEvent{Entries: []events.ScoreEntry{
		{Notes: "<D4 F#4 A4>", Degree: "I"},
		{Notes: "<E4 G4 C#5>", Degree: "vii°6"},
	}})
	ch.Histograms.Publish(events.HistogramEvent{Counts: [12]float64{2: 1}, Session: [12]float64{2: 4}})
	s.drain()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state", nil))
	assert.Contains(t, rec.Body.String(), `"score":[{"notes":`)

	snap := getState(t, s.Handler())
	require.Len(t, snap.Score, 2)
	assert.Equal(t, "vii°6", snap.Score[1].Degree)
	assert.Equal(t, 4.0, snap.SessionHistogram[2])
}

func TestResetRequiresPost(t *testing.T) {
	r := &countingResetter{}
	s := New(events.NewChannels(8), r, 0, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reset", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, 0, r.n)
}

func TestCORSHeaders(t *testing.T) {
	s := New(events.NewChannels(8), &countingResetter{}, 0, nil)

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
