package midi

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func encodeTrack(t *testing.T, build func(tr *smf.Track)) []byte {
	t.Helper()
	s := smf.New()
	var tr smf.Track
	build(&tr)
	tr.Close(0)
	require.NoError(t, s.Add(tr))

	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestNoteEventOnset(t *testing.T) {
	assert := assert.New(t)
	assert.True(NoteEvent{Note: 60, Velocity: 90}.IsOnset())
	assert.Equal(NoteOn, NoteEvent{Note: 60, Velocity: 90}.Type())
	assert.False(NoteEvent{Note: 60}.IsOnset())
	assert.Equal(NoteOff, NoteEvent{Note: 60}.Type())
}

func TestReadEventsOrdersReleasesFirst(t *testing.T) {
	data := encodeTrack(t, func(tr *smf.Track) {
		tr.Add(0, gomidi.NoteOn(0, 60, 100))
		tr.Add(0, gomidi.NoteOn(0, 64, 100))
		tr.Add(480, gomidi.NoteOn(0, 67, 100)) // onset written before the release at the same tick
		tr.Add(0, gomidi.NoteOff(0, 60))
		tr.Add(0, gomidi.NoteOff(0, 64))
		tr.Add(480, gomidi.NoteOff(0, 67))
	})

	evs, err := ReadEvents(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, evs, 6)

	assert := assert.New(t)
	assert.Equal(uint8(60), evs[0].Event.Note)
	assert.True(evs[0].Event.IsOnset())
	assert.Equal(uint8(64), evs[1].Event.Note)

	// second tick: releases of 60 and 64 precede the onset of 67
	assert.False(evs[2].Event.IsOnset())
	assert.False(evs[3].Event.IsOnset())
	assert.Equal(uint8(67), evs[4].Event.Note)
	assert.True(evs[4].Event.IsOnset())
	assert.Greater(evs[4].At, time.Duration(0))
	assert.False(evs[5].Event.IsOnset())
}

func TestReadEventsRejectsGarbage(t *testing.T) {
	_, err := ReadEvents(bytes.NewReader([]byte("not a midi file")))
	assert.Error(t, err)
}

func TestFileSourceDeliversAndCloses(t *testing.T) {
	evs := []TimedEvent{
		{At: 0, Event: NoteEvent{Note: 60, Velocity: 80}},
		{At: time.Millisecond, Event: NoteEvent{Note: 60}},
	}
	src := NewFileSource("test", evs, false)

	var got []NoteEvent
	for ev := range src.NoteEvents() {
		got = append(got, ev)
	}
	assert.Equal(t, []NoteEvent{evs[0].Event, evs[1].Event}, got)
	assert.NoError(t, src.Close())
	assert.Equal(t, "test", src.ID())
}

func TestFileSourceCloseStopsPlayback(t *testing.T) {
	evs := []TimedEvent{
		{At: 0, Event: NoteEvent{Note: 60, Velocity: 80}},
		{At: time.Hour, Event: NoteEvent{Note: 60}},
	}
	src := NewFileSource("slow", evs, true)
	<-src.NoteEvents()
	require.NoError(t, src.Close())

	_, ok := <-src.NoteEvents()
	assert.False(t, ok)
}

func TestSelectPortWithoutDevices(t *testing.T) {
	_, err := SelectPort(nil, "")
	assert.ErrorIs(t, err, ErrNoDevices)
}
