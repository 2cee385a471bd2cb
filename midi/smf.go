package midi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2/smf"
)

// TimedEvent is a note event at an absolute offset from the start of a file
type TimedEvent struct {
	At    time.Duration
	Event NoteEvent
}

// ReadFile parses a Standard MIDI File into time-ordered note events
func ReadFile(path string) ([]TimedEvent, error) {
	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read midi file: %w", err)
	}
	return ReadEvents(bytes.NewReader(dat))
}

// ReadEvents parses SMF data from r. Events from all tracks are merged by
// time; at equal times releases come before onsets so that a re-struck
// chord closes the previous one first.
func ReadEvents(r io.Reader) (evs []TimedEvent, e error) {
	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if rec := recover(); rec != nil {
			evs = nil
			e = fmt.Errorf("parse midi file: %v", rec)
		}
	}()

	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("parse midi file: %w", err)
	}

	for _, track := range s.Tracks {
		var absTicks int64
		for _, event := range track {
			absTicks += int64(event.Delta)
			at := time.Duration(s.TimeAt(absTicks)) * time.Microsecond
			var channel, key, velocity uint8
			switch {
			case event.Message.GetNoteStart(&channel, &key, &velocity):
				evs = append(evs, TimedEvent{At: at, Event: NoteEvent{Note: key, Velocity: velocity, Channel: channel}})
			case event.Message.GetNoteEnd(&channel, &key):
				evs = append(evs, TimedEvent{At: at, Event: NoteEvent{Note: key, Channel: channel}})
			}
		}
	}

	sort.SliceStable(evs, func(i, j int) bool {
		if evs[i].At != evs[j].At {
			return evs[i].At < evs[j].At
		}
		return !evs[i].Event.IsOnset() && evs[j].Event.IsOnset()
	})
	return evs, nil
}

// FileSource replays parsed events as a Source
type FileSource struct {
	id       string
	noteChan chan NoteEvent
	stop     chan struct{}
	once     sync.Once
}

// NewFileSource starts replaying evs. With realtime set, events are paced by
// their offsets; otherwise they are delivered as fast as they are consumed.
func NewFileSource(id string, evs []TimedEvent, realtime bool) *FileSource {
	fs := &FileSource{
		id:       id,
		noteChan: make(chan NoteEvent),
		stop:     make(chan struct{}),
	}
	go fs.play(evs, realtime)
	return fs
}

// OpenFile reads path and returns a source replaying it
func OpenFile(path string, realtime bool) (*FileSource, error) {
	evs, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(evs) == 0 {
		return nil, errors.New("midi file has no note events")
	}
	return NewFileSource(path, evs, realtime), nil
}

func (fs *FileSource) play(evs []TimedEvent, realtime bool) {
	defer close(fs.noteChan)
	start := time.Now()
	for _, te := range evs {
		if realtime {
			if wait := te.At - time.Since(start); wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-fs.stop:
					timer.Stop()
					return
				case <-timer.C:
				}
			}
		}
		select {
		case <-fs.stop:
			return
		case fs.noteChan <- te.Event:
		}
	}
}

func (fs *FileSource) ID() string {
	return fs.id
}

func (fs *FileSource) NoteEvents() <-chan NoteEvent {
	return fs.noteChan
}

// Close stops playback; the event channel is closed by the player goroutine
func (fs *FileSource) Close() error {
	fs.once.Do(func() {
		close(fs.stop)
	})
	return nil
}
