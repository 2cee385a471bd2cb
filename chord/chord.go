package chord

import (
	"go-keytrack/midi"
	"go-keytrack/music"
)

// KeyContext returns the key used to spell finished sonorities, or nil if
// no key has been established
type KeyContext func() *music.Key

// Builder turns note on/off events into sonorities. A sonority is every
// pitch pressed since the last time all keys were up, emitted once the last
// key is released.
type Builder struct {
	sustained map[uint8]bool // pressed since the sonority began
	live      map[uint8]bool // currently held down
	order     []uint8        // sustained notes in press order
	keyCtx    KeyContext
}

// NewBuilder creates a builder; keyCtx may be nil
func NewBuilder(keyCtx KeyContext) *Builder {
	return &Builder{
		sustained: make(map[uint8]bool),
		live:      make(map[uint8]bool),
		keyCtx:    keyCtx,
	}
}

// Handle processes one device event. ok is true when the event completed a sonority.
func (b *Builder) Handle(ev midi.NoteEvent) (s music.Sonority, ok bool) {
	if ev.IsOnset() {
		b.NoteOn(ev.Note)
		return music.Sonority{}, false
	}
	return b.NoteOff(ev.Note)
}

// NoteOn adds note to both the sustain and the live set
func (b *Builder) NoteOn(note uint8) {
	if !b.sustained[note] {
		b.sustained[note] = true
		b.order = append(b.order, note)
	}
	b.live[note] = true
}

// NoteOff releases note. Releases of notes that are not held are ignored.
func (b *Builder) NoteOff(note uint8) (music.Sonority, bool) {
	if !b.live[note] {
		return music.Sonority{}, false
	}
	delete(b.live, note)
	if len(b.live) > 0 {
		return music.Sonority{}, false
	}
	return b.finish(), true
}

// IsHeld reports whether note is currently down
func (b *Builder) IsHeld(note uint8) bool {
	return b.live[note]
}

// Held returns the number of keys currently down
func (b *Builder) Held() int {
	return len(b.live)
}

// Pending returns the number of pitches in the unfinished sonority
func (b *Builder) Pending() int {
	return len(b.sustained)
}

func (b *Builder) finish() music.Sonority {
	pitches := make([]music.Pitch, 0, len(b.order))
	for _, n := range b.order {
		pitches = append(pitches, music.PitchFromMIDI(int(n)))
	}

	var key *music.Key
	if b.keyCtx != nil {
		key = b.keyCtx()
	}
	s := music.NewSonority(music.Respell(pitches, key)...)

	b.sustained = make(map[uint8]bool)
	b.order = b.order[:0]
	return s
}
