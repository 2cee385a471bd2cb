package midi

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
)

// NoteEvent is one key press or release from a device. Velocity 0 is a release.
type NoteEvent struct {
	Note     uint8
	Velocity uint8
	Channel  uint8
}

// IsOnset reports whether the event starts a note
func (e NoteEvent) IsOnset() bool {
	return e.Velocity != 0
}

// Type returns NoteOn or NoteOff
func (e NoteEvent) Type() uint8 {
	if e.IsOnset() {
		return NoteOn
	}
	return NoteOff
}

// Source is a device event stream. The channel is closed when the source
// is exhausted or closed.
type Source interface {
	ID() string
	NoteEvents() <-chan NoteEvent
	Close() error
}
