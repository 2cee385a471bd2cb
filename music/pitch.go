package music

import "fmt"

// PitchClass is a pitch with octave removed (0=C, 1=C#/Db, ..., 11=B)
type PitchClass int

// Spelling selects how a chromatic pitch class is named
type Spelling int

const (
	SpellDefault Spelling = iota
	SpellSharp
	SpellFlat
)

var (
	defaultNames = [12]string{"C", "C#", "D", "Eb", "E", "F", "F#", "G", "Ab", "A", "Bb", "B"}
	sharpNames   = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	flatNames    = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}
)

// Normalize wraps any integer into 0..11
func (pc PitchClass) Normalize() PitchClass {
	return PitchClass(((int(pc) % 12) + 12) % 12)
}

// Name returns the pitch class name under the given spelling
func (pc PitchClass) Name(s Spelling) string {
	i := int(pc.Normalize())
	switch s {
	case SpellSharp:
		return sharpNames[i]
	case SpellFlat:
		return flatNames[i]
	default:
		return defaultNames[i]
	}
}

// IsAccidental reports whether pc is a black key
func (pc PitchClass) IsAccidental() bool {
	switch pc.Normalize() {
	case 1, 3, 6, 8, 10:
		return true
	}
	return false
}

// sharpPosition places pc, spelled with sharps, on the line of fifths (F=-1 ... A#=10)
func sharpPosition(pc PitchClass) int {
	return (int(pc.Normalize())*7+1)%12 - 1
}

func (pc PitchClass) String() string {
	return pc.Name(SpellDefault)
}

// Pitch is a symbolic note: pitch class, octave and spelling preference.
// MIDI 60 is C4.
type Pitch struct {
	Class    PitchClass
	Octave   int
	Spelling Spelling
}

// PitchFromMIDI converts a MIDI note number into a Pitch
func PitchFromMIDI(n int) Pitch {
	return Pitch{
		Class:  PitchClass(n).Normalize(),
		Octave: floorDiv(n, 12) - 1,
	}
}

// MIDI returns the MIDI note number
func (p Pitch) MIDI() int {
	return (p.Octave+1)*12 + int(p.Class)
}

// WithSpelling returns a copy of p spelled with s
func (p Pitch) WithSpelling(s Spelling) Pitch {
	p.Spelling = s
	return p
}

// Name returns e.g. "C4" or "Eb3"
func (p Pitch) Name() string {
	return fmt.Sprintf("%s%d", p.Class.Name(p.Spelling), p.Octave)
}

func (p Pitch) String() string {
	return p.Name()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
