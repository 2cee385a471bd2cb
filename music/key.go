package music

import "strings"

// Mode is major or minor
type Mode int

const (
	Major Mode = iota
	Minor
)

func (m Mode) String() string {
	if m == Minor {
		return "minor"
	}
	return "major"
}

// Key is a tonic and a mode
type Key struct {
	Tonic PitchClass
	Mode  Mode
}

// majorFifths maps a major tonic to its position on the circle of fifths
// (positive = sharps, negative = flats). F# is preferred over Gb.
var majorFifths = [12]int{0, -5, 2, -3, 4, -1, 6, 1, -4, 3, -2, 5}

// Fifths returns the number of sharps (positive) or flats (negative) in the key signature
func (k Key) Fifths() int {
	tonic := k.Tonic.Normalize()
	if k.Mode == Minor {
		// relative major sits a minor third above
		return majorFifths[(tonic+3)%12]
	}
	return majorFifths[tonic]
}

// PrefersFlats reports whether chromatic notes in this key are spelled with flats
func (k Key) PrefersFlats() bool {
	return k.Fifths() < 0
}

// Spelling returns the accidental direction used by this key
func (k Key) Spelling() Spelling {
	if k.PrefersFlats() {
		return SpellFlat
	}
	return SpellSharp
}

// center is the tonic's position on the line of fifths (F=-1, C=0, G=1, ...)
func (k Key) center() int {
	if k.Mode == Minor {
		return k.Fifths() + 3
	}
	return k.Fifths()
}

// SpellingOf picks the name of pc that lies nearest the tonic on the line of
// fifths, so C major gets Bb and Ab while A major gets C# and G#. Ties (the
// tritone) go to sharps unless the key has flats.
func (k Key) SpellingOf(pc PitchClass) Spelling {
	if !pc.IsAccidental() {
		return k.Spelling()
	}
	c := k.center()
	sharp := sharpPosition(pc)
	flat := sharp - 12
	ds, df := abs(sharp-c), abs(flat-c)
	if df < ds || (df == ds && c < 0) {
		return SpellFlat
	}
	return SpellSharp
}

// TonicName returns the tonic spelled according to the key signature
func (k Key) TonicName() string {
	return k.Tonic.Name(k.Spelling())
}

// String renders "C major" or "f# minor"
func (k Key) String() string {
	name := k.TonicName()
	if k.Mode == Minor {
		name = strings.ToLower(name)
	}
	return name + " " + k.Mode.String()
}

// Equal compares tonic and mode only
func (k Key) Equal(o Key) bool {
	return k.Tonic.Normalize() == o.Tonic.Normalize() && k.Mode == o.Mode
}

// Index returns 0..23 (majors first) for ordering
func (k Key) Index() int {
	return int(k.Mode)*12 + int(k.Tonic.Normalize())
}

// AllKeys returns the 24 major and minor keys, majors first
func AllKeys() []Key {
	keys := make([]Key, 0, 24)
	for _, m := range []Mode{Major, Minor} {
		for t := 0; t < 12; t++ {
			keys = append(keys, Key{Tonic: PitchClass(t), Mode: m})
		}
	}
	return keys
}
