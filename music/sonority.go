package music

import (
	"sort"
	"strings"
)

// Sonority is an unordered set of pitches sounding together. Immutable.
type Sonority struct {
	pitches []Pitch // sorted by MIDI number, unique
}

// NewSonority builds a sonority; duplicate MIDI numbers collapse to one pitch
func NewSonority(pitches ...Pitch) Sonority {
	seen := make(map[int]bool, len(pitches))
	unique := make([]Pitch, 0, len(pitches))
	for _, p := range pitches {
		if seen[p.MIDI()] {
			continue
		}
		seen[p.MIDI()] = true
		unique = append(unique, p)
	}
	sort.Slice(unique, func(i, j int) bool {
		return unique[i].MIDI() < unique[j].MIDI()
	})
	return Sonority{pitches: unique}
}

// Pitches returns a copy of the pitches, lowest first
func (s Sonority) Pitches() []Pitch {
	out := make([]Pitch, len(s.pitches))
	copy(out, s.pitches)
	return out
}

// Len returns the number of distinct pitches
func (s Sonority) Len() int {
	return len(s.pitches)
}

// IsEmpty reports whether the sonority has no pitches
func (s Sonority) IsEmpty() bool {
	return len(s.pitches) == 0
}

// Bass returns the lowest pitch
func (s Sonority) Bass() (Pitch, bool) {
	if len(s.pitches) == 0 {
		return Pitch{}, false
	}
	return s.pitches[0], true
}

// PitchClasses returns the distinct pitch classes, ascending
func (s Sonority) PitchClasses() []PitchClass {
	var set [12]bool
	for _, p := range s.pitches {
		set[p.Class.Normalize()] = true
	}
	var out []PitchClass
	for pc, ok := range set {
		if ok {
			out = append(out, PitchClass(pc))
		}
	}
	return out
}

// MIDI returns the MIDI note numbers, lowest first
func (s Sonority) MIDI() []int {
	out := make([]int, len(s.pitches))
	for i, p := range s.pitches {
		out[i] = p.MIDI()
	}
	return out
}

// Respelled returns a copy with every pitch spelled in the context of k
func (s Sonority) Respelled(k *Key) Sonority {
	return Sonority{pitches: Respell(s.pitches, k)}
}

func (s Sonority) String() string {
	names := make([]string, len(s.pitches))
	for i, p := range s.pitches {
		names[i] = p.Name()
	}
	return "<" + strings.Join(names, " ") + ">"
}

// Respell normalizes enharmonic spellings using key as context: each black
// key takes the name closest to the tonic on the line of fifths. A nil key
// leaves the default spelling in place.
func Respell(pitches []Pitch, key *Key) []Pitch {
	out := make([]Pitch, len(pitches))
	for i, p := range pitches {
		if key == nil {
			out[i] = p.WithSpelling(SpellDefault)
			continue
		}
		out[i] = p.WithSpelling(key.SpellingOf(p.Class))
	}
	return out
}
