package keyfind

import (
	"fmt"
	"strings"
)

// Profile is a pair of 12-value tonal hierarchy templates, indexed by
// interval above the tonic
type Profile struct {
	Name  string
	Major [12]float64
	Minor [12]float64
}

// Krumhansl-Schmuckler probe-tone ratings
var Krumhansl = Profile{
	Name:  "krumhansl",
	Major: [12]float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88},
	Minor: [12]float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17},
}

// Temperley corpus-derived weights
var Temperley = Profile{
	Name:  "temperley",
	Major: [12]float64{5.0, 2.0, 3.5, 2.0, 4.5, 4.0, 2.0, 4.5, 2.0, 3.5, 1.5, 4.0},
	Minor: [12]float64{5.0, 2.0, 3.5, 4.5, 2.0, 4.0, 2.0, 4.5, 3.5, 2.0, 1.5, 4.0},
}

var profiles = map[string]Profile{
	Krumhansl.Name: Krumhansl,
	Temperley.Name: Temperley,
}

// ProfileByName looks up a built-in profile (case-insensitive)
func ProfileByName(name string) (Profile, error) {
	p, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, fmt.Errorf("unknown key profile %q", name)
	}
	return p, nil
}

// rotated returns the template laid out by absolute pitch class for the given tonic
func (p Profile) rotated(minor bool, tonic int) []float64 {
	src := p.Major
	if minor {
		src = p.Minor
	}
	out := make([]float64, 12)
	for pc := 0; pc < 12; pc++ {
		out[pc] = src[(pc-tonic+12)%12]
	}
	return out
}
