package music

import "strings"

// Quality is the triad type of a chord
type Quality int

const (
	QualityMajor Quality = iota
	QualityMinor
	QualityDiminished
	QualityAugmented
)

func (q Quality) String() string {
	switch q {
	case QualityMinor:
		return "minor"
	case QualityDiminished:
		return "diminished"
	case QualityAugmented:
		return "augmented"
	}
	return "major"
}

// Seventh is the kind of seventh stacked on the triad, if any
type Seventh int

const (
	NoSeventh Seventh = iota
	MinorSeventh
	MajorSeventh
	DiminishedSeventh
)

// Chord is the result of root detection on a sonority
type Chord struct {
	Root     PitchClass
	Bass     PitchClass
	Quality  Quality
	Seventh  Seventh
	HasThird bool
}

type chordShape struct {
	intervals []int
	quality   Quality
	seventh   Seventh
}

// ordered by specificity: first full match wins for a given root
var chordShapes = []chordShape{
	{[]int{0, 4, 7, 10}, QualityMajor, MinorSeventh},
	{[]int{0, 4, 7, 11}, QualityMajor, MajorSeventh},
	{[]int{0, 3, 7, 10}, QualityMinor, MinorSeventh},
	{[]int{0, 3, 6, 10}, QualityDiminished, MinorSeventh},
	{[]int{0, 3, 6, 9}, QualityDiminished, DiminishedSeventh},
	{[]int{0, 4, 7}, QualityMajor, NoSeventh},
	{[]int{0, 3, 7}, QualityMinor, NoSeventh},
	{[]int{0, 3, 6}, QualityDiminished, NoSeventh},
	{[]int{0, 4, 8}, QualityAugmented, NoSeventh},
	{[]int{0, 4, 10}, QualityMajor, MinorSeventh},
	{[]int{0, 4}, QualityMajor, NoSeventh},
	{[]int{0, 3}, QualityMinor, NoSeventh},
}

// AnalyzeChord finds the root and quality of a sonority. Every pitch class is
// tried as a root; the one matching the largest chord shape wins, and ties go
// to the bass note. Sonorities without a third fall back to a root on the
// lower note of a perfect fifth, or the bass.
func AnalyzeChord(s Sonority) (Chord, bool) {
	bassPitch, ok := s.Bass()
	if !ok {
		return Chord{}, false
	}
	bass := bassPitch.Class.Normalize()
	classes := s.PitchClasses()

	var has [12]bool
	for _, pc := range classes {
		has[pc] = true
	}

	best := Chord{Root: bass, Bass: bass}
	bestScore := 0
	for _, root := range classes {
		for _, shape := range chordShapes {
			if !shapeMatches(has, root, shape.intervals) {
				continue
			}
			score := len(shape.intervals)
			if score > bestScore || (score == bestScore && root == bass) {
				bestScore = score
				best = Chord{
					Root:     root,
					Bass:     bass,
					Quality:  shape.quality,
					Seventh:  shape.seventh,
					HasThird: true,
				}
			}
			break
		}
	}
	if bestScore > 0 {
		return best, true
	}

	// no third: look for an open fifth
	for _, root := range classes {
		if has[(root+7)%12] {
			return Chord{Root: root, Bass: bass}, true
		}
	}
	return best, true
}

func shapeMatches(has [12]bool, root PitchClass, intervals []int) bool {
	for _, iv := range intervals {
		if !has[(int(root)+iv)%12] {
			return false
		}
	}
	return true
}

type degreeName struct {
	accidental string
	numeral    string
}

var majorDegrees = [12]degreeName{
	{"", "I"}, {"b", "II"}, {"", "II"}, {"b", "III"}, {"", "III"}, {"", "IV"},
	{"#", "IV"}, {"", "V"}, {"b", "VI"}, {"", "VI"}, {"b", "VII"}, {"", "VII"},
}

var minorDegrees = [12]degreeName{
	{"", "I"}, {"b", "II"}, {"", "II"}, {"", "III"}, {"#", "III"}, {"", "IV"},
	{"#", "IV"}, {"", "V"}, {"", "VI"}, {"#", "VI"}, {"", "VII"}, {"#", "VII"},
}

// diatonic triad qualities, used when a sonority has no third
var majorDiatonic = map[int]Quality{0: QualityMajor, 2: QualityMinor, 4: QualityMinor, 5: QualityMajor, 7: QualityMajor, 9: QualityMinor, 11: QualityDiminished}
var minorDiatonic = map[int]Quality{0: QualityMinor, 2: QualityDiminished, 3: QualityMajor, 5: QualityMinor, 7: QualityMajor, 8: QualityMajor, 9: QualityMinor, 10: QualityMajor, 11: QualityDiminished}

// raisedMinor reports whether a chord on the raised sixth or seventh of a
// minor key has the quality those degrees take in melodic and harmonic minor.
// Such chords are written without an accidental (vi, vii°).
func raisedMinor(degree int, q Quality) bool {
	switch degree {
	case 9:
		return q == QualityMinor || q == QualityDiminished
	case 11:
		return q == QualityDiminished
	}
	return false
}

// RomanNumeral labels a sonority's harmonic function in key, e.g. "V7", "bVI", "vii°", "I6".
// Returns "" for an empty sonority.
func RomanNumeral(s Sonority, key Key) string {
	c, ok := AnalyzeChord(s)
	if !ok {
		return ""
	}
	return c.Figure(key)
}

// Figure renders the chord as a roman numeral relative to key
func (c Chord) Figure(key Key) string {
	degree := int((c.Root - key.Tonic + 12).Normalize())

	table, diatonic := majorDegrees, majorDiatonic
	if key.Mode == Minor {
		table, diatonic = minorDegrees, minorDiatonic
	}
	name := table[degree]

	quality := c.Quality
	if !c.HasThird {
		if q, ok := diatonic[degree]; ok {
			quality = q
		} else {
			quality = QualityMajor
		}
	}

	numeral := name.numeral
	if quality == QualityMinor || quality == QualityDiminished {
		numeral = strings.ToLower(numeral)
	}

	accidental := name.accidental
	if key.Mode == Minor && raisedMinor(degree, quality) {
		accidental = ""
	}

	var b strings.Builder
	b.WriteString(accidental)
	b.WriteString(numeral)
	switch {
	case quality == QualityAugmented:
		b.WriteString("+")
	case quality == QualityDiminished && c.Seventh == MinorSeventh:
		b.WriteString("ø")
	case quality == QualityDiminished:
		b.WriteString("°")
	}
	if c.HasThird {
		b.WriteString(c.inversionFigure())
	}
	return b.String()
}

func (c Chord) inversionFigure() string {
	bassInterval := int((c.Bass - c.Root + 12).Normalize())
	if c.Seventh == NoSeventh {
		switch bassInterval {
		case 3, 4:
			return "6"
		case 6, 7, 8:
			return "64"
		}
		return ""
	}
	switch bassInterval {
	case 3, 4:
		return "65"
	case 6, 7, 8:
		return "43"
	case 9, 10, 11:
		return "42"
	}
	return "7"
}
