package keyfind

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"go-keytrack/music"
)

// ErrEmptyDistribution is returned when there is nothing to correlate
var ErrEmptyDistribution = errors.New("keyfind: empty pitch-class distribution")

// MinAlternates is the number of runner-up keys always retained
const MinAlternates = 3

// Distribution is a 12-bin pitch-class histogram
type Distribution [12]float64

// Histogram counts one unit per sonority for every pitch class it contains
func Histogram(sonorities []music.Sonority) Distribution {
	var d Distribution
	for _, s := range sonorities {
		for _, pc := range s.PitchClasses() {
			d[pc]++
		}
	}
	return d
}

// Total is the sum of all bins
func (d Distribution) Total() float64 {
	return floats.Sum(d[:])
}

// IsZero reports whether no pitch class has any weight
func (d Distribution) IsZero() bool {
	return d.Total() == 0
}

// Candidate is one key scored against a distribution
type Candidate struct {
	Key   music.Key
	Score float64 // Pearson correlation coefficient
}

// Estimate is the best-ranked key plus its runners-up
type Estimate struct {
	Key        music.Key
	Score      float64
	Certainty  float64     // 0..1, see certainty()
	Alternates []Candidate // descending by score, best excluded
}

// Correlator scores distributions against the 24 major/minor templates of a profile
type Correlator struct {
	profile    Profile
	alternates int
	templates  [24][]float64 // indexed by music.Key.Index()
}

// NewCorrelator creates a correlator keeping at least MinAlternates runners-up
func NewCorrelator(p Profile, alternates int) *Correlator {
	if alternates < MinAlternates {
		alternates = MinAlternates
	}
	c := &Correlator{
		profile:    p,
		alternates: alternates,
	}
	for _, k := range music.AllKeys() {
		c.templates[k.Index()] = p.rotated(k.Mode == music.Minor, int(k.Tonic))
	}
	return c
}

// Profile returns the templates in use
func (c *Correlator) Profile() Profile {
	return c.profile
}

// Candidates ranks all 24 keys by correlation, highest first. Equal scores
// keep major-before-minor, C-upward order.
func (c *Correlator) Candidates(d Distribution) ([]Candidate, error) {
	if d.IsZero() {
		return nil, ErrEmptyDistribution
	}
	x := d[:]
	keys := music.AllKeys()
	candidates := make([]Candidate, len(keys))
	for i, k := range keys {
		r := stat.Correlation(x, c.templates[k.Index()], nil)
		if math.IsNaN(r) {
			// flat distribution: no variance to correlate
			r = 0
		}
		candidates[i] = Candidate{Key: k, Score: r}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates, nil
}

// Rank returns the best key for d with its certainty and alternates
func (c *Correlator) Rank(d Distribution) (Estimate, error) {
	candidates, err := c.Candidates(d)
	if err != nil {
		return Estimate{}, err
	}

	n := c.alternates
	if n > len(candidates)-1 {
		n = len(candidates) - 1
	}
	alternates := make([]Candidate, n)
	copy(alternates, candidates[1:1+n])

	return Estimate{
		Key:        candidates[0].Key,
		Score:      candidates[0].Score,
		Certainty:  certainty(candidates),
		Alternates: alternates,
	}, nil
}

// certainty combines the leader's absolute correlation, its lead over the
// runner-up and the average spacing among the next candidates (top four
// considered), clamped to [0, 1].
func certainty(ranked []Candidate) float64 {
	if len(ranked) < 2 {
		return 0
	}
	focus := make([]float64, 0, 4)
	for i := 0; i < len(ranked) && i < 4; i++ {
		focus = append(focus, ranked[i].Score)
	}

	magnitude := math.Abs(focus[0])
	leaderSpan := focus[0] - focus[1]

	var spans []float64
	for i := 2; i < len(focus)-1; i++ {
		spans = append(spans, math.Abs(focus[i]-focus[i+1]))
	}
	remainingSpan := 0.0
	if len(spans) > 0 {
		remainingSpan = stat.Mean(spans, nil)
	}

	return clamp01(magnitude + leaderSpan + remainingSpan)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
