package engine

import (
	"strings"

	"go-keytrack/keyfind"
	"go-keytrack/music"
)

// Annotation is derived per sonority and never stored
type Annotation struct {
	Degree     string
	Alternates string
}

// Annotate labels s relative to the accepted key and formats up to n
// alternate keys. It is a pure function of its inputs.
func Annotate(s music.Sonority, est keyfind.Estimate, n int) Annotation {
	return Annotation{
		Degree:     music.RomanNumeral(s, est.Key),
		Alternates: FormatAlternates(est, n),
	}
}

// FormatAlternates joins the first n alternates other than the accepted key
func FormatAlternates(est keyfind.Estimate, n int) string {
	names := make([]string, 0, n)
	for _, alt := range est.Alternates {
		if len(names) == n {
			break
		}
		if alt.Key.Equal(est.Key) {
			continue
		}
		names = append(names, alt.Key.String())
	}
	return strings.Join(names, " / ")
}
