package engine

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"go-keytrack/chord"
	"go-keytrack/events"
	"go-keytrack/keyfind"
	"go-keytrack/midi"
	"go-keytrack/music"
)

// DefaultScoreLength is how many recent sonorities the score view keeps
const DefaultScoreLength = 8

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	Threshold   float64
	Window      int
	Alternates  int
	ScoreLength int
	Profile     keyfind.Profile
	Logger      *log.Logger
}

// Engine owns all tracking state: the sonority builder, the buffer and the
// tracker. Handle must be called from one goroutine; Run is that goroutine
// when the engine is fed from a Source.
type Engine struct {
	builder    *chord.Builder
	buffer     *Buffer
	tracker    *Tracker
	out        *events.Channels
	window     int
	alternates int
	resets     chan struct{}
	session    string
	base       *log.Logger
	log        *log.Logger

	gen       uint64
	played    keyfind.Distribution
	score     []events.ScoreEntry
	scoreSize int
}

// New creates an engine publishing to out
func New(opts Options, out *events.Channels) *Engine {
	if opts.Threshold == 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Alternates < keyfind.MinAlternates {
		opts.Alternates = keyfind.MinAlternates
	}
	if opts.ScoreLength <= 0 {
		opts.ScoreLength = DefaultScoreLength
	}
	if opts.Profile.Name == "" {
		opts.Profile = keyfind.Krumhansl
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	e := &Engine{
		buffer:     NewBuffer(),
		out:        out,
		window:     opts.Window,
		alternates: opts.Alternates,
		resets:     make(chan struct{}, 1),
		base:       opts.Logger,
		scoreSize:  opts.ScoreLength,
	}
	e.newSession()
	e.tracker = NewTracker(keyfind.NewCorrelator(opts.Profile, opts.Alternates), opts.Threshold, opts.Logger)
	e.builder = chord.NewBuilder(e.tracker.Key)
	return e
}

func (e *Engine) newSession() {
	e.session = uuid.NewString()
	e.log = e.base.With("session", e.session[:8])
}

// Session identifies the current tracking session in logs. A reset starts a new one.
func (e *Engine) Session() string {
	return e.session
}

// Tracker exposes the key tracker for inspection
func (e *Engine) Tracker() *Tracker {
	return e.tracker
}

// Buffered returns the number of sonorities in the buffer
func (e *Engine) Buffered() int {
	return e.buffer.Len()
}

// Generation counts resets; every published event carries it
func (e *Engine) Generation() uint64 {
	return e.gen
}

// Handle feeds one device event. When it completes a sonority the sonority
// is analysed and returned.
func (e *Engine) Handle(ev midi.NoteEvent) (music.Sonority, bool) {
	if !ev.IsOnset() && !e.builder.IsHeld(ev.Note) {
		e.log.Debug("release without press", "note", ev.Note)
		return music.Sonority{}, false
	}
	s, ok := e.builder.Handle(ev)
	if !ok {
		return music.Sonority{}, false
	}
	e.Process(s)
	return s, true
}

// Process runs one finished sonority through buffer, tracker and annotator
func (e *Engine) Process(s music.Sonority) {
	if e.buffer.Len() == 0 {
		e.tracker.Reset()
	}
	e.buffer.Append(s)
	for _, pc := range s.PitchClasses() {
		e.played[pc]++
	}

	window := e.buffer.Window(e.window)
	e.out.Histograms.Publish(events.HistogramEvent{
		Counts:  keyfind.Histogram(window),
		Session: e.played,
		Gen:     e.gen,
	})

	if est, changed := e.tracker.Observe(window); changed {
		e.log.Info("key change", "key", est.Key, "certainty", fmt.Sprintf("%.2f", est.Certainty))
		e.out.Keys.Publish(events.KeyChangeEvent{
			Display:   est.Key.String(),
			Certainty: est.Certainty,
			Key:       est.Key,
			Gen:       e.gen,
		})
	}

	cur, ok := e.tracker.Current()
	if !ok {
		e.appendScore(s.Respelled(nil), "")
		return
	}
	a := Annotate(s, cur, e.alternates)
	e.log.Debug("sonority", "notes", s, "degree", a.Degree)
	e.out.Degrees.Publish(events.DegreeEvent{Display: a.Degree, Gen: e.gen})
	e.out.Alternates.Publish(events.AlternateKeysEvent{Display: a.Alternates, Gen: e.gen})
	e.appendScore(s.Respelled(&cur.Key), a.Degree)
}

// appendScore adds s to the score tail and publishes a copy of it
func (e *Engine) appendScore(s music.Sonority, degree string) {
	e.score = append(e.score, events.ScoreEntry{Notes: s.String(), Degree: degree})
	if len(e.score) > e.scoreSize {
		e.score = e.score[len(e.score)-e.scoreSize:]
	}
	entries := make([]events.ScoreEntry, len(e.score))
	copy(entries, e.score)
	e.out.Scores.Publish(events.ScoreEvent{Entries: entries, Gen: e.gen})
}

// reset clears the buffer and returns the tracker to Undetermined, then
// publishes the reset marker under the next generation. The unfinished
// sonority in the builder is kept.
func (e *Engine) reset() {
	e.buffer.Clear()
	e.tracker.Reset()
	e.played = keyfind.Distribution{}
	e.score = nil
	e.gen++
	e.newSession()
	e.out.Keys.Publish(events.KeyChangeEvent{Display: events.Unknown, Gen: e.gen})
	e.log.Info("reset", "generation", e.gen)
}

// Reset asks the Run loop to clear all tracking state. Safe from any
// goroutine; it never blocks and requests made while one is pending are merged.
func (e *Engine) Reset() {
	select {
	case e.resets <- struct{}{}:
	default:
	}
}

// Run feeds events from src until src is exhausted or ctx is cancelled
func (e *Engine) Run(ctx context.Context, src midi.Source) error {
	e.log.Info("tracking", "source", src.ID())
	notes := src.NoteEvents()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.resets:
			e.reset()
		case ev, ok := <-notes:
			if !ok {
				e.log.Info("source closed", "source", src.ID(), "sonorities", e.buffer.Len())
				return nil
			}
			e.Handle(ev)
		}
	}
}
