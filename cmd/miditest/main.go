package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-keytrack/chord"
	"go-keytrack/midi"
	"go-keytrack/music"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	defer midi.CloseDriver()

	port := ""
	if len(os.Args) > 2 {
		port = os.Args[2]
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "monitor":
		monitor(port)
	case "chords":
		chords(port)
	case "poll":
		pollDevices()
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list            - List all MIDI input ports")
	fmt.Println("  monitor [port]  - Print note on/off events")
	fmt.Println("  chords [port]   - Print chords as they are released")
	fmt.Println("  poll            - Poll for device changes")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ins, err := midi.InPorts(midi.DefaultScanTimeout)
	if err != nil {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return
	}
	if len(ins) == 0 {
		fmt.Println("  (none)")
	}
	for i, p := range ins {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
}

func open(port string) *midi.KeyboardController {
	kb, err := midi.OpenKeyboard(port)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Listening on %s. Ctrl+C to exit.\n", kb.ID())
	return kb
}

func interrupted() <-chan os.Signal {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	return sig
}

func monitor(port string) {
	kb := open(port)
	defer kb.Close()
	sig := interrupted()

	for {
		select {
		case <-sig:
			return
		case ev, ok := <-kb.NoteEvents():
			if !ok {
				return
			}
			kind := "off"
			if ev.IsOnset() {
				kind = "on "
			}
			fmt.Printf("[%s] ch%-2d %s %-4s vel %3d  % X\n",
				time.Now().Format("15:04:05.000"), ev.Channel+1, kind,
				music.PitchFromMIDI(int(ev.Note)), ev.Velocity,
				[]byte(gomidi.NoteOn(ev.Channel, ev.Note, ev.Velocity)))
		}
	}
}

func chords(port string) {
	kb := open(port)
	defer kb.Close()
	sig := interrupted()
	b := chord.NewBuilder(nil)

	for {
		select {
		case <-sig:
			return
		case ev, ok := <-kb.NoteEvents():
			if !ok {
				return
			}
			s, done := b.Handle(ev)
			if !done {
				continue
			}
			name := "?"
			if c, ok := music.AnalyzeChord(s); ok {
				name = fmt.Sprintf("%s %s", c.Root, c.Quality)
			}
			fmt.Printf("%-24s %s\n", s, name)
		}
	}
}

func pollDevices() {
	fmt.Println("Polling for device changes every 2 seconds...")
	fmt.Println("Connect/disconnect a keyboard to test. Ctrl+C to exit.")

	lastIn := ""

	for {
		ins := gomidi.GetInPorts()

		var inNames []string
		for _, p := range ins {
			inNames = append(inNames, p.String())
		}

		currentIn := strings.Join(inNames, ",")
		if currentIn != lastIn {
			fmt.Printf("\n[%s] Device change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Inputs: %v\n", inNames)
			lastIn = currentIn
		}

		time.Sleep(2 * time.Second)
	}
}
