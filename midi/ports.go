package midi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

var (
	ErrNoDevices = errors.New("no MIDI devices found")
	ErrNoInput   = errors.New("no matching MIDI input port")
	ErrScanHung  = errors.New("MIDI port scan timed out")
)

// DefaultScanTimeout bounds port enumeration (CoreMIDI can hang)
const DefaultScanTimeout = 3 * time.Second

// InPorts lists input ports, giving up after timeout. A driver must be
// registered by the binary (blank import of rtmididrv).
func InPorts(timeout time.Duration) ([]drivers.In, error) {
	ch := make(chan []drivers.In, 1)
	go func() {
		ch <- gomidi.GetInPorts()
	}()

	select {
	case ins := <-ch:
		return ins, nil
	case <-time.After(timeout):
		// User needs to run: sudo killall coreaudiod midiserver
		return nil, ErrScanHung
	}
}

// SelectPort picks the first port whose name contains name (case-insensitive),
// or the first port when name is empty
func SelectPort(ins []drivers.In, name string) (drivers.In, error) {
	if len(ins) == 0 {
		return nil, ErrNoDevices
	}
	if name == "" {
		return ins[0], nil
	}
	want := strings.ToLower(name)
	for _, in := range ins {
		if strings.Contains(strings.ToLower(in.String()), want) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoInput, name)
}

// OpenKeyboard scans ports and opens the selected one as a keyboard source
func OpenKeyboard(name string) (*KeyboardController, error) {
	ins, err := InPorts(DefaultScanTimeout)
	if err != nil {
		return nil, err
	}
	in, err := SelectPort(ins, name)
	if err != nil {
		return nil, err
	}
	return NewKeyboardController(in.String(), in)
}

// CloseDriver releases the MIDI driver; call once on shutdown
func CloseDriver() {
	gomidi.CloseDriver()
}
