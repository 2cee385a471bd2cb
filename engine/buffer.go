package engine

import "go-keytrack/music"

// DefaultWindow is the number of sonorities analysed (four bars of 4/4)
const DefaultWindow = 16

// Buffer is the append-only history of finished sonorities. It is owned by
// the tracking goroutine.
type Buffer struct {
	items []music.Sonority
}

// NewBuffer creates an empty buffer
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds s as the newest element
func (b *Buffer) Append(s music.Sonority) {
	b.items = append(b.items, s)
}

// Clear drops every element
func (b *Buffer) Clear() {
	b.items = nil
}

// Len returns the number of elements
func (b *Buffer) Len() int {
	return len(b.items)
}

// Window returns the elements used for key analysis. Once the buffer holds
// more than size elements, the window is the size elements ending just
// before the newest one; before that it is the whole buffer, newest included.
func (b *Buffer) Window(size int) []music.Sonority {
	if size <= 0 {
		panic("engine: window size must be positive")
	}
	n := len(b.items)
	src := b.items
	if n > size {
		src = b.items[n-size-1 : n-1]
	}
	out := make([]music.Sonority, len(src))
	copy(out, src)
	return out
}
