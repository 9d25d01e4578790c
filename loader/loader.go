// Package loader models the configuration chain that shifts a bitstream
// into the tiles of a fabric, a fixed number of bits per cycle.
package loader

import (
	"log/slog"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/cgrafab/bitstream"
	"github.com/sarchlab/cgrafab/cfgreg"
)

// Segment is the slice of the address space one tile owns.
type Segment struct {
	Name  string
	Range cfgreg.Range
}

// Loader is a ticking component that writes an image into per-segment
// configuration memories.
type Loader struct {
	*sim.TickingComponent

	busWidth int

	img      *bitstream.Image
	segments []Segment
	memories map[string][]byte
	cursor   int
	seg      int
	cycles   int
	doneAt   sim.VTimeInSec
	done     bool
}

// Builder creates loaders.
type Builder struct {
	engine   sim.Engine
	freq     sim.Freq
	busWidth int
}

// WithEngine sets the engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the configuration clock.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithBusWidth sets the number of bits shifted per cycle.
func (b Builder) WithBusWidth(n int) Builder {
	b.busWidth = n
	return b
}

// Build creates a loader.
func (b Builder) Build(name string) *Loader {
	if b.busWidth <= 0 {
		panic("loader bus width must be positive")
	}

	l := &Loader{
		busWidth: b.busWidth,
		memories: make(map[string][]byte),
	}
	l.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, l)

	return l
}

// Load schedules img to be shifted into segments. The segments must cover
// the image contiguously in address order.
func (l *Loader) Load(img *bitstream.Image, segments []Segment) {
	l.img = img
	l.segments = append([]Segment(nil), segments...)
	l.memories = make(map[string][]byte, len(segments))
	l.cursor = 0
	l.seg = 0
	l.cycles = 0
	l.done = false

	expect := 0
	for _, s := range l.segments {
		if s.Range.Start != expect {
			panic("loader segments must be contiguous")
		}
		expect = s.Range.End
		l.memories[s.Name] = make([]byte, bitstream.ByteLen(s.Range.Width()))
	}

	if expect != img.Width() {
		panic("loader segments do not cover the image")
	}

	if img.Width() == 0 {
		l.done = true
		return
	}

	l.TickNow()
}

// Tick shifts one bus word of the image.
func (l *Loader) Tick() (madeProgress bool) {
	if l.img == nil || l.done {
		return false
	}

	end := l.cursor + l.busWidth
	if end > l.img.Width() {
		end = l.img.Width()
	}

	for ; l.cursor < end; l.cursor++ {
		for l.segments[l.seg].Range.End <= l.cursor {
			l.seg++
		}

		s := l.segments[l.seg]
		bitstream.SetBit(l.memories[s.Name], l.cursor-s.Range.Start, l.img.Bit(l.cursor))
	}

	l.cycles++

	if l.cursor == l.img.Width() {
		l.done = true
		l.doneAt = l.Engine.CurrentTime()
		slog.Debug("ConfigLoaded",
			"loader", l.Name(),
			"bits", l.img.Width(),
			"cycles", l.cycles,
		)
	}

	return true
}

// Done reports whether the whole image has been shifted in.
func (l *Loader) Done() bool {
	return l.done
}

// Cycles returns the number of cycles the last load took.
func (l *Loader) Cycles() int {
	return l.cycles
}

// FinishTime returns the simulated time the last load completed.
func (l *Loader) FinishTime() sim.VTimeInSec {
	return l.doneAt
}

// Memory returns the configuration memory of a segment, packed with its
// first bit in bit 0 of byte 0.
func (l *Loader) Memory(name string) ([]byte, bool) {
	m, ok := l.memories[name]
	return append([]byte(nil), m...), ok
}
