package simulation

import (
	"sync"

	"solar-orrery/simulator/model"
)

type BodyFrame struct {
	Name     string         `json:"name"`
	Position model.Position `json:"position"`
	Spin     float64        `json:"spin"`
}

// Frame is what one RenderFrame delivers: every body that has been placed so far.
type Frame struct {
	Seq    uint64      `json:"seq"`
	Paused bool        `json:"paused"`
	Bodies []BodyFrame `json:"bodies"`
}

// FrameSink consumes finished frames. Publish runs on the tick goroutine and must not block.
type FrameSink interface {
	Publish(Frame)
}

// FrameBuffer is a Renderer that collects the emits of a tick into a Frame.
type FrameBuffer struct {
	mu     sync.Mutex
	index  map[string]int
	bodies []BodyFrame
	seq    uint64
	last   Frame
	paused func() bool
	sinks  []FrameSink
}

func NewFrameBuffer(sinks ...FrameSink) *FrameBuffer {
	return &FrameBuffer{index: make(map[string]int), sinks: sinks}
}

// Attach tells the buffer where to read the pause flag from.
func (b *FrameBuffer) Attach(paused func() bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paused = paused
}

func (b *FrameBuffer) AddSink(sink FrameSink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, sink)
}

func (b *FrameBuffer) Emit(name string, pos model.Position, spinDelta float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i, ok := b.index[name]
	if !ok {
		i = len(b.bodies)
		b.index[name] = i
		b.bodies = append(b.bodies, BodyFrame{Name: name})
	}
	b.bodies[i].Position = pos
	b.bodies[i].Spin += spinDelta
}

func (b *FrameBuffer) RenderFrame() {
	b.mu.Lock()
	b.seq++
	frame := Frame{Seq: b.seq, Bodies: append([]BodyFrame(nil), b.bodies...)}
	if b.paused != nil {
		frame.Paused = b.paused()
	}
	b.last = frame
	sinks := append([]FrameSink(nil), b.sinks...)
	b.mu.Unlock()

	for _, sink := range sinks {
		sink.Publish(frame)
	}
}

// Last returns the most recently rendered frame.
func (b *FrameBuffer) Last() Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	f := b.last
	f.Bodies = append([]BodyFrame(nil), f.Bodies...)
	return f
}
