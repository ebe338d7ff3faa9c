package publish

import (
	"context"
	"encoding/json"
	"log"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"solar-orrery/simulator/simulation"
)

const (
	FrameChannel  = "orrery.frame"
	IntentChannel = "orrery.intent"
)

// Client is the slice of *redis.Client the publisher uses.
type Client interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Intent is the event announced after a control input changed the simulation.
type Intent struct {
	Kind string `json:"kind"`
	Body string `json:"body,omitempty"`
}

// Publisher forwards frames to Redis pub/sub off the tick goroutine.
type Publisher struct {
	client  Client
	frames  chan simulation.Frame
	dropped atomic.Uint64
}

func NewPublisher(client Client, buffer int) *Publisher {
	return &Publisher{client: client, frames: make(chan simulation.Frame, buffer)}
}

// Publish queues f. When the queue is full the frame is dropped; the next one supersedes it.
func (p *Publisher) Publish(f simulation.Frame) {
	select {
	case p.frames <- f:
	default:
		p.dropped.Add(1)
	}
}

func (p *Publisher) Dropped() uint64 { return p.dropped.Load() }

// Run drains the queue until ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f := <-p.frames:
			payload, err := json.Marshal(f)
			if err != nil {
				log.Printf("❌ Failed to encode frame %d: %v", f.Seq, err)
				continue
			}
			if err := p.client.Publish(ctx, FrameChannel, payload).Err(); err != nil {
				log.Printf("❌ Failed to publish %s event: %v", FrameChannel, err)
			}
		}
	}
}

func (p *Publisher) Notify(ctx context.Context, kind, body string) {
	payload, err := json.Marshal(Intent{Kind: kind, Body: body})
	if err != nil {
		return
	}
	if err := p.client.Publish(ctx, IntentChannel, payload).Err(); err != nil {
		log.Printf("❌ Failed to publish %s event: %v", IntentChannel, err)
	}
}
