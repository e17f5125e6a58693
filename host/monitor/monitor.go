// Package monitor decodes the bus event stream a board exports over its
// serial console.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"softi2c/core"
	"softi2c/protocol"
)

// Record is one decoded bus event and when the host received it
type Record struct {
	Event    core.BusEvent `cbor:"1,keyasint"`
	Received time.Time     `cbor:"2,keyasint"`
}

// Stats counts stream health
type Stats struct {
	Events       uint32
	BadFrames    uint32
	Gaps         uint32
	DecodeErrors uint32
	// Missed counts events the board overwrote before exporting them
	Missed uint32
}

// Monitor turns raw stream bytes into Records
type Monitor struct {
	mu        sync.Mutex
	transport *protocol.Transport
	pending   *protocol.StreamBuffer
	handler   func(Record)
	now       func() time.Time

	lastSeq uint32
	stats   Stats
}

// New creates a monitor that calls handler for every decoded event
func New(handler func(Record)) *Monitor {
	m := &Monitor{
		pending: protocol.NewStreamBuffer(4 * protocol.MessageMax),
		handler: handler,
		now:     time.Now,
	}
	m.transport = protocol.NewTransport(nil, m.handleFrame)
	return m
}

// Feed pushes received bytes through the frame decoder
func (m *Monitor) Feed(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for len(data) > 0 {
		n := m.pending.Write(data)
		data = data[n:]
		m.transport.Receive(m.pending)
		if n == 0 && m.pending.Free() == 0 {
			// No frame fits the buffer: drop it and resync
			m.pending.Pop(m.pending.Available())
		}
	}
}

// Run reads from r until it reports io.EOF, fails, or ctx is cancelled
func (m *Monitor) Run(ctx context.Context, r io.Reader) error {
	return m.run(ctx, r, false)
}

// Follow is Run for serial ports, whose read timeout surfaces as io.EOF. It
// only returns on a real read error or when ctx is cancelled.
func (m *Monitor) Follow(ctx context.Context, r io.Reader) error {
	return m.run(ctx, r, true)
}

func (m *Monitor) run(ctx context.Context, r io.Reader, follow bool) error {
	buf := make([]byte, 256)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			m.Feed(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			if follow {
				continue
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("read stream: %w", err)
		}
	}
}

// Stats returns the counters collected so far
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stats
	s.BadFrames = m.transport.BadFrames()
	s.Gaps = m.transport.Gaps()
	return s
}

func (m *Monitor) handleFrame(seq uint8, frame []byte) {
	evt, err := core.DecodeBusEvent(&frame)
	if err != nil {
		m.stats.DecodeErrors++
		return
	}
	if m.lastSeq != 0 && evt.Seq > m.lastSeq+1 {
		m.stats.Missed += evt.Seq - m.lastSeq - 1
	}
	m.lastSeq = evt.Seq
	m.stats.Events++

	if m.handler != nil {
		m.handler(Record{Event: evt, Received: m.now()})
	}
}
