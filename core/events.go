package core

import "softi2c/protocol"

// Bus event kinds
const (
	EvtStart         = 1  // START issued
	EvtAddress       = 2  // address frame, Value = mode
	EvtRegister      = 3  // register byte, Value = register
	EvtPayload       = 4  // payload byte sent, Attempt = try number
	EvtRead          = 5  // payload byte received
	EvtNack          = 6  // acknowledge missing
	EvtStretch       = 7  // secondary stretched SCL
	EvtTimeout       = 8  // bounded wait expired
	EvtStop          = 9  // STOP issued
	EvtRepeatedStart = 10 // repeated START, Value = mode
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

// BusEvent is one entry of the post-mortem ring
type BusEvent struct {
	Seq     uint32 `cbor:"1,keyasint"`
	Kind    uint8  `cbor:"2,keyasint"`
	Addr    uint8  `cbor:"3,keyasint"`
	Value   uint8  `cbor:"4,keyasint"`
	Attempt uint8  `cbor:"5,keyasint"`
	Tick    uint32 `cbor:"6,keyasint"`
}

// KindName returns the mnemonic used in dumps
func (e BusEvent) KindName() string {
	switch e.Kind {
	case EvtStart:
		return "START"
	case EvtAddress:
		return "ADDR"
	case EvtRegister:
		return "REG"
	case EvtPayload:
		return "WRITE"
	case EvtRead:
		return "READ"
	case EvtNack:
		return "NACK!"
	case EvtStretch:
		return "STRETCH"
	case EvtTimeout:
		return "TIMEOUT!"
	case EvtStop:
		return "STOP"
	case EvtRepeatedStart:
		return "RESTART"
	}
	return "UNKNOWN"
}

// EventRing records the most recent bus events. Recording is cheap enough
// to stay on inside bit slots.
type EventRing struct {
	ring     [EventRingSize]BusEvent
	head     uint8
	seq      uint32
	exported uint32 // last Seq sent by Export
}

func (r *EventRing) record(kind, addr, value, attempt uint8, tick uint32) {
	r.seq++
	r.ring[r.head] = BusEvent{
		Seq:     r.seq,
		Kind:    kind,
		Addr:    addr,
		Value:   value,
		Attempt: attempt,
		Tick:    tick,
	}
	r.head = (r.head + 1) % EventRingSize
}

// Snapshot returns the recorded events, oldest first
func (r *EventRing) Snapshot() []BusEvent {
	out := make([]BusEvent, 0, EventRingSize)
	for i := uint8(0); i < EventRingSize; i++ {
		evt := r.ring[(r.head+i)%EventRingSize]
		if evt.Kind == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// Clear empties the ring; sequence numbers keep counting
func (r *EventRing) Clear() {
	for i := range r.ring {
		r.ring[i] = BusEvent{}
	}
	r.head = 0
}

// Dump writes the ring to the debug writer regardless of SetDebugEnabled
func (r *EventRing) Dump() {
	if debugPrintln == nil {
		return
	}
	debugPrintln("[I2C] === Bus Event Dump ===")
	for _, evt := range r.Snapshot() {
		debugPrintln("[I2C] " + utoa(evt.Seq) + " " + evt.KindName() +
			" addr=" + hex8(evt.Addr) +
			" v=" + hex8(evt.Value) +
			" try=" + Itoa(int(evt.Attempt)) +
			" tick=" + utoa(evt.Tick))
	}
	debugPrintln("[I2C] === End Dump ===")
}

// EventFrameMax is the largest frame Export writes for one event. Seq and
// Tick take up to five VLQ bytes, the uint8 fields up to two.
const EventFrameMax = protocol.MessageHeaderSize + 5 + 4*2 + 5 + protocol.MessageTrailerSize

// Pending returns how many events Export has not sent yet
func (r *EventRing) Pending() int {
	n := 0
	for _, evt := range r.Snapshot() {
		if evt.Seq > r.exported {
			n++
		}
	}
	return n
}

// Export sends up to limit events recorded since the previous Export,
// oldest first, one trace frame each; limit <= 0 sends them all. Only the
// events written count as exported, so a caller with room for N frames
// passes N and calls again after flushing. Events overwritten in between
// show up as a Seq gap on the host. It returns the number of frames
// written.
func (r *EventRing) Export(t *protocol.Transport, limit int) int {
	n := 0
	for _, evt := range r.Snapshot() {
		if limit > 0 && n == limit {
			break
		}
		if evt.Seq <= r.exported {
			continue
		}
		evt := evt
		t.EncodeFrame(func(output protocol.OutputBuffer) {
			EncodeBusEvent(output, evt)
		})
		r.exported = evt.Seq
		n++
	}
	return n
}

// EncodeBusEvent writes evt as a sequence of VLQ integers
func EncodeBusEvent(output protocol.OutputBuffer, evt BusEvent) {
	protocol.EncodeVLQUint(output, evt.Seq)
	protocol.EncodeVLQUint(output, uint32(evt.Kind))
	protocol.EncodeVLQUint(output, uint32(evt.Addr))
	protocol.EncodeVLQUint(output, uint32(evt.Value))
	protocol.EncodeVLQUint(output, uint32(evt.Attempt))
	protocol.EncodeVLQUint(output, evt.Tick)
}

// DecodeBusEvent reads an event written by EncodeBusEvent
func DecodeBusEvent(data *[]byte) (BusEvent, error) {
	var v [6]uint32
	for i := range v {
		n, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return BusEvent{}, err
		}
		v[i] = n
	}
	return BusEvent{
		Seq:     v[0],
		Kind:    uint8(v[1]),
		Addr:    uint8(v[2]),
		Value:   uint8(v[3]),
		Attempt: uint8(v[4]),
		Tick:    v[5],
	}, nil
}
