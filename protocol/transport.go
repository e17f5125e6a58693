package protocol

import "sync/atomic"

// FrameHandler receives the payload of every valid frame
type FrameHandler func(seq uint8, frame []byte)

// Transport frames outgoing trace records and parses incoming ones. The
// stream is one-way, so there is no ACK/NAK: the receiver resynchronises on
// the sync byte and counts damaged frames and sequence gaps instead.
type Transport struct {
	isSynchronized uint32 // atomic bool (0 = false, 1 = true)
	nextSequence   uint32 // atomic, MessageDest | 4-bit counter
	expected       int32  // receiver side, -1 until the first frame
	badFrames      uint32
	gaps           uint32
	output         OutputBuffer
	handler        FrameHandler
}

// NewTransport creates a Transport. output is used for sending, handler for
// receiving; either may be nil on a one-sided endpoint.
func NewTransport(output OutputBuffer, handler FrameHandler) *Transport {
	return &Transport{
		isSynchronized: 1,
		nextSequence:   MessageDest,
		expected:       -1,
		output:         output,
		handler:        handler,
	}
}

// EncodeFrame writes one frame whose payload is produced by frameData
func (t *Transport) EncodeFrame(frameData func(output OutputBuffer)) {
	cursor := t.output.CurPosition()

	seq := uint8(atomic.LoadUint32(&t.nextSequence))
	t.output.Output([]byte{0, seq})

	frameData(t.output)

	changed := len(t.output.DataSince(cursor))
	t.output.Update(cursor, uint8(changed+MessageTrailerSize))

	crc := CRC16(t.output.DataSince(cursor))
	t.output.Output([]byte{
		uint8((crc & 0xFF00) >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})

	next := ((seq + 1) & MessageSeqMask) | MessageDest
	atomic.StoreUint32(&t.nextSequence, uint32(next))
}

// Receive parses as many complete frames as input holds and pops them
func (t *Transport) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if !t.getSynchronized() {
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}
			if syncPos < 0 {
				data = nil
				break
			}
			data = data[syncPos+1:]
			t.setSynchronized(true)
			continue
		}

		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			t.desync()
			continue
		}

		seq := data[MessagePositionSeq]
		if seq&^MessageSeqMask != MessageDest {
			t.desync()
			continue
		}

		if len(data) < msgLen {
			break
		}

		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			t.desync()
			continue
		}

		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			t.desync()
			continue
		}

		frame := data[MessageHeaderSize : msgLen-MessageTrailerSize]
		data = data[msgLen:]

		s := int32(seq & MessageSeqMask)
		if t.expected >= 0 && s != t.expected {
			atomic.AddUint32(&t.gaps, 1)
		}
		t.expected = (s + 1) & MessageSeqMask

		if t.handler != nil {
			t.handler(seq&MessageSeqMask, frame)
		}
	}

	consumed := input.Available() - len(data)
	if consumed > 0 {
		input.Pop(consumed)
	}
}

// BadFrames returns how many frames failed length, sequence or CRC checks
func (t *Transport) BadFrames() uint32 {
	return atomic.LoadUint32(&t.badFrames)
}

// Gaps returns how many times the sequence counter skipped
func (t *Transport) Gaps() uint32 {
	return atomic.LoadUint32(&t.gaps)
}

func (t *Transport) desync() {
	atomic.AddUint32(&t.badFrames, 1)
	t.setSynchronized(false)
}

func (t *Transport) getSynchronized() bool {
	return atomic.LoadUint32(&t.isSynchronized) != 0
}

func (t *Transport) setSynchronized(val bool) {
	if val {
		atomic.StoreUint32(&t.isSynchronized, 1)
	} else {
		atomic.StoreUint32(&t.isSynchronized, 0)
	}
}
