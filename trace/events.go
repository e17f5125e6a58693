package trace

// Kind is a line-level event
type Kind uint8

const (
	KindStart Kind = iota + 1
	KindStop
	KindBit
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindStop:
		return "stop"
	case KindBit:
		return "bit"
	}
	return "unknown"
}

// Event is a START, a STOP, or a bit sampled on a rising SCL edge
type Event struct {
	Kind Kind
	T    uint32
	Bit  bool
}

// Events turns a sample trace into line events. SDA edges while SCL is high
// are START (falling) or STOP (rising) conditions. A high phase that holds
// such an edge carries no data bit.
func Events(samples []Sample) []Event {
	var out []Event
	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1], samples[i]
		switch {
		case !prev.SCL && cur.SCL:
			if !conditionAhead(samples, i) {
				out = append(out, Event{Kind: KindBit, T: cur.T, Bit: cur.SDA})
			}
		case prev.SCL && cur.SCL && prev.SDA && !cur.SDA:
			out = append(out, Event{Kind: KindStart, T: cur.T})
		case prev.SCL && cur.SCL && !prev.SDA && cur.SDA:
			out = append(out, Event{Kind: KindStop, T: cur.T})
		}
	}
	return out
}

// conditionAhead reports whether SDA moves during the high phase that
// begins at sample i
func conditionAhead(samples []Sample, i int) bool {
	for j := i + 1; j < len(samples) && samples[j].SCL; j++ {
		if samples[j].SDA != samples[j-1].SDA {
			return true
		}
	}
	return false
}

// Byte is eight data bits and the acknowledge bit that follows them
type Byte struct {
	Value uint8
	Ack   bool
}

// Transaction is everything between a START and the next START or STOP
type Transaction struct {
	// Repeated is set when the START was not preceded by a STOP
	Repeated bool
	Bytes    []Byte
	// Stopped is set when a STOP ended the transaction
	Stopped bool
	// Extra counts trailing bits that did not complete a byte
	Extra int
}

// Decode groups line events into transactions of acknowledged bytes
func Decode(samples []Sample) []Transaction {
	var (
		out  []Transaction
		cur  *Transaction
		bits []bool
	)
	flush := func() {
		if cur != nil {
			cur.Extra = len(bits)
			out = append(out, *cur)
		}
		bits = bits[:0]
	}
	for _, ev := range Events(samples) {
		switch ev.Kind {
		case KindStart:
			repeated := cur != nil
			flush()
			cur = &Transaction{Repeated: repeated}
		case KindStop:
			if cur != nil {
				cur.Stopped = true
			}
			flush()
			cur = nil
		case KindBit:
			if cur == nil {
				continue
			}
			bits = append(bits, ev.Bit)
			if len(bits) == 9 {
				var v uint8
				for _, b := range bits[:8] {
					v <<= 1
					if b {
						v |= 1
					}
				}
				cur.Bytes = append(cur.Bytes, Byte{Value: v, Ack: !bits[8]})
				bits = bits[:0]
			}
		}
	}
	flush()
	return out
}

// Count returns how many events of kind k the trace holds
func Count(samples []Sample, k Kind) int {
	n := 0
	for _, ev := range Events(samples) {
		if ev.Kind == k {
			n++
		}
	}
	return n
}
