package sim

import "softi2c/core"

type slaveState uint8

const (
	stateIdle    slaveState = iota
	stateAddress            // shifting in the address frame
	stateWrite              // master transmits
	stateRead               // we transmit
	stateIgnore             // not addressed, or master ended the read
)

// Register is a secondary with a 256-byte register file. The first byte
// written after the address frame selects the register; payload bytes are
// stored there and the pointer advances after every byte in both
// directions.
type Register struct {
	port *Port
	addr core.Address
	Regs [256]byte

	state   slaveState
	shift   uint8
	nbits   int
	ackSlot bool
	regSet  bool
	reg     uint8
	out     uint8

	acked      bool
	sending    bool
	masterAck  bool
	stretchFor uint32
	stretching uint32

	echo  bool
	queue []byte

	nackAddress  bool
	nackRegister bool
	nackPayload  int
	stuckSCL     bool

	// Observations
	Starts   int
	Stops    int
	Received []byte
	Sent     []byte
	// MasterAcks holds the acknowledge the master gave for every sent byte
	MasterAcks []bool
	Nacked     int
}

var _ Device = (*Register)(nil)

// NewRegister creates a register-file secondary at addr
func NewRegister(addr core.Address) *Register {
	return &Register{addr: addr}
}

// NewEcho creates a loopback secondary at addr. It has no register
// pointer: bytes written to it are queued and read back in order, 0xFF
// once the queue is empty.
func NewEcho(addr core.Address) *Register {
	return &Register{addr: addr, echo: true, regSet: true}
}

// Address returns the address the device answers to
func (d *Register) Address() core.Address {
	return d.addr
}

// NackAddress makes the device ignore its address frame
func (d *Register) NackAddress(on bool) {
	d.nackAddress = on
}

// NackRegister makes the device refuse the register byte
func (d *Register) NackRegister(on bool) {
	d.nackRegister = on
}

// NackPayload refuses the next n payload bytes written to the device
func (d *Register) NackPayload(n int) {
	d.nackPayload = n
}

// Stretch holds SCL low for ticks time units after every acknowledge the
// device gives
func (d *Register) Stretch(ticks uint32) {
	d.stretchFor = ticks
}

// HoldSCL pulls SCL low until released with HoldSCL(false)
func (d *Register) HoldSCL(on bool) {
	d.stuckSCL = on
	d.port.Pull(core.SCL, on)
}

// Pointer returns the current register pointer
func (d *Register) Pointer() uint8 {
	return d.reg
}

func (d *Register) Attach(p *Port) {
	d.port = p
}

func (d *Register) Step() {
	if d.stretching == 0 {
		return
	}
	d.stretching--
	if d.stretching == 0 && !d.stuckSCL {
		d.port.Pull(core.SCL, false)
	}
}

func (d *Register) Edge(line core.Line, level bool) {
	if line == core.SDA {
		if d.port.Level(core.SCL) {
			d.condition(level)
		}
		return
	}
	if level {
		d.rising()
	} else {
		d.falling()
	}
}

// condition handles SDA edges while SCL is high
func (d *Register) condition(high bool) {
	d.port.Pull(core.SDA, false)
	d.ackSlot = false
	d.shift, d.nbits = 0, 0
	if high {
		d.Stops++
		d.state = stateIdle
		d.regSet = d.echo
		return
	}
	d.Starts++
	d.state = stateAddress
}

// rising samples SDA
func (d *Register) rising() {
	sda := d.port.Level(core.SDA)
	switch {
	case d.state == stateIdle || d.state == stateIgnore:
	case d.ackSlot:
		// The slot after our own address acknowledge is not the master's
		if d.state == stateRead && d.sending {
			d.masterAck = !sda
			d.MasterAcks = append(d.MasterAcks, d.masterAck)
		}
	case d.state == stateRead:
		d.nbits++
	default:
		d.shift <<= 1
		if sda {
			d.shift |= 1
		}
		d.nbits++
	}
}

// falling updates SDA for the next bit slot
func (d *Register) falling() {
	switch {
	case d.state == stateIdle || d.state == stateIgnore:
		return
	case d.ackSlot:
		d.endAckSlot()
	case d.nbits < 8:
		if d.state == stateRead {
			d.driveBit()
		}
	case d.state == stateRead:
		// Master acknowledges
		d.port.Pull(core.SDA, false)
		d.ackSlot = true
	default:
		d.byteDone()
	}
}

// byteDone decides the acknowledge for a received byte
func (d *Register) byteDone() {
	c := d.shift
	ack := false
	switch d.state {
	case stateAddress:
		if core.Address(c>>1) != d.addr || d.nackAddress {
			d.state = stateIgnore
			d.shift, d.nbits = 0, 0
			return
		}
		ack = true
		if c&1 != 0 {
			d.state = stateRead
			d.sending = false
		} else {
			d.state = stateWrite
			d.regSet = d.echo
		}
	case stateWrite:
		switch {
		case !d.regSet:
			if !d.nackRegister {
				d.reg = c
				d.regSet = true
				ack = true
			}
		case d.nackPayload > 0:
			d.nackPayload--
		case d.echo:
			d.queue = append(d.queue, c)
			d.Received = append(d.Received, c)
			ack = true
		default:
			d.Regs[d.reg] = c
			d.reg++
			d.Received = append(d.Received, c)
			ack = true
		}
	}
	if !ack {
		d.Nacked++
	}
	d.acked = ack
	d.port.Pull(core.SDA, ack)
	d.ackSlot = true
	d.shift, d.nbits = 0, 0
}

// endAckSlot runs on the falling edge that closes an acknowledge slot
func (d *Register) endAckSlot() {
	d.ackSlot = false
	d.port.Pull(core.SDA, false)
	d.shift, d.nbits = 0, 0

	if d.state == stateRead {
		if d.sending && !d.masterAck {
			d.state = stateIgnore
			return
		}
		d.load()
		d.driveBit()
	}
	if d.acked && d.stretchFor > 0 {
		d.stretching = d.stretchFor
		d.port.Pull(core.SCL, true)
	}
	d.acked = false
}

// load fetches the next byte to transmit
func (d *Register) load() {
	switch {
	case !d.echo:
		d.out = d.Regs[d.reg]
		d.reg++
	case len(d.queue) > 0:
		d.out = d.queue[0]
		d.queue = d.queue[1:]
	default:
		d.out = 0xFF
	}
	d.Sent = append(d.Sent, d.out)
	d.sending = true
}

func (d *Register) driveBit() {
	bit := d.out&(0x80>>uint(d.nbits)) != 0
	d.port.Pull(core.SDA, !bit)
}
