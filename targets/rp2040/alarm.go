//go:build rp2040

package main

import (
	"device/rp"
	"runtime/interrupt"
	"runtime/volatile"
	"unsafe"
)

// RP2040 TIMER peripheral. The runtime sleeps on ALARM0, the bus clock
// runs on ALARM3.
const (
	timerBase   = 0x40054000
	timerAlarm3 = timerBase + 0x1C
	timerArmed  = timerBase + 0x20
	timerRawL   = timerBase + 0x28
	timerIntr   = timerBase + 0x34
	timerInte   = timerBase + 0x38

	alarmBit = 1 << 3
)

var (
	alarm3Reg = (*volatile.Register32)(unsafe.Pointer(uintptr(timerAlarm3)))
	armedReg  = (*volatile.Register32)(unsafe.Pointer(uintptr(timerArmed)))
	rawLReg   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerRawL)))
	intrReg   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerIntr)))
	inteReg   = (*volatile.Register32)(unsafe.Pointer(uintptr(timerInte)))
)

// alarmTicks is a core.TickSource on the 1MHz microsecond timer
type alarmTicks struct {
	period  uint32
	next    uint32
	handler func()
	running volatile.Register8
	irq     interrupt.Interrupt
}

var busTicks = &alarmTicks{}

func initAlarm() {
	busTicks.irq = interrupt.New(rp.IRQ_TIMER_IRQ_3, alarmIRQ)
	busTicks.irq.SetPriority(0x00)
}

func (a *alarmTicks) CounterHz() uint32 {
	return 1000000
}

// MaxPeriod keeps the alarm inside one wrap of the low counter word
func (a *alarmTicks) MaxPeriod() uint32 {
	return 1 << 20
}

func (a *alarmTicks) SetPeriod(counts uint32) {
	a.period = counts
}

func (a *alarmTicks) Start(handler func()) {
	a.handler = handler
	a.running.Set(1)
	intrReg.Set(alarmBit)
	inteReg.SetBits(alarmBit)
	a.irq.Enable()
	a.next = rawLReg.Get() + a.period
	alarm3Reg.Set(a.next)
}

func (a *alarmTicks) Stop() {
	a.running.Set(0)
	inteReg.ClearBits(alarmBit)
	// Writing the bit disarms the alarm
	armedReg.Set(alarmBit)
	intrReg.Set(alarmBit)
}

func alarmIRQ(interrupt.Interrupt) {
	intrReg.Set(alarmBit)
	a := busTicks
	if a.running.Get() == 0 {
		return
	}
	// Re-arm from the previous target so edges do not drift
	a.next += a.period
	if int32(a.next-rawLReg.Get()) <= 0 {
		a.next = rawLReg.Get() + a.period
	}
	alarm3Reg.Set(a.next)
	a.handler()
}
