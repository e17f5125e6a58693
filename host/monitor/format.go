package monitor

import (
	"fmt"

	"softi2c/core"
)

// Format renders an event as one log line
func Format(evt core.BusEvent) string {
	head := fmt.Sprintf("%6d t=%-10d %-8s", evt.Seq, evt.Tick, evt.KindName())

	switch evt.Kind {
	case core.EvtStart:
		return head
	case core.EvtAddress, core.EvtRepeatedStart:
		return fmt.Sprintf("%s addr=0x%02x %s", head, evt.Addr, core.Mode(evt.Value))
	case core.EvtRegister:
		return fmt.Sprintf("%s addr=0x%02x reg=0x%02x", head, evt.Addr, evt.Value)
	case core.EvtPayload:
		return fmt.Sprintf("%s addr=0x%02x data=0x%02x try=%d", head, evt.Addr, evt.Value, evt.Attempt)
	case core.EvtRead:
		return fmt.Sprintf("%s addr=0x%02x data=0x%02x", head, evt.Addr, evt.Value)
	case core.EvtNack:
		if evt.Attempt > 0 {
			return fmt.Sprintf("%s addr=0x%02x data=0x%02x try=%d", head, evt.Addr, evt.Value, evt.Attempt)
		}
		return fmt.Sprintf("%s addr=0x%02x in %s", head, evt.Addr, core.Phase(evt.Value))
	case core.EvtTimeout:
		if evt.Attempt > 0 {
			return head + " stretched SCL never released"
		}
		return head + " clock phase never arrived"
	case core.EvtStop:
		return fmt.Sprintf("%s addr=0x%02x", head, evt.Addr)
	}
	return fmt.Sprintf("%s kind=%d addr=0x%02x v=0x%02x", head, evt.Kind, evt.Addr, evt.Value)
}
