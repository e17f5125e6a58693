//go:build rp2040

package main

import (
	"machine"

	"softi2c/core"
)

var debugUART *machine.UART

// InitDebugUART routes engine debug output to UART0 on GPIO0 (TX) and
// GPIO1 (RX) at 115200 baud. USB carries the event stream only.
func InitDebugUART(enabled bool) {
	debugUART = machine.UART0
	err := debugUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO0,
		RX:       machine.GPIO1,
	})
	if err != nil {
		return
	}
	core.SetDebugWriter(func(s string) {
		debugUART.Write([]byte(s))
		debugUART.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(enabled)
	core.DebugPrintln("=== softi2c rp2040 ===")
}
