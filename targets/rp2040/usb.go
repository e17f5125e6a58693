//go:build rp2040

package main

import (
	"machine"
)

// InitUSB initializes USB serial communication
// machine.Serial is USB CDC-ACM; the descriptors come from the runtime
func InitUSB() {
	machine.Serial.Configure(machine.UARTConfig{})
}

// USBWriteBytes writes a frame batch to the host monitor
func USBWriteBytes(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}
	return machine.Serial.Write(data)
}
