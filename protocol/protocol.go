// Package protocol implements the framed trace stream the firmware uses to
// ship bus events to a host monitor. Frames reuse Klipper's block layout:
// length, sequence, VLQ payload, CRC16, sync byte.
package protocol

// Version of the trace stream format
const Version = "1"

// Frame layout
const (
	MessageMax         = 256 // scratch output capacity
	MessageHeaderSize  = 2   // length + sequence
	MessageTrailerSize = 3   // CRC16 + sync
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10

	MessageSeqMask = 0x0F
)
