// internal/wire/command.go
// Package wire implements the line protocol spoken by the Nano firmware.
//
// Every command and reply is a single line of space separated ASCII fields
// terminated by a line feed. There is no framing, checksum, acknowledgement
// or sequence number: replies carry a pin number (or nothing, for pulse
// measurements) and the latest reply for a pin simply replaces the previous.
package wire

import (
	"strconv"
)

// Terminator ends every line on the wire
const Terminator = '\n'

// Op is a command mnemonic sent to the board
type Op string

const (
	OpDigitalWrite Op = "DW"
	OpPWM          Op = "PW"
	OpServo        Op = "SW"
	OpDigitalRead  Op = "DR"
	OpAnalogRead   Op = "AR"
	OpPulseIn      Op = "PI"
)

// Command is one outbound request line
type Command struct {
	Op    Op
	Pin   int
	Value int
	// HasValue is false for the read requests, which carry only a pin
	HasValue bool
}

// DigitalWrite builds "DW <pin> <value>"
func DigitalWrite(pin, value int) Command {
	return Command{Op: OpDigitalWrite, Pin: pin, Value: value, HasValue: true}
}

// PWM builds "PW <pin> <value>"
func PWM(pin, value int) Command {
	return Command{Op: OpPWM, Pin: pin, Value: value, HasValue: true}
}

// Servo builds "SW <pin> <angle>"
func Servo(pin, angle int) Command {
	return Command{Op: OpServo, Pin: pin, Value: angle, HasValue: true}
}

// DigitalRead builds "DR <pin>"
func DigitalRead(pin int) Command {
	return Command{Op: OpDigitalRead, Pin: pin}
}

// AnalogRead builds "AR <pin>"
func AnalogRead(pin int) Command {
	return Command{Op: OpAnalogRead, Pin: pin}
}

// PulseIn builds "PI <pin>"
func PulseIn(pin int) Command {
	return Command{Op: OpPulseIn, Pin: pin}
}

// Encode renders the command as a terminated ASCII line
func (c Command) Encode() []byte {
	buf := make([]byte, 0, 16)
	buf = append(buf, c.Op...)
	buf = append(buf, ' ')
	buf = strconv.AppendInt(buf, int64(c.Pin), 10)
	if c.HasValue {
		buf = append(buf, ' ')
		buf = strconv.AppendInt(buf, int64(c.Value), 10)
	}
	return append(buf, Terminator)
}

// String returns the line without its terminator
func (c Command) String() string {
	b := c.Encode()
	return string(b[:len(b)-1])
}
