// internal/wire/reply.go
package wire

import (
	"strconv"
	"strings"
)

// ReplyKind identifies which cache a reply updates
type ReplyKind byte

const (
	ReplyAnalog  ReplyKind = 'A'
	ReplyDigital ReplyKind = 'D'
	ReplyPulse   ReplyKind = 'P'
)

// String returns a lowercase name for logging
func (k ReplyKind) String() string {
	switch k {
	case ReplyAnalog:
		return "analog"
	case ReplyDigital:
		return "digital"
	case ReplyPulse:
		return "pulse"
	default:
		return "unknown"
	}
}

// Reply is a parsed inbound line. Pin is zero for pulse replies.
type Reply struct {
	Kind  ReplyKind
	Pin   int
	Value int
}

// ParseReply parses one line received from the board.
//
// The parser is permissive: anything that is not exactly one of
// "A <pin> <value>", "D <pin> <value>" or "P <value>" reports ok=false
// and must be dropped by the caller.
func ParseReply(line string) (Reply, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Reply{}, false
	}

	switch fields[0] {
	case "A", "D":
		if len(fields) != 3 {
			return Reply{}, false
		}
		pin, err := strconv.Atoi(fields[1])
		if err != nil {
			return Reply{}, false
		}
		value, err := strconv.Atoi(fields[2])
		if err != nil {
			return Reply{}, false
		}
		return Reply{Kind: ReplyKind(fields[0][0]), Pin: pin, Value: value}, true

	case "P":
		if len(fields) != 2 {
			return Reply{}, false
		}
		value, err := strconv.Atoi(fields[1])
		if err != nil {
			return Reply{}, false
		}
		return Reply{Kind: ReplyPulse, Value: value}, true
	}

	return Reply{}, false
}
