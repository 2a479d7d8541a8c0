// internal/bridge/decode.go
package bridge

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"nano-bridge/internal/model"
	"nano-bridge/internal/protocol"
	"nano-bridge/internal/wire"
)

// readLoop decodes replies for one session until the stream ends, a read
// fails or the session is torn down. It always finishes by tearing the
// session down.
func (b *Bridge) readLoop(ctx context.Context, s *session) {
	defer close(s.done)

	decoder := wire.NewLineDecoder()
	buf := make([]byte, b.config.ReadBufferSize)

	var reason string
	var cause error

	for {
		n, err := s.source.Read(buf)
		if n > 0 {
			for _, line := range decoder.Feed(buf[:n]) {
				b.handleLine(line)
			}
		}

		if err != nil {
			switch {
			case ctx.Err() != nil, errors.Is(err, protocol.ErrPortClosed):
				reason = "port closed"
			case errors.Is(err, io.EOF):
				reason = "end of stream"
			default:
				reason = "read failed"
				cause = err
			}
			break
		}

		if ctx.Err() != nil {
			reason = "port closed"
			break
		}
	}

	if pending := decoder.Pending(); pending > 0 {
		b.logger.Debug("Dropping partial line", zap.Int("bytes", pending))
	}

	b.safeDisconnect(s, reason, cause)
}

// handleLine applies one complete line to the caches
func (b *Bridge) handleLine(line string) {
	reply, ok := wire.ParseReply(line)
	if !ok {
		b.logger.Debug("Ignoring malformed line", zap.String("line", line))
		event := model.NewEvent(model.EventMalformedLine, model.SeverityInfo)
		event.Message = line
		b.reporter.Report(event)
		return
	}

	b.cacheMutex.Lock()
	switch reply.Kind {
	case wire.ReplyAnalog:
		b.analog[reply.Pin] = reply.Value
	case wire.ReplyDigital:
		b.digital[reply.Pin] = reply.Value
	case wire.ReplyPulse:
		b.pulse = reply.Value
	}
	b.cacheMutex.Unlock()

	reading := &model.Reading{Kind: reply.Kind.String(), Value: reply.Value}
	if reply.Kind != wire.ReplyPulse {
		pin := reply.Pin
		reading.Pin = &pin
	}
	event := model.NewEvent(model.EventReply, model.SeverityInfo)
	event.Reply = reading
	b.reporter.Report(event)
}
