// internal/bridge/bridge.go
// Package bridge owns the single serial session to the board: the
// connection lifecycle, the background decode loop and the per-pin caches
// the reporter blocks read from.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"nano-bridge/internal/model"
	"nano-bridge/internal/protocol"
	"nano-bridge/internal/utils"
	"nano-bridge/internal/wire"
)

const (
	defaultReadBufferSize = 64
	defaultDisconnectWait = time.Second
)

// Config tunes the bridge
type Config struct {
	// ReadBufferSize is the largest chunk taken from the port per read
	ReadBufferSize int
	// DisconnectWait bounds how long Disconnect waits for the decode loop
	DisconnectWait time.Duration
}

// session holds the handles of one open connection. It is never mutated
// after creation; tearing down drops the bridge's reference to it.
type session struct {
	port     protocol.Port
	source   io.Reader
	sink     io.Writer
	cancel   context.CancelFunc
	done     chan struct{}
	openedAt time.Time
}

// Bridge translates block calls into wire commands and caches replies.
// Block methods never return errors and never wait for a reply: reporters
// return the most recent value received before the call.
type Bridge struct {
	opener   protocol.Opener
	reporter model.EventReporter
	logger   *utils.BoardLogger
	config   Config

	connMutex  sync.Mutex
	session    *session
	connecting bool

	// serialises lines on the sink
	writeMutex sync.Mutex

	// written only by the decode loop
	cacheMutex sync.RWMutex
	analog     map[int]int
	digital    map[int]int
	pulse      int
}

// New creates a disconnected bridge
func New(opener protocol.Opener, reporter model.EventReporter, logger *zap.Logger, config Config) *Bridge {
	if config.ReadBufferSize <= 0 {
		config.ReadBufferSize = defaultReadBufferSize
	}
	if config.DisconnectWait <= 0 {
		config.DisconnectWait = defaultDisconnectWait
	}
	if reporter == nil {
		reporter = model.MultiReporter{}
	}

	return &Bridge{
		opener:   opener,
		reporter: reporter,
		logger:   utils.NewBoardLogger(logger, "arduino-nano"),
		config:   config,
		analog:   make(map[int]int),
		digital:  make(map[int]int),
	}
}

// Connect asks the environment for a port and starts the decode loop.
// A cancelled selection or a failed open leaves the bridge disconnected;
// the error is reported as an event and returned for diagnostics only.
func (b *Bridge) Connect(ctx context.Context) error {
	b.connMutex.Lock()
	if b.session != nil || b.connecting {
		b.connMutex.Unlock()
		return nil
	}
	b.connecting = true
	b.connMutex.Unlock()

	port, err := b.opener.Open(ctx)

	b.connMutex.Lock()
	b.connecting = false
	if err != nil {
		b.connMutex.Unlock()

		event := model.NewEvent(model.EventConnectFailed, model.SeverityWarning).WithError(err)
		if errors.Is(err, protocol.ErrSelectionCancelled) {
			event.Message = "port selection cancelled"
			b.logger.Info("Port selection cancelled")
		} else {
			event.Message = "failed to open port"
			b.logger.LogConnection("connect", false, err)
		}
		b.reporter.Report(event)
		return fmt.Errorf("connect: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s := &session{
		port:     port,
		source:   port,
		sink:     port,
		cancel:   cancel,
		done:     make(chan struct{}),
		openedAt: time.Now(),
	}
	b.session = s
	b.connMutex.Unlock()

	go b.readLoop(loopCtx, s)

	b.logger.LogConnection("connect", true, nil, zap.String("port", port.Name()))
	event := model.NewEvent(model.EventConnected, model.SeverityInfo)
	event.Port = port.Name()
	b.reporter.Report(event)
	return nil
}

// Disconnect tears the connection down. It is idempotent and safe to call
// concurrently or while already disconnected.
func (b *Bridge) Disconnect() {
	s := b.current()
	if s == nil {
		return
	}

	b.safeDisconnect(s, "disconnect requested", nil)

	select {
	case <-s.done:
	case <-time.After(b.config.DisconnectWait):
		b.logger.Warn("Decode loop did not stop in time", zap.Duration("wait", b.config.DisconnectWait))
	}
}

// IsConnected reports whether a session is open
func (b *Bridge) IsConnected() bool {
	return b.current() != nil
}

func (b *Bridge) current() *session {
	b.connMutex.Lock()
	defer b.connMutex.Unlock()
	return b.session
}

// detach drops the bridge's reference to s. Only the first caller for a
// given session gets it back; everyone else gets nil.
func (b *Bridge) detach(s *session) *session {
	b.connMutex.Lock()
	defer b.connMutex.Unlock()

	if b.session == nil || b.session != s {
		return nil
	}
	b.session = nil
	return s
}

// safeDisconnect is the single teardown path shared by the public API,
// write failures and the decode loop. Each step runs even if an earlier
// one failed. A non-nil cause is reported as a transport error, but only
// by the caller that detached the session.
func (b *Bridge) safeDisconnect(s *session, reason string, cause error) {
	if b.detach(s) == nil {
		return
	}

	if cause != nil {
		event := model.NewEvent(model.EventTransportError, model.SeverityError).WithError(cause)
		event.Port = s.port.Name()
		event.Message = reason
		b.reporter.Report(event)
	}

	var errs error
	errs = multierr.Append(errs, guard("cancel read source", func() error {
		s.cancel()
		if c, ok := s.source.(protocol.InputCanceller); ok {
			return c.ResetInputBuffer()
		}
		return nil
	}))
	errs = multierr.Append(errs, guard("release write sink", func() error {
		if r, ok := s.sink.(protocol.OutputReleaser); ok {
			return r.Drain()
		}
		return nil
	}))
	errs = multierr.Append(errs, guard("close port", s.port.Close))

	name := s.port.Name()
	if errs != nil {
		b.logger.Warn("Teardown completed with errors",
			zap.String("port", name),
			zap.Errors("errors", multierr.Errors(errs)),
		)
		event := model.NewEvent(model.EventTeardownError, model.SeverityWarning).WithError(errs)
		event.Port = name
		b.reporter.Report(event)
	}

	b.logger.LogConnection("disconnect", cause == nil, cause,
		zap.String("port", name),
		zap.String("reason", reason),
		zap.Duration("session", time.Since(s.openedAt)),
	)

	severity := model.SeverityInfo
	if cause != nil {
		severity = model.SeverityError
	}
	event := model.NewEvent(model.EventDisconnected, severity).WithError(cause)
	event.Port = name
	event.Message = reason
	b.reporter.Report(event)
}

// guard runs one teardown step, turning a panic into an error
func guard(step string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", step, r)
		}
	}()

	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}
	return nil
}

// send writes one command line. It returns false when disconnected or
// when the write failed, in which case the session has been torn down.
func (b *Bridge) send(cmd wire.Command) bool {
	s := b.current()
	if s == nil {
		return false
	}

	b.writeMutex.Lock()
	_, err := s.sink.Write(cmd.Encode())
	b.writeMutex.Unlock()

	if err != nil {
		b.logger.Warn("Write failed",
			zap.String("command", cmd.String()),
			zap.Error(err),
		)
		b.safeDisconnect(s, "write failed", fmt.Errorf("write %q: %w", cmd.String(), err))
		return false
	}

	b.logger.Debug("Command sent", zap.String("command", cmd.String()))
	return true
}

// DigitalWrite sets a digital pin
func (b *Bridge) DigitalWrite(pin, value int) {
	b.send(wire.DigitalWrite(pin, value))
}

// SetPWM sets the duty cycle on a PWM pin
func (b *Bridge) SetPWM(pin, value int) {
	b.send(wire.PWM(pin, value))
}

// SetServo moves a servo to angle
func (b *Bridge) SetServo(pin, angle int) {
	b.send(wire.Servo(pin, angle))
}

// DigitalRead requests a digital reading and returns the cached value
func (b *Bridge) DigitalRead(pin int) int {
	if !b.send(wire.DigitalRead(pin)) {
		return 0
	}

	b.cacheMutex.RLock()
	defer b.cacheMutex.RUnlock()
	return b.digital[pin]
}

// AnalogRead requests an analog reading and returns the cached value
func (b *Bridge) AnalogRead(pin int) int {
	if !b.send(wire.AnalogRead(pin)) {
		return 0
	}

	b.cacheMutex.RLock()
	defer b.cacheMutex.RUnlock()
	return b.analog[pin]
}

// ReadPulseIn requests a pulse measurement on pin and returns the last
// pulse value received, whichever pin it was measured on.
func (b *Bridge) ReadPulseIn(pin int) int {
	if !b.send(wire.PulseIn(pin)) {
		return 0
	}

	b.cacheMutex.RLock()
	defer b.cacheMutex.RUnlock()
	return b.pulse
}

// Status returns a snapshot of the connection and caches
func (b *Bridge) Status() *model.BridgeStatus {
	status := &model.BridgeStatus{}

	if s := b.current(); s != nil {
		status.Connected = true
		status.Port = s.port.Name()
		openedAt := s.openedAt
		status.ConnectedAt = &openedAt

		if sp, ok := s.port.(protocol.StatsProvider); ok {
			stats := sp.Stats()
			status.Transport = &stats
		}
	}

	b.cacheMutex.RLock()
	defer b.cacheMutex.RUnlock()

	status.Analog = make(map[int]int, len(b.analog))
	for pin, v := range b.analog {
		status.Analog[pin] = v
	}
	status.Digital = make(map[int]int, len(b.digital))
	for pin, v := range b.digital {
		status.Digital[pin] = v
	}
	status.Pulse = b.pulse

	return status
}
