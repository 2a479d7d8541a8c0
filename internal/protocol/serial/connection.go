// internal/protocol/serial/connection.go
package serial

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"nano-bridge/internal/protocol"
)

// DefaultBaudRate is the fixed symbol rate of the Nano firmware
const DefaultBaudRate = 115200

// Config represents serial port configuration
type Config struct {
	Port        string        `json:"port"`
	BaudRate    int           `json:"baud_rate"`
	DataBits    int           `json:"data_bits"`
	StopBits    int           `json:"stop_bits"`
	Parity      string        `json:"parity"`
	ReadTimeout time.Duration `json:"read_timeout"`
	SettleDelay time.Duration `json:"settle_delay"`
}

// Mode converts the configuration into a go.bug.st/serial mode
func (c *Config) Mode() *serial.Mode {
	mode := &serial.Mode{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if mode.BaudRate == 0 {
		mode.BaudRate = DefaultBaudRate
	}
	if mode.DataBits == 0 {
		mode.DataBits = 8
	}

	switch c.Parity {
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	case "mark":
		mode.Parity = serial.MarkParity
	case "space":
		mode.Parity = serial.SpaceParity
	}

	if c.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}

	return mode
}

// Connection is a protocol.Port backed by a go.bug.st/serial port
type Connection struct {
	name   string
	port   serial.Port
	logger *zap.Logger
	mutex  sync.RWMutex
	isOpen bool
	stats  protocol.StatsRecorder
}

var _ protocol.Port = (*Connection)(nil)
var _ protocol.InputCanceller = (*Connection)(nil)
var _ protocol.OutputReleaser = (*Connection)(nil)

// Open opens the named serial port
func Open(name string, config *Config, logger *zap.Logger) (*Connection, error) {
	if name == "" {
		return nil, fmt.Errorf("port is required")
	}

	mode := config.Mode()
	port, err := serial.Open(name, mode)
	if err != nil {
		logger.Error("Failed to open serial port",
			zap.Error(err),
			zap.String("port", name),
		)
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}

	if config.ReadTimeout > 0 {
		if err := port.SetReadTimeout(config.ReadTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("failed to set read timeout: %w", err)
		}
	}

	logger.Info("Serial port opened successfully",
		zap.String("port", name),
		zap.Int("baud_rate", mode.BaudRate),
	)

	return newConnection(name, port, logger), nil
}

func newConnection(name string, port serial.Port, logger *zap.Logger) *Connection {
	return &Connection{
		name:   name,
		port:   port,
		logger: logger.With(zap.String("protocol", "serial"), zap.String("port", name)),
		isOpen: true,
	}
}

// Name returns the OS path of the port
func (c *Connection) Name() string {
	return c.name
}

// current returns the underlying port without holding the lock during I/O,
// so Close can interrupt a blocked Read
func (c *Connection) current() (serial.Port, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if !c.isOpen || c.port == nil {
		return nil, protocol.ErrPortClosed
	}
	return c.port, nil
}

// Read reads the next chunk from the port
func (c *Connection) Read(p []byte) (int, error) {
	port, err := c.current()
	if err != nil {
		return 0, err
	}

	n, err := port.Read(p)
	if err != nil {
		if isPortClosed(err) {
			return n, protocol.ErrPortClosed
		}
		if errors.Is(err, io.EOF) {
			return n, io.EOF
		}
		c.stats.RecordError()
		return n, fmt.Errorf("failed to read from serial port: %w", err)
	}

	if n > 0 {
		c.stats.RecordRead(n)
		c.logger.Debug("Data read from serial port", zap.Int("bytes_read", n))
	}
	return n, nil
}

// Write writes a whole buffer to the port
func (c *Connection) Write(data []byte) (int, error) {
	port, err := c.current()
	if err != nil {
		return 0, err
	}

	n, err := port.Write(data)
	if err != nil {
		c.stats.RecordError()
		c.logger.Error("Failed to write to serial port",
			zap.Error(err),
			zap.Int("bytes_to_write", len(data)),
		)
		return n, fmt.Errorf("failed to write to serial port: %w", err)
	}

	if n != len(data) {
		c.stats.RecordError()
		return n, fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	c.stats.RecordWrite(n)
	c.logger.Debug("Data written to serial port",
		zap.Int("bytes_written", n),
		zap.ByteString("data", data),
	)
	return n, nil
}

// ResetInputBuffer discards unread input
func (c *Connection) ResetInputBuffer() error {
	port, err := c.current()
	if err != nil {
		return err
	}
	return port.ResetInputBuffer()
}

// Drain waits until all written data has been transmitted
func (c *Connection) Drain() error {
	port, err := c.current()
	if err != nil {
		return err
	}
	return port.Drain()
}

// Close closes the serial connection. Closing twice is a no-op.
func (c *Connection) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.isOpen || c.port == nil {
		return nil
	}

	err := c.port.Close()
	c.port = nil
	c.isOpen = false

	if err != nil {
		c.logger.Error("Failed to close serial port", zap.Error(err))
		return fmt.Errorf("failed to close serial port: %w", err)
	}

	c.logger.Info("Serial port closed")
	return nil
}

// IsOpen returns whether the connection is open
func (c *Connection) IsOpen() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.isOpen
}

// Stats returns transport counters
func (c *Connection) Stats() protocol.PortStats {
	return c.stats.Snapshot()
}

func isPortClosed(err error) bool {
	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		return portErr.Code() == serial.PortClosed
	}
	return false
}
