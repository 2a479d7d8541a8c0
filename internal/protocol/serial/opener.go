// internal/protocol/serial/opener.go
package serial

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"nano-bridge/internal/protocol"
)

// PortSelector picks the physical port to open. It returns
// protocol.ErrSelectionCancelled when nothing was chosen.
type PortSelector interface {
	Select(ctx context.Context) (string, error)
}

// Opener implements protocol.Opener for USB serial boards
type Opener struct {
	selector PortSelector
	config   *Config
	logger   *zap.Logger

	// open is swapped in tests
	open func(name string, config *Config, logger *zap.Logger) (protocol.Port, error)
}

// NewOpener creates an opener that asks selector for the port name
func NewOpener(selector PortSelector, config *Config, logger *zap.Logger) *Opener {
	return &Opener{
		selector: selector,
		config:   config,
		logger:   logger.With(zap.String("component", "serial-opener")),
		open: func(name string, config *Config, logger *zap.Logger) (protocol.Port, error) {
			return Open(name, config, logger)
		},
	}
}

// Open selects a port, opens it and waits for the board to come out of
// the reset triggered by DTR
func (o *Opener) Open(ctx context.Context) (protocol.Port, error) {
	name, err := o.selector.Select(ctx)
	if err != nil {
		return nil, err
	}

	port, err := o.open(name, o.config, o.logger)
	if err != nil {
		return nil, err
	}

	if o.config.SettleDelay > 0 {
		o.logger.Debug("Waiting for board reset",
			zap.String("port", name),
			zap.Duration("settle_delay", o.config.SettleDelay),
		)

		timer := time.NewTimer(o.config.SettleDelay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			port.Close()
			return nil, fmt.Errorf("open %s: %w", name, ctx.Err())
		case <-timer.C:
		}
	}

	return port, nil
}
