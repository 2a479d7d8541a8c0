// internal/discovery/serial/scanner.go
package serial

import (
	"context"
	"fmt"

	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"nano-bridge/internal/discovery"
)

// Scanner lists serial ports and scores each as a likely Nano
type Scanner struct {
	logger *zap.Logger
	boards *BoardDatabase

	// list is swapped in tests
	list func() ([]*enumerator.PortDetails, error)
}

var _ discovery.PortScanner = (*Scanner)(nil)

// NewScanner creates a new serial scanner
func NewScanner(logger *zap.Logger) *Scanner {
	return &Scanner{
		logger: logger.With(zap.String("scanner", "serial")),
		boards: NewBoardDatabase(),
		list:   enumerator.GetDetailedPortsList,
	}
}

// Scan performs serial port discovery
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.DiscoveredPort, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	details, err := s.list()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports: %w", err)
	}

	ports := make([]*discovery.DiscoveredPort, 0, len(details))
	for _, d := range details {
		port := &discovery.DiscoveredPort{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VendorID:     d.VID,
			ProductID:    d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		}

		if d.IsUSB {
			if info, ok := s.boards.Lookup(d.VID, d.PID); ok {
				port.Board = info.Board
				port.Bridge = info.Bridge
				port.Confidence = info.Confidence
			}
		}

		ports = append(ports, port)
	}

	s.logger.Debug("Serial scan completed", zap.Int("ports_found", len(ports)))
	return ports, nil
}
