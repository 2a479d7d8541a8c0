// internal/discovery/scanner.go
package discovery

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"nano-bridge/internal/protocol"
)

// PortScanner lists serial ports attached to the host
type PortScanner interface {
	Scan(ctx context.Context) ([]*DiscoveredPort, error)
}

// DiscoveredPort represents a serial port found on the host
type DiscoveredPort struct {
	Name         string  `json:"name"`
	IsUSB        bool    `json:"is_usb"`
	VendorID     string  `json:"vendor_id,omitempty"`
	ProductID    string  `json:"product_id,omitempty"`
	SerialNumber string  `json:"serial_number,omitempty"`
	Product      string  `json:"product,omitempty"`
	Board        string  `json:"board,omitempty"`
	Bridge       string  `json:"bridge,omitempty"`
	Confidence   float64 `json:"confidence"` // 0.0-1.0 that this is a Nano
}

// SelectorConfig controls how a port is chosen when the host has not
// picked one
type SelectorConfig struct {
	Port          string
	AutoDetect    bool
	MinConfidence float64
}

// PortSelector stands in for the user's port picker. The host chooses a
// port explicitly; without a choice the configured port is used, and
// failing that the most likely Nano found by the scanner.
type PortSelector struct {
	scanner PortScanner
	config  SelectorConfig
	logger  *zap.Logger

	mutex  sync.RWMutex
	chosen string
}

// NewPortSelector creates a selector
func NewPortSelector(scanner PortScanner, config SelectorConfig, logger *zap.Logger) *PortSelector {
	return &PortSelector{
		scanner: scanner,
		config:  config,
		logger:  logger.With(zap.String("component", "port-selector")),
	}
}

// Choose records the host's port choice
func (s *PortSelector) Choose(name string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.chosen = name
	s.logger.Info("Port chosen by host", zap.String("port", name))
}

// Clear forgets the host's choice
func (s *PortSelector) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.chosen = ""
}

// Chosen returns the host's current choice, if any
func (s *PortSelector) Chosen() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.chosen
}

// Scan lists ports, most likely Nano first
func (s *PortSelector) Scan(ctx context.Context) ([]*DiscoveredPort, error) {
	if s.scanner == nil {
		return nil, fmt.Errorf("no port scanner configured")
	}

	ports, err := s.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(ports, func(i, j int) bool {
		return ports[i].Confidence > ports[j].Confidence
	})
	return ports, nil
}

// Select implements the serial opener's PortSelector
func (s *PortSelector) Select(ctx context.Context) (string, error) {
	if name := s.Chosen(); name != "" {
		return name, nil
	}

	if s.config.Port != "" {
		return s.config.Port, nil
	}

	if !s.config.AutoDetect || s.scanner == nil {
		return "", protocol.ErrSelectionCancelled
	}

	ports, err := s.Scan(ctx)
	if err != nil {
		s.logger.Warn("Port scan failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", protocol.ErrSelectionCancelled, err)
	}

	for _, port := range ports {
		if port.Confidence >= s.config.MinConfidence && port.Confidence > 0 {
			s.logger.Info("Auto-detected board",
				zap.String("port", port.Name),
				zap.String("board", port.Board),
				zap.Float64("confidence", port.Confidence),
			)
			return port.Name, nil
		}
	}

	s.logger.Info("No board found during auto-detect", zap.Int("ports_seen", len(ports)))
	return "", protocol.ErrSelectionCancelled
}
