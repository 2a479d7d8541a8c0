// internal/extension/registry.go
package extension

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrUnknownExtension is returned for an unregistered id
	ErrUnknownExtension = errors.New("unknown extension")
	// ErrAlreadyRegistered is returned when an id registers twice
	ErrAlreadyRegistered = errors.New("extension already registered")
)

// Registry manages the extensions loaded by the host
type Registry struct {
	extensions map[string]Extension
	mu         sync.RWMutex
	logger     *zap.Logger
}

// NewRegistry creates a new extension registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		extensions: make(map[string]Extension),
		logger:     logger,
	}
}

// Register registers an extension. Each id registers once.
func (r *Registry) Register(ext Extension) error {
	info := ext.Info()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.extensions[info.ID]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, info.ID)
	}

	r.extensions[info.ID] = ext
	r.logger.Info("Extension registered",
		zap.String("extension_id", info.ID),
		zap.String("name", info.Name),
		zap.Int("blocks", len(info.Blocks)),
	)
	return nil
}

// Get returns the extension registered under id
func (r *Registry) Get(id string) (Extension, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext, exists := r.extensions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownExtension, id)
	}
	return ext, nil
}

// List returns the descriptors of all extensions ordered by id
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.extensions))
	for _, ext := range r.extensions {
		infos = append(infos, ext.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// RegisterDefaults registers the built-in extensions
func RegisterDefaults(registry *Registry, board Board, logger *zap.Logger) error {
	return registry.Register(NewArduinoNano(board, logger))
}
