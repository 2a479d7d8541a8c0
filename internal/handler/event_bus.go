// internal/handler/event_bus.go
package handler

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nano-bridge/internal/model"
)

// EventBusConfig sizes the bus
type EventBusConfig struct {
	BufferSize       int
	SubscriberBuffer int
	IncludeReplies   bool
}

// EventBus fans bridge events out to subscribers. It implements
// model.EventReporter and never blocks the reporter.
type EventBus struct {
	subscribers map[string]chan model.BridgeEvent
	events      chan model.BridgeEvent
	mutex       sync.RWMutex
	stopped     bool
	config      EventBusConfig
	logger      *zap.Logger
}

// NewEventBus creates a new event bus
func NewEventBus(config EventBusConfig, logger *zap.Logger) *EventBus {
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}
	if config.SubscriberBuffer <= 0 {
		config.SubscriberBuffer = 100
	}

	return &EventBus{
		subscribers: make(map[string]chan model.BridgeEvent),
		events:      make(chan model.BridgeEvent, config.BufferSize),
		config:      config,
		logger:      logger,
	}
}

// Start distributes events until Stop is called
func (eb *EventBus) Start() {
	for event := range eb.events {
		eb.distributeEvent(event)
	}

	eb.mutex.Lock()
	defer eb.mutex.Unlock()
	for id, subscriber := range eb.subscribers {
		close(subscriber)
		delete(eb.subscribers, id)
	}
}

// Stop stops accepting events and closes every subscription once the
// queued events are delivered
func (eb *EventBus) Stop() {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	if eb.stopped {
		return
	}
	eb.stopped = true
	close(eb.events)
}

// Report implements model.EventReporter
func (eb *EventBus) Report(event model.BridgeEvent) {
	if event.Type == model.EventReply && !eb.config.IncludeReplies {
		return
	}
	eb.Publish(event)
}

// Publish queues an event, dropping it when the bus is full
func (eb *EventBus) Publish(event model.BridgeEvent) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	if eb.stopped {
		return
	}

	select {
	case eb.events <- event:
	default:
		eb.logger.Warn("Event bus full, dropping event",
			zap.String("event_type", string(event.Type)),
		)
	}
}

// Subscribe returns a subscription id and its event channel
func (eb *EventBus) Subscribe() (string, <-chan model.BridgeEvent) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	id := uuid.New().String()
	subscriber := make(chan model.BridgeEvent, eb.config.SubscriberBuffer)
	if eb.stopped {
		close(subscriber)
		return id, subscriber
	}

	eb.subscribers[id] = subscriber
	return id, subscriber
}

// Unsubscribe closes the subscription
func (eb *EventBus) Unsubscribe(id string) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	if subscriber, ok := eb.subscribers[id]; ok {
		close(subscriber)
		delete(eb.subscribers, id)
	}
}

// SubscriberCount returns the number of open subscriptions
func (eb *EventBus) SubscriberCount() int {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()
	return len(eb.subscribers)
}

// distributeEvent distributes an event to subscribers
func (eb *EventBus) distributeEvent(event model.BridgeEvent) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	for id, subscriber := range eb.subscribers {
		select {
		case subscriber <- event:
		default:
			eb.logger.Debug("Subscriber is slow, skipping event",
				zap.String("subscriber_id", id),
				zap.String("event_type", string(event.Type)),
			)
		}
	}
}
