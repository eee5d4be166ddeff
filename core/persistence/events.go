package persistence

import (
	"fmt"
	"sync"
	"time"

	"github.com/asaidimu/go-crudsql/core/query"
	"github.com/asaidimu/go-events"
	"github.com/google/uuid"
)

// emitter publishes repository events and tracks subscriptions by id. A
// repository and the transactional copies it hands out share one emitter.
type emitter struct {
	bus           *events.TypedEventBus[PersistenceEvent]
	subscriptions map[string]*SubscriptionInfo
	subMu         sync.RWMutex
}

func newEmitter(bus *events.TypedEventBus[PersistenceEvent]) (*emitter, error) {
	if bus == nil {
		var err error
		bus, err = events.NewTypedEventBus[PersistenceEvent](events.DefaultConfig())
		if err != nil {
			return nil, fmt.Errorf("could not initialize event bus: %w", err)
		}
	}
	return &emitter{bus: bus, subscriptions: make(map[string]*SubscriptionInfo)}, nil
}

func (e *emitter) emit(event PersistenceEvent) {
	if e != nil && e.bus != nil {
		e.bus.Emit(string(event.Type), event)
	}
}

// withEventEmission wraps an operation with start, success and failure
// events.
func withEventEmission[R any](
	e *emitter,
	op query.Operation,
	table string,
	input any,
	fn func() (R, *query.Command, error),
) (R, error) {
	startTime := time.Now()
	e.emit(createEvent(CommandEvent(op, PhaseStart), string(op), table, nil, input, nil, nil, startTime))

	result, cmd, err := fn()
	if err != nil {
		e.emit(createEvent(CommandEvent(op, PhaseFailed), string(op), table, cmd, input, nil, err, startTime))
		return result, err
	}

	e.emit(createEvent(CommandEvent(op, PhaseSuccess), string(op), table, cmd, input, result, nil, startTime))
	return result, nil
}

// register subscribes a callback and returns its subscription id.
func (e *emitter) register(options RegisterSubscriptionOptions) string {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	unsubscribe := e.bus.Subscribe(string(options.Event), options.Callback)
	id := uuid.New().String()

	e.subscriptions[id] = &SubscriptionInfo{
		Id:          &id,
		Event:       options.Event,
		Unsubscribe: unsubscribe,
		Label:       options.Label,
		Description: options.Description,
	}
	return id
}

// unregister removes a subscription by its id.
func (e *emitter) unregister(id string) {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	if info, ok := e.subscriptions[id]; ok {
		info.Unsubscribe()
		delete(e.subscriptions, id)
	}
}

func (e *emitter) list() []SubscriptionInfo {
	e.subMu.RLock()
	defer e.subMu.RUnlock()

	subs := make([]SubscriptionInfo, 0, len(e.subscriptions))
	for _, sub := range e.subscriptions {
		subs = append(subs, *sub)
	}
	return subs
}
