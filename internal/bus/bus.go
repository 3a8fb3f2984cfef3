// Package bus provides the synchronous publish/subscribe channel that carries
// trace events and materialized states from readers to reports.
//
// A Bus delivers each published value to every listener, in registration
// order, before Publish returns. There is no buffering and no replay: a
// listener sees only values published after it subscribed, and subscription
// is closed once the first value has been published so every listener of a
// run observes the complete sequence.
//
// Buses are not safe for concurrent use. The replay engine is single-threaded
// and owns every bus it creates.
package bus

import (
	"errors"
	"fmt"
)

// ErrLateSubscription is returned by AddListener after the bus has started
// publishing.
var ErrLateSubscription = errors.New("bus: listener added after first publish")

// ErrReentrantPublish is returned when a listener publishes on the bus that is
// currently dispatching to it.
var ErrReentrantPublish = errors.New("bus: publish during dispatch")

// Listener consumes one published value. A non-nil error aborts the dispatch.
type Listener[T any] func(T) error

// DispatchError reports the listener that failed during Publish.
type DispatchError struct {
	Bus      string
	Listener int
	Err      error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("bus %s: listener %d: %v", e.Bus, e.Listener, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Bus is a synchronous channel for values of type T.
type Bus[T any] struct {
	name        string
	listeners   []Listener[T]
	published   bool
	dispatching bool
}

// New creates an empty bus. The name appears in errors and metrics.
func New[T any](name string) *Bus[T] {
	return &Bus[T]{name: name}
}

// Name returns the bus name.
func (b *Bus[T]) Name() string { return b.name }

// Len returns the number of subscribed listeners.
func (b *Bus[T]) Len() int { return len(b.listeners) }

// AddListener subscribes l. It fails once the bus has published.
func (b *Bus[T]) AddListener(l Listener[T]) error {
	if l == nil {
		return fmt.Errorf("bus %s: nil listener", b.name)
	}
	if b.published {
		return fmt.Errorf("bus %s: %w", b.name, ErrLateSubscription)
	}
	b.listeners = append(b.listeners, l)
	return nil
}

// Publish delivers v to every listener in registration order and returns
// once all of them have run. The first listener error stops the dispatch;
// remaining listeners do not see v.
func (b *Bus[T]) Publish(v T) error {
	if b.dispatching {
		return fmt.Errorf("bus %s: %w", b.name, ErrReentrantPublish)
	}
	b.published = true
	b.dispatching = true
	defer func() { b.dispatching = false }()

	for i, l := range b.listeners {
		if err := l(v); err != nil {
			return &DispatchError{Bus: b.name, Listener: i, Err: err}
		}
	}
	return nil
}
