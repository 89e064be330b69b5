// Package participant tracks the players taking part in loot sessions: their
// loot-relevant state, their position, and the parties they loot with.
package participant

import (
	"fmt"
	"sync"
)

// Entity routes push calls to a Go channel, bridging loot notifications to
// whatever transport delivers them to the participant.
type Entity struct {
	id     uint64
	events chan []byte
	mu     sync.Mutex
	closed bool
}

// NewEntity creates an Entity for the given participant id.
//
// Postcondition: Returns an Entity with an open events channel.
func NewEntity(id uint64, bufferSize int) *Entity {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Entity{
		id:     id,
		events: make(chan []byte, bufferSize),
	}
}

// ID returns the participant id.
func (e *Entity) ID() uint64 {
	return e.id
}

// Push sends data to the events channel.
//
// Precondition: data must be a non-nil byte slice.
// Postcondition: Data is enqueued to the events channel, or an error if the entity is closed or full.
func (e *Entity) Push(data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return fmt.Errorf("entity %d is closed", e.id)
	}
	select {
	case e.events <- data:
		return nil
	default:
		return fmt.Errorf("entity %d event buffer full", e.id)
	}
}

// Events returns the read-only events channel.
func (e *Entity) Events() <-chan []byte {
	return e.events
}

// Close marks the entity as closed and closes the events channel.
//
// Postcondition: The events channel is closed. Further Push calls return an error.
func (e *Entity) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.closed {
		e.closed = true
		close(e.events)
	}
	return nil
}

// IsClosed reports whether the entity has been closed.
func (e *Entity) IsClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
