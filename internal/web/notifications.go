// Package web surfaces presence notifications to browsers over
// server-sent events
package web

import (
	"sync"
	"time"

	"github.com/MilynDsilva/consultrooms/internal/models"
)

// Dispatcher holds the bounded, ordered set of active join/leave
// notifications for one connected client. Every pushed entry carries a
// monotonic identifier and self-expires exactly once after a fixed
// delay; expiry targets the identifier, never the queue position, so
// concurrent pushes cannot expire the wrong toast.
type Dispatcher struct {
	mu     sync.Mutex
	nextID uint64
	active []models.Notification

	ttl      time.Duration
	onPush   func(models.Notification)
	onExpire func(uint64)
}

// NewDispatcher creates a notification dispatcher. onPush and onExpire
// may be nil; they fire outside the internal lock.
func NewDispatcher(ttl time.Duration, onPush func(models.Notification), onExpire func(uint64)) *Dispatcher {
	return &Dispatcher{
		ttl:      ttl,
		onPush:   onPush,
		onExpire: onExpire,
	}
}

// Notify implements the presence bridge's notification sink
func (d *Dispatcher) Notify(kind models.NotificationKind, message string) {
	d.Push(kind, message)
}

// Push appends a notification and schedules its expiry
func (d *Dispatcher) Push(kind models.NotificationKind, message string) models.Notification {
	d.mu.Lock()
	d.nextID++
	n := models.Notification{ID: d.nextID, Kind: kind, Message: message}
	d.active = append(d.active, n)
	d.mu.Unlock()

	if d.onPush != nil {
		d.onPush(n)
	}
	time.AfterFunc(d.ttl, func() { d.expire(n.ID) })
	return n
}

// Active returns a snapshot of the currently visible notifications in
// push order
func (d *Dispatcher) Active() []models.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]models.Notification, len(d.active))
	copy(out, d.active)
	return out
}

// expire removes one notification by identifier; a second expiry for
// the same identifier finds nothing and fires no callback
func (d *Dispatcher) expire(id uint64) {
	d.mu.Lock()
	found := false
	for i, n := range d.active {
		if n.ID == id {
			d.active = append(d.active[:i], d.active[i+1:]...)
			found = true
			break
		}
	}
	d.mu.Unlock()

	if found && d.onExpire != nil {
		d.onExpire(id)
	}
}
