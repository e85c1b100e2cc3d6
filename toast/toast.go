// Package toast carries short user-facing messages from state holders to the UI.
package toast

import (
	"strings"
	"sync"
	"time"
)

// Toaster shows a message to the user
type Toaster func(message string)

// Bindable is implemented by state holders that raise toasts
type Bindable interface {
	BindToast(toaster Toaster)
	UnbindToast()
}

// Binding is embeddable and implements Bindable. Show is a no-op while unbound.
type Binding struct {
	mu      sync.RWMutex
	toaster Toaster
}

// BindToast connects a toaster
func (b *Binding) BindToast(toaster Toaster) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.toaster = toaster
}

// UnbindToast disconnects the toaster
func (b *Binding) UnbindToast() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.toaster = nil
}

// Show forwards a message to the bound toaster, if any
func (b *Binding) Show(message string) {
	b.mu.RLock()
	toaster := b.toaster
	b.mu.RUnlock()
	if toaster != nil {
		toaster(message)
	}
}

// Message is a queued toast
type Message struct {
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Queue collects toasts until the UI drains them
type Queue struct {
	mu       sync.Mutex
	messages []Message
	limit    int
}

// NewQueue keeps at most limit undrained messages, dropping the oldest. A
// limit of zero keeps everything.
func NewQueue(limit int) *Queue {
	return &Queue{limit: limit}
}

// Push queues a message; blank messages are ignored
func (q *Queue) Push(message string) {
	if strings.TrimSpace(message) == "" {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages = append(q.messages, Message{Text: message, At: time.Now()})
	if q.limit > 0 && len(q.messages) > q.limit {
		q.messages = q.messages[len(q.messages)-q.limit:]
	}
}

// Toaster returns a Toaster that pushes into the queue
func (q *Queue) Toaster() Toaster {
	return q.Push
}

// Drain returns and clears the pending messages, oldest first
func (q *Queue) Drain() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	drained := q.messages
	q.messages = nil
	if drained == nil {
		return []Message{}
	}
	return drained
}

// Len is the number of pending messages
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}

// Bind connects every holder to toaster and returns a func that unbinds them
func Bind(toaster Toaster, holders ...Bindable) (unbind func()) {
	for _, h := range holders {
		h.BindToast(toaster)
	}
	return func() {
		for _, h := range holders {
			h.UnbindToast()
		}
	}
}
