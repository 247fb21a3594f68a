package menu

import "sync"

// ClickSource delivers clicks to subscribers.
type ClickSource interface {
	Subscribe(fn func(Target)) (release func())
}

// Bus is an in-process ClickSource.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Target)
}

// NewBus creates a bus with no subscribers.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Target))}
}

// Subscribe registers fn. Calling release more than once is safe.
func (b *Bus) Subscribe(fn func(Target)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
		})
	}
}

// Publish delivers a click to every subscriber.
func (b *Bus) Publish(t Target) {
	b.mu.RLock()
	fns := make([]func(Target), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(t)
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
