package broadcast

import "sync"

// Bus is a tiny in-process topic broadcaster. Publishing is
// fire-and-forget: slow or absent subscribers never block the
// publisher, they just miss the event.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]chan string
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[string][]chan string),
	}
}

// Subscribe returns a channel receiving every payload published on the
// topic after this call.
func (b *Bus) Subscribe(topic string) <-chan string {
	ch := make(chan string, 16)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], ch)
	return ch
}

// Publish delivers payload to current subscribers of the topic. A
// subscriber with a full buffer is skipped.
func (b *Bus) Publish(topic, payload string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[topic] {
		select {
		case ch <- payload:
		default:
		}
	}
}
