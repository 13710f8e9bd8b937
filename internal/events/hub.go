package events

import (
	"errors"
	"strings"
	"sync"
)

const (
	DefaultBufferSize       = 50
	DefaultSubscriberBuffer = 16
)

// Event is a fire-and-forget notification about a business record
// mutation, named `<entity><Created|Updated|Deleted>`.
type Event struct {
	Name   string `json:"name"`
	Tenant string `json:"tenant"`
	Record any    `json:"record"`
}

// Hub fans events out to listeners per tenant. Delivery is best-effort and
// unacknowledged: publishes to tenants without listeners are dropped, and a
// slow subscriber loses events rather than exerting backpressure.
type Hub struct {
	mu               sync.RWMutex
	streams          map[string]*stream
	bufferSize       int
	subscriberBuffer int
}

type stream struct {
	mu     sync.Mutex
	buffer []Event
	subs   map[uint64]chan Event
	nextID uint64
}

// Subscription is one listener's attachment to a tenant stream.
type Subscription struct {
	hub    *Hub
	tenant string
	id     uint64
	ch     chan Event
	once   sync.Once
}

func NewHub() *Hub {
	return &Hub{
		streams:          make(map[string]*stream),
		bufferSize:       DefaultBufferSize,
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

// Publish delivers an event to every current subscriber of the tenant's
// stream without blocking. Full subscriber channels are skipped.
func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	tenant := strings.TrimSpace(event.Tenant)
	if tenant == "" {
		return
	}
	h.mu.RLock()
	st := h.streams[tenant]
	h.mu.RUnlock()
	if st == nil {
		return
	}

	st.mu.Lock()
	st.buffer = append(st.buffer, event)
	if len(st.buffer) > h.bufferSize {
		st.buffer = st.buffer[len(st.buffer)-h.bufferSize:]
	}
	subs := make([]chan Event, 0, len(st.subs))
	for _, ch := range st.subs {
		subs = append(subs, ch)
	}
	st.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe attaches a listener to a tenant stream and returns the recent
// replay buffer.
func (h *Hub) Subscribe(tenant string) (*Subscription, []Event, error) {
	if h == nil {
		return nil, nil, errors.New("hub_unavailable")
	}
	tenant = strings.TrimSpace(tenant)
	if tenant == "" {
		return nil, nil, errors.New("tenant_required")
	}

	h.mu.Lock()
	st := h.streams[tenant]
	if st == nil {
		st = &stream{subs: make(map[uint64]chan Event)}
		h.streams[tenant] = st
	}
	h.mu.Unlock()

	st.mu.Lock()
	id := st.nextID
	st.nextID++
	ch := make(chan Event, h.subscriberBuffer)
	st.subs[id] = ch
	replay := make([]Event, len(st.buffer))
	copy(replay, st.buffer)
	st.mu.Unlock()

	return &Subscription{hub: h, tenant: tenant, id: id, ch: ch}, replay, nil
}

// Events is the subscriber's delivery channel.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close detaches the subscriber. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.RLock()
		st := s.hub.streams[s.tenant]
		s.hub.mu.RUnlock()
		if st == nil {
			return
		}
		st.mu.Lock()
		delete(st.subs, s.id)
		st.mu.Unlock()
	})
}
