package server

import (
	"encoding/json"
	"sync"
)

// Change topics mirror the store tables so subscribers can re-fetch
// exactly what moved.
const (
	topicEvent     = "event"
	topicTeams     = "teams"
	topicProgress  = "team_progress"
	topicPurchases = "problem_statement_purchases"
	topicMessages  = "messages"
)

// ChangeEvent is the payload pushed to live subscribers. It names what
// changed, not the new value: consumers re-read authoritative state on
// receipt.
type ChangeEvent struct {
	Table  string `json:"table"`
	Action string `json:"action"`
	TeamID int64  `json:"teamId,omitempty"`
}

// Broker is an in-process pub/sub for change notifications, keyed by
// topic. One broker serves the whole process; every mutating handler
// publishes through it after a successful write.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded change events
// for all of the given topics.
func (b *Broker) Subscribe(topics ...string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	for _, topic := range topics {
		if b.subs[topic] == nil {
			b.subs[topic] = make(map[chan []byte]struct{})
		}
		b.subs[topic][ch] = struct{}{}
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from every topic it was registered on.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	for topic, set := range b.subs {
		delete(set, ch)
		if len(set) == 0 {
			delete(b.subs, topic)
		}
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the event's table topic.
func (b *Broker) Publish(event ChangeEvent) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[event.Table] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
