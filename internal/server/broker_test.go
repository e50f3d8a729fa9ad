package server

import (
	"encoding/json"
	"testing"
)

func TestBrokerPublishToTopic(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe(topicTeams, topicProgress)
	defer b.Unsubscribe(ch)

	b.Publish(ChangeEvent{Table: topicTeams, Action: "update", TeamID: 7})

	select {
	case data := <-ch:
		var ev ChangeEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if ev.Table != topicTeams || ev.TeamID != 7 {
			t.Errorf("unexpected event: %+v", ev)
		}
	default:
		t.Fatal("expected a buffered event")
	}

	// Topics the channel never subscribed to do not arrive.
	b.Publish(ChangeEvent{Table: topicMessages, Action: "insert"})
	select {
	case data := <-ch:
		t.Fatalf("unexpected delivery: %s", data)
	default:
	}
}

func TestBrokerDropsSlowSubscriber(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe(topicEvent)
	defer b.Unsubscribe(ch)

	// Overflow the buffer; publishes past capacity are dropped, not
	// blocked on.
	for i := 0; i < 40; i++ {
		b.Publish(ChangeEvent{Table: topicEvent, Action: "update"})
	}

	if got := len(ch); got != cap(ch) {
		t.Errorf("expected a full buffer of %d, got %d", cap(ch), got)
	}
}

func TestBrokerUnsubscribe(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe(topicEvent)
	b.Unsubscribe(ch)

	b.Publish(ChangeEvent{Table: topicEvent, Action: "update"})
	if len(ch) != 0 {
		t.Error("unsubscribed channel should receive nothing")
	}
}
