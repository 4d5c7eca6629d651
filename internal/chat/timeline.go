package chat

import (
	"estate_marketplace_backend/internal/gateway"

	"github.com/google/uuid"
)

// Timeline is the ordered message history of one chat as a viewer sees it:
// the fetched history in timestamp order, then live arrivals in arrival order.
// It is not safe for concurrent use.
type Timeline struct {
	messages []Message
	ids      map[uuid.UUID]struct{}
}

func NewTimeline(history []Message) *Timeline {
	t := &Timeline{
		messages: make([]Message, 0, len(history)),
		ids:      make(map[uuid.UUID]struct{}, len(history)),
	}
	for _, m := range history {
		t.Append(m)
	}
	return t
}

// Append adds m unless a message with the same id is already present.
func (t *Timeline) Append(m Message) bool {
	if _, ok := t.ids[m.ID]; ok {
		return false
	}
	t.ids[m.ID] = struct{}{}
	t.messages = append(t.messages, m)
	return true
}

// Remove drops the message with id. Removing an absent id is a no-op.
func (t *Timeline) Remove(id uuid.UUID) bool {
	if _, ok := t.ids[id]; !ok {
		return false
	}
	delete(t.ids, id)
	for i := range t.messages {
		if t.messages[i].ID == id {
			t.messages = append(t.messages[:i], t.messages[i+1:]...)
			break
		}
	}
	return true
}

// Apply merges a message event and reports whether the timeline changed.
// Updates are ignored.
func (t *Timeline) Apply(ev gateway.Event) (bool, error) {
	switch ev.Type {
	case gateway.EventDelete:
		return t.Remove(ev.DocumentID), nil
	case gateway.EventCreate:
		var m Message
		if err := ev.Decode(&m); err != nil {
			return false, err
		}
		return t.Append(m), nil
	}
	return false, nil
}

func (t *Timeline) Len() int { return len(t.messages) }

// Messages returns a copy of the current timeline.
func (t *Timeline) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}
