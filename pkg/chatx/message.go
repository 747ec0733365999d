package chatx

import (
	"maps"
	"time"
)

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Role identifies the author of a Message.
type Role string

func (r Role) String() string {
	return string(r)
}

// Message is one entry in a chat session. Messages are append-only: once in
// the history only the Content of the current assistant message changes, and
// only by appending streamed deltas.
type Message struct {
	ID        string
	Role      Role
	Content   string
	CreatedAt time.Time

	// Meta carries opaque caller-supplied key/value pairs.
	Meta map[string]any
}

// Clone returns a copy of the message with its own Meta map.
func (m *Message) Clone() *Message {
	c := *m
	if m.Meta != nil {
		c.Meta = maps.Clone(m.Meta)
	}
	return &c
}

func cloneMessages(msgs []*Message) []*Message {
	out := make([]*Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}
