package session

import "heddle/internal/provider"

// Conversation is the ordered message sequence of a session. Appends never
// rewrite or delete prior entries. It is mutated only by the single
// in-flight send (or session setup), so it carries no lock.
type Conversation struct {
	msgs []provider.Message
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds a message at the end.
func (c *Conversation) Append(m provider.Message) {
	c.msgs = append(c.msgs, m)
}

// Messages returns the underlying message slice. Callers must treat it as
// read-only; it remains valid as a prefix while appends continue.
func (c *Conversation) Messages() []provider.Message {
	return c.msgs
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.msgs)
}

// Last returns the final message, if any.
func (c *Conversation) Last() (provider.Message, bool) {
	if len(c.msgs) == 0 {
		return provider.Message{}, false
	}
	return c.msgs[len(c.msgs)-1], true
}
