// Package memory provides the bounded conversational memory handed to the
// planner on every step.
package memory

import "sync"

// Role identifies the speaker of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat message.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// DefaultSize is the number of messages kept when no size is configured.
const DefaultSize = 6

// TokenCounter estimates the token length of text.
type TokenCounter interface {
	Count(text string) int
}

// Window is a sliding window over the most recent messages. Older messages
// are evicted first. It is safe for concurrent use.
type Window struct {
	mu        sync.RWMutex
	size      int
	maxTokens int
	counter   TokenCounter
	messages  []Message
	evicted   int
}

// Option configures a Window.
type Option func(*Window)

// WithTokenBudget bounds the window by total tokens as well as message
// count. A budget of zero disables the bound.
func WithTokenBudget(maxTokens int, counter TokenCounter) Option {
	return func(w *Window) {
		w.maxTokens = maxTokens
		w.counter = counter
	}
}

// NewWindow creates a window holding at most size messages. Non-positive
// sizes fall back to DefaultSize.
func NewWindow(size int, opts ...Option) *Window {
	if size <= 0 {
		size = DefaultSize
	}
	w := &Window{size: size}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Append adds a message and evicts from the front until the window fits.
// The newest message is never evicted.
func (w *Window) Append(m Message) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.messages = append(w.messages, m)
	for len(w.messages) > w.size {
		w.dropOldest()
	}
	if w.maxTokens > 0 && w.counter != nil {
		for len(w.messages) > 1 && w.tokens() > w.maxTokens {
			w.dropOldest()
		}
	}
}

// AppendAssistant records a decision the planner made.
func (w *Window) AppendAssistant(content string) {
	w.Append(Message{Role: RoleAssistant, Content: content})
}

func (w *Window) dropOldest() {
	w.messages[0] = Message{}
	w.messages = w.messages[1:]
	w.evicted++
}

func (w *Window) tokens() int {
	total := 0
	for _, m := range w.messages {
		total += w.counter.Count(m.Content)
	}
	return total
}

// Messages returns a copy of the window, oldest first.
func (w *Window) Messages() []Message {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]Message, len(w.messages))
	copy(out, w.messages)
	return out
}

// Len returns the number of messages held.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.messages)
}

// Size returns the message capacity.
func (w *Window) Size() int {
	return w.size
}

// Evicted returns how many messages have slid out of the window.
func (w *Window) Evicted() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.evicted
}

// Reset empties the window.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = nil
	w.evicted = 0
}
