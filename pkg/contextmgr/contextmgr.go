// Package contextmgr manages the rolling conversation history used by the
// planning loop. History is scoped to one planner instance per pipeline
// session, never process-wide.
package contextmgr

import (
	"sync"
)

const (
	// DefaultMaxEntries bounds the retained history; the oldest entries are
	// dropped first.
	DefaultMaxEntries = 20

	// DefaultWindow is how many recent entries are supplied when building a
	// planning request.
	DefaultWindow = 6
)

// Role values for conversation entries.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single entry in the conversation context.
type Message struct {
	Role    string
	Content string
}

// ContextManager holds an ordered, bounded conversation history.
type ContextManager struct {
	mu         sync.Mutex
	messages   []Message
	maxEntries int
	window     int
	counter    *TokenCounter
}

// NewContextManager creates a context manager with default bounds.
func NewContextManager() *ContextManager {
	return &ContextManager{
		maxEntries: DefaultMaxEntries,
		window:     DefaultWindow,
	}
}

// NewContextManagerWithBounds creates a context manager with explicit bounds.
// Non-positive values fall back to the defaults.
func NewContextManagerWithBounds(maxEntries, window int) *ContextManager {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &ContextManager{
		maxEntries: maxEntries,
		window:     window,
	}
}

// AddMessage appends a role/content pair, then truncates to the retention
// bound, dropping the oldest entries.
func (cm *ContextManager) AddMessage(role, content string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.messages = append(cm.messages, Message{Role: role, Content: content})
	if len(cm.messages) > cm.maxEntries {
		cm.messages = cm.messages[len(cm.messages)-cm.maxEntries:]
	}
}

// Recent returns a copy of the most recent window of messages for building a
// planning request.
func (cm *ContextManager) Recent() []Message {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	start := 0
	if len(cm.messages) > cm.window {
		start = len(cm.messages) - cm.window
	}
	out := make([]Message, len(cm.messages)-start)
	copy(out, cm.messages[start:])
	return out
}

// Messages returns a copy of the full retained history.
func (cm *ContextManager) Messages() []Message {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	out := make([]Message, len(cm.messages))
	copy(out, cm.messages)
	return out
}

// Len returns the number of retained entries.
func (cm *ContextManager) Len() int {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return len(cm.messages)
}

// Clear removes all retained entries.
func (cm *ContextManager) Clear() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.messages = nil
}

// CountTokens returns the token count of the retained history.
func (cm *ContextManager) CountTokens() int {
	cm.mu.Lock()
	if cm.counter == nil {
		cm.counter = NewTokenCounter()
	}
	counter := cm.counter
	messages := make([]Message, len(cm.messages))
	copy(messages, cm.messages)
	cm.mu.Unlock()

	total := 0
	for i := range messages {
		total += counter.CountTokens(messages[i].Content)
	}
	return total
}
