package ai

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	// memoryCapacity bounds how many exchanges are retained at all.
	memoryCapacity = 50
	// promptWindow is how many recent exchanges go into each prompt.
	promptWindow = 20
)

// Exchange is one remembered chat turn.
type Exchange struct {
	Author string
	Text   string
	Reply  string
	At     time.Time
}

// Memory is a bounded, newest-wins conversation history shared by all chat
// requests.
type Memory struct {
	mu      sync.Mutex
	entries []Exchange
}

// NewMemory creates an empty conversation memory.
func NewMemory() *Memory {
	return &Memory{}
}

// Add records an exchange, evicting the oldest entries beyond capacity.
func (m *Memory) Add(author, text, reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Exchange{
		Author: author,
		Text:   text,
		Reply:  reply,
		At:     time.Now(),
	})
	if len(m.entries) > memoryCapacity {
		m.entries = m.entries[len(m.entries)-memoryCapacity:]
	}
}

// Recent returns up to n most recent exchanges, oldest first.
func (m *Memory) Recent(n int) []Exchange {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > len(m.entries) {
		n = len(m.entries)
	}
	out := make([]Exchange, n)
	copy(out, m.entries[len(m.entries)-n:])
	return out
}

// Len returns the number of retained exchanges.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Clear drops the whole history.
func (m *Memory) Clear() {
	m.mu.Lock()
	m.entries = nil
	m.mu.Unlock()
}

// transcript renders the prompt window as dialogue lines.
func (m *Memory) transcript() string {
	recent := m.Recent(promptWindow)
	if len(recent) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, e := range recent {
		fmt.Fprintf(&sb, "%s: %s\n", e.Author, e.Text)
		if e.Reply != "" {
			fmt.Fprintf(&sb, "assistant: %s\n", e.Reply)
		}
	}
	return sb.String()
}
