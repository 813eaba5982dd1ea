package session

import (
	"sync"
)

// DefaultID is the shared session used by the shared id policy
const DefaultID = "default"

// Role of the author of a session message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Store maps session ids to their ordered message history
type Store interface {
	AppendAndGetHistory(id string, role Role, text string) []Message
	AppendTurn(id string, role Role, text string) (Turn, []Message)
	AppendIfCurrent(turn Turn, role Role, text string) bool
	History(id string) []Message
	Clear(id string) bool
	Len() int
}

type cell struct {
	mu       sync.Mutex
	messages []Message
}

// Turn identifies the session incarnation a message was appended to. A
// cleared session never matches a turn started before the clear.
type Turn struct {
	ID   string
	cell *cell
}

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps histories in process memory. The map is guarded by an
// RWMutex and each session by its own mutex, so a busy session never blocks
// unrelated ones.
type MemoryStore struct {
	mu    sync.RWMutex
	cells map[string]*cell
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cells: make(map[string]*cell)}
}

// AppendAndGetHistory appends a message, creating the session on first use,
// and returns a copy of the resulting history
func (s *MemoryStore) AppendAndGetHistory(id string, role Role, text string) []Message {
	_, history := s.AppendTurn(id, role, text)
	return history
}

// AppendTurn is AppendAndGetHistory returning the turn the message belongs to
func (s *MemoryStore) AppendTurn(id string, role Role, text string) (Turn, []Message) {
	for {
		c := s.cell(id, true)
		c.mu.Lock()
		// Clear may have detached this cell between lookup and lock
		if !s.owns(id, c) {
			c.mu.Unlock()
			continue
		}
		out := c.append(role, text)
		c.mu.Unlock()
		return Turn{ID: id, cell: c}, out
	}
}

// AppendIfCurrent appends only while the session of turn is still live and
// reports whether it did. Messages of a turn that outlived a Clear are dropped.
func (s *MemoryStore) AppendIfCurrent(turn Turn, role Role, text string) bool {
	if turn.cell == nil {
		return false
	}
	turn.cell.mu.Lock()
	defer turn.cell.mu.Unlock()
	if !s.owns(turn.ID, turn.cell) {
		return false
	}
	turn.cell.append(role, text)
	return true
}

// History returns a copy of the session's messages, nil for unknown sessions
func (s *MemoryStore) History(id string) []Message {
	c := s.cell(id, false)
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) == 0 {
		return nil
	}
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Clear removes the whole session and reports whether it existed
func (s *MemoryStore) Clear(id string) bool {
	s.mu.Lock()
	c, ok := s.cells[id]
	delete(s.cells, id)
	s.mu.Unlock()
	if !ok {
		return false
	}

	// wait for an in-flight append to finish before dropping the messages
	c.mu.Lock()
	c.messages = nil
	c.mu.Unlock()
	return true
}

// Len returns the number of live sessions
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cells)
}

func (s *MemoryStore) cell(id string, create bool) *cell {
	s.mu.RLock()
	c, ok := s.cells[id]
	s.mu.RUnlock()
	if ok || !create {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok = s.cells[id]; !ok {
		c = &cell{}
		s.cells[id] = c
	}
	return c
}

func (c *cell) append(role Role, text string) []Message {
	c.messages = append(c.messages, Message{Role: role, Text: text})
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (s *MemoryStore) owns(id string, c *cell) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cells[id] == c
}
