package chat

import (
	"context"
	"sync"

	"github.com/pribylovaa/go-resume-portfolio/internal/models"
)

// Memory — история в памяти процесса.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string][]models.ChatMessage
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[string][]models.ChatMessage)}
}

func (m *Memory) Append(_ context.Context, msgs ...models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, msg := range msgs {
		m.sessions[msg.SessionID] = append(m.sessions[msg.SessionID], msg)
	}

	return nil
}

// Recent; limit <= 0 — вся история.
func (m *Memory) Recent(_ context.Context, sessionID string, limit int) ([]models.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.sessions[sessionID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}

	out := make([]models.ChatMessage, len(all))
	copy(out, all)

	return out, nil
}

func (m *Memory) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
	return nil
}

func (m *Memory) Close(context.Context) error { return nil }
