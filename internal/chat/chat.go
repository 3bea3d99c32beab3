// chat ведёт диалог с ассистентом портфолио и хранит его историю.
// Каждый вопрос отправляется вместе с последними репликами сессии;
// реплики сохраняются только после успешного ответа.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-resume-portfolio/internal/config"
	"github.com/pribylovaa/go-resume-portfolio/internal/models"
	"github.com/pribylovaa/go-resume-portfolio/pkg/log"
)

// History — хранилище реплик. Recent возвращает не более limit последних
// реплик сессии в хронологическом порядке.
type History interface {
	Append(ctx context.Context, msgs ...models.ChatMessage) error
	Recent(ctx context.Context, sessionID string, limit int) ([]models.ChatMessage, error)
	Clear(ctx context.Context, sessionID string) error
	Close(ctx context.Context) error
}

// Replier — собеседник (api.Chat).
type Replier interface {
	Send(ctx context.Context, message string, history []models.ChatMessage) (string, error)
}

// Open выбирает хранилище истории по конфигурации.
func Open(ctx context.Context, cfg config.ChatConfig) (History, error) {
	switch cfg.Backend {
	case "", config.ChatMemory:
		return NewMemory(), nil
	case config.ChatMongo:
		return NewMongo(ctx, cfg.MongoURL, cfg.Collection)
	default:
		return nil, fmt.Errorf("internal/chat/Open: unknown backend %q", cfg.Backend)
	}
}

type Session struct {
	id      string
	history History
	replier Replier
	max     int
	now     func() time.Time

	mu   sync.Mutex
	last time.Time
}

// NewSession — сессия id; maxHistory ограничивает контекст, отправляемый
// вместе с вопросом (<= 0 — без истории).
func NewSession(id string, h History, r Replier, maxHistory int) *Session {
	return &Session{
		id:      id,
		history: h,
		replier: r,
		max:     maxHistory,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Session) ID() string { return s.id }

var (
	_ History = (*Memory)(nil)
	_ History = (*Mongo)(nil)
)

// Ask задаёт вопрос и сохраняет пару реплик.
func (s *Session) Ask(ctx context.Context, message string) (string, error) {
	const op = "internal/chat/Session.Ask"

	ctx, lg := log.With(ctx, slog.String("op", op), slog.String("session_id", s.id))

	var prior []models.ChatMessage
	if s.max > 0 {
		var err error
		prior, err = s.history.Recent(ctx, s.id, s.max)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}

	asked := s.tick()

	reply, err := s.replier.Send(ctx, message, prior)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	answered := s.tick()

	err = s.history.Append(ctx,
		models.ChatMessage{ID: uuid.NewString(), SessionID: s.id, Role: models.RoleUser, Content: message, CreatedAt: asked},
		models.ChatMessage{ID: uuid.NewString(), SessionID: s.id, Role: models.RoleAssistant, Content: reply, CreatedAt: answered},
	)
	if err != nil {
		lg.Warn("chat_history_append_failed", slog.String("err", err.Error()))
	}

	lg.Debug("chat_reply", slog.Int("history", len(prior)))

	return reply, nil
}

// tick — строго возрастающее в пределах сессии время реплики.
// Mongo хранит время с точностью до миллисекунды, поэтому шаг — 1ms.
func (s *Session) tick() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now().Truncate(time.Millisecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Millisecond)
	}
	s.last = t

	return t
}

// Transcript — вся сохранённая история сессии.
func (s *Session) Transcript(ctx context.Context) ([]models.ChatMessage, error) {
	const op = "internal/chat/Session.Transcript"

	msgs, err := s.history.Recent(ctx, s.id, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return msgs, nil
}

func (s *Session) Reset(ctx context.Context) error {
	const op = "internal/chat/Session.Reset"

	if err := s.history.Clear(ctx, s.id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
