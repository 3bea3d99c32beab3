package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-resume-portfolio/internal/config"
	"github.com/pribylovaa/go-resume-portfolio/internal/models"
)

// fakeReplier запоминает историю последнего вызова.
type fakeReplier struct {
	got   []models.ChatMessage
	err   error
	calls int
}

func (f *fakeReplier) Send(_ context.Context, message string, history []models.ChatMessage) (string, error) {
	f.calls++
	f.got = history
	if f.err != nil {
		return "", f.err
	}
	return "re: " + message, nil
}

type failingHistory struct{ *Memory }

func (failingHistory) Append(context.Context, ...models.ChatMessage) error {
	return errors.New("disk full")
}

func TestSession_AskAppendsTurns(t *testing.T) {
	t.Parallel()

	h := NewMemory()
	r := &fakeReplier{}
	s := NewSession("s1", h, r, 3)

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	ctx := context.Background()

	reply, err := s.Ask(ctx, "first")
	require.NoError(t, err)
	require.Equal(t, "re: first", reply)
	require.Empty(t, r.got)

	_, err = s.Ask(ctx, "second")
	require.NoError(t, err)
	require.Len(t, r.got, 2)
	require.Equal(t, models.RoleUser, r.got[0].Role)
	require.Equal(t, "first", r.got[0].Content)
	require.Equal(t, models.RoleAssistant, r.got[1].Role)

	// Ответ всегда строго позже вопроса.
	require.True(t, r.got[1].CreatedAt.After(r.got[0].CreatedAt))

	_, err = s.Ask(ctx, "third")
	require.NoError(t, err)
	// Контекст ограничен тремя последними репликами.
	require.Len(t, r.got, 3)
	require.Equal(t, "re: first", r.got[0].Content)

	all, err := s.Transcript(ctx)
	require.NoError(t, err)
	require.Len(t, all, 6)
	require.NotEqual(t, all[0].ID, all[1].ID)

	require.NoError(t, s.Reset(ctx))
	all, err = s.Transcript(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestSession_ReplyErrorKeepsHistory(t *testing.T) {
	t.Parallel()

	h := NewMemory()
	s := NewSession("s1", h, &fakeReplier{err: errors.New("backend down")}, 10)

	_, err := s.Ask(context.Background(), "hello")
	require.ErrorContains(t, err, "backend down")

	all, err := s.Transcript(context.Background())
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestSession_HistoryFailureNotFatal(t *testing.T) {
	t.Parallel()

	s := NewSession("s1", failingHistory{NewMemory()}, &fakeReplier{}, 10)

	reply, err := s.Ask(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "re: hello", reply)
}

func TestSession_NoHistoryWhenDisabled(t *testing.T) {
	t.Parallel()

	h := NewMemory()
	r := &fakeReplier{}
	s := NewSession("s1", h, r, 0)

	_, err := s.Ask(context.Background(), "a")
	require.NoError(t, err)
	_, err = s.Ask(context.Background(), "b")
	require.NoError(t, err)
	require.Nil(t, r.got)
}

func TestMemory_IsolatesSessions(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Append(ctx,
		models.ChatMessage{SessionID: "a", Content: "1"},
		models.ChatMessage{SessionID: "b", Content: "2"},
		models.ChatMessage{SessionID: "a", Content: "3"},
	))

	got, err := m.Recent(ctx, "a", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	got[0].Content = "mutated"
	again, err := m.Recent(ctx, "a", 1)
	require.NoError(t, err)
	require.Equal(t, "3", again[0].Content)

	first, err := m.Recent(ctx, "a", 0)
	require.NoError(t, err)
	require.Equal(t, "1", first[0].Content)
}

func TestOpen(t *testing.T) {
	t.Parallel()

	h, err := Open(context.Background(), config.ChatConfig{Backend: config.ChatMemory})
	require.NoError(t, err)
	require.IsType(t, &Memory{}, h)
	require.NoError(t, h.Close(context.Background()))

	_, err = Open(context.Background(), config.ChatConfig{Backend: "sqlite"})
	require.Error(t, err)
}

func TestDatabaseFromURI(t *testing.T) {
	t.Parallel()

	require.Equal(t, "career", databaseFromURI("mongodb://localhost:27017/career"))
	require.Equal(t, defaultDBName, databaseFromURI("mongodb://localhost:27017"))
	require.Equal(t, defaultDBName, databaseFromURI("::bad"))
}
