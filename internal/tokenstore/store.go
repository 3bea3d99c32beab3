// tokenstore хранит пару токенов и запись пользователя клиента.
//
// Раскладка фиксирована: два JSON-значения под ключами KeyTokens и KeyUser.
// Оба ключа создаются при входе/регистрации и удаляются вместе (Clear)
// при выходе или неустранимой ошибке обновления токена.
//
// Бэкенды (Backend): Memory (тесты, одноразовые сессии), File (CLI),
// Redis (общая сессия для нескольких процессов).
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pribylovaa/go-resume-portfolio/internal/config"
	"github.com/pribylovaa/go-resume-portfolio/internal/models"
)

const (
	KeyTokens = "tokens"
	KeyUser   = "user"
)

// ErrNotFound — ключ отсутствует в хранилище.
var ErrNotFound = errors.New("not found")

// Backend — сырое key/value хранилище.
// Get возвращает ErrNotFound для отсутствующего ключа.
// Delete удаляет все переданные ключи одной операцией.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Store — контракт, которым пользуются client и api.
type Store interface {
	// Tokens возвращает сохранённую пару или ErrNotFound.
	Tokens(ctx context.Context) (models.TokenPair, error)
	// SaveTokens заменяет пару целиком.
	SaveTokens(ctx context.Context, pair models.TokenPair) error
	// User возвращает сохранённого пользователя или ErrNotFound.
	User(ctx context.Context) (models.User, error)
	SaveUser(ctx context.Context, u models.User) error
	// Clear удаляет и токены, и пользователя.
	Clear(ctx context.Context) error
}

// Session реализует Store поверх произвольного Backend (JSON-сериализация).
type Session struct {
	b Backend
}

// New создаёт Session поверх backend.
func New(b Backend) *Session {
	return &Session{b: b}
}

// Open собирает Session по конфигурации.
func Open(ctx context.Context, cfg config.StoreConfig) (*Session, error) {
	const op = "tokenstore/Open"

	switch cfg.Backend {
	case config.StoreMemory:
		return New(NewMemory()), nil
	case config.StoreFile:
		path := cfg.Path
		if path == "" {
			p, err := DefaultPath()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			path = p
		}

		return New(NewFile(path)), nil
	case config.StoreRedis:
		r, err := NewRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return New(r), nil
	default:
		return nil, fmt.Errorf("%s: unknown backend %q", op, cfg.Backend)
	}
}

func (s *Session) Tokens(ctx context.Context) (models.TokenPair, error) {
	var p models.TokenPair
	if err := s.load(ctx, KeyTokens, &p); err != nil {
		return models.TokenPair{}, fmt.Errorf("tokenstore/Tokens: %w", err)
	}

	return p, nil
}

func (s *Session) SaveTokens(ctx context.Context, pair models.TokenPair) error {
	if err := s.save(ctx, KeyTokens, pair); err != nil {
		return fmt.Errorf("tokenstore/SaveTokens: %w", err)
	}

	return nil
}

func (s *Session) User(ctx context.Context) (models.User, error) {
	var u models.User
	if err := s.load(ctx, KeyUser, &u); err != nil {
		return models.User{}, fmt.Errorf("tokenstore/User: %w", err)
	}

	return u, nil
}

func (s *Session) SaveUser(ctx context.Context, u models.User) error {
	if err := s.save(ctx, KeyUser, u); err != nil {
		return fmt.Errorf("tokenstore/SaveUser: %w", err)
	}

	return nil
}

func (s *Session) Clear(ctx context.Context) error {
	if err := s.b.Delete(ctx, KeyTokens, KeyUser); err != nil {
		return fmt.Errorf("tokenstore/Clear: %w", err)
	}

	return nil
}

// Close закрывает бэкенд.
func (s *Session) Close() error { return s.b.Close() }

func (s *Session) load(ctx context.Context, key string, v any) error {
	raw, err := s.b.Get(ctx, key)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}

	return nil
}

func (s *Session) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	return s.b.Set(ctx, key, raw)
}

// Проверка выполнения контракта верхнего уровня.
var _ Store = (*Session)(nil)
