package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pribylovaa/go-resume-portfolio/internal/config"
	apierrors "github.com/pribylovaa/go-resume-portfolio/internal/errors"
	"github.com/pribylovaa/go-resume-portfolio/internal/models"
	"github.com/pribylovaa/go-resume-portfolio/internal/tokenstore"
	"github.com/pribylovaa/go-resume-portfolio/pkg/log"
	"github.com/pribylovaa/go-resume-portfolio/pkg/redact"
)

// Auth — вход, регистрация, выход и профиль текущего пользователя.
// Login и Register — единственные (кроме обновления) источники пары токенов.
type Auth struct {
	s     Sender
	store tokenstore.Store
	paths config.PathConfig
}

func NewAuth(s Sender, store tokenstore.Store, paths config.PathConfig) *Auth {
	return &Auth{s: s, store: store, paths: paths}
}

// Status — состояние локальной сессии без обращения к бэкенду.
type Status struct {
	LoggedIn        bool
	User            models.User
	AccessExpiresAt time.Time
}

func (a *Auth) Login(ctx context.Context, email, password string) (models.User, error) {
	const op = "internal/api/Auth.Login"

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.User{}, fmt.Errorf("%s: %w: email and password are required", op, apierrors.ErrInvalidArgument)
	}

	var resp models.AuthResponse
	if err := a.s.JSON(ctx, http.MethodPost, a.paths.Login, models.LoginRequest{Email: email, Password: password}, &resp); err != nil {
		log.From(ctx).Warn("login_failed",
			slog.String("op", op),
			slog.String("email", redact.Email(email)),
			slog.String("password", redact.Password()),
			slog.String("err", err.Error()),
		)
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := a.persist(ctx, resp); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("login_succeeded",
		slog.String("op", op),
		slog.Int64("user_id", resp.User.ID),
		slog.String("email", redact.Email(email)),
	)

	return resp.User, nil
}

func (a *Auth) Register(ctx context.Context, in models.RegisterRequest) (models.User, error) {
	const op = "internal/api/Auth.Register"

	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		return models.User{}, fmt.Errorf("%s: %w: email and password are required", op, apierrors.ErrInvalidArgument)
	}
	if in.Password2 == "" {
		in.Password2 = in.Password
	}

	var resp models.AuthResponse
	if err := a.s.JSON(ctx, http.MethodPost, a.paths.Register, in, &resp); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := a.persist(ctx, resp); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("register_succeeded",
		slog.String("op", op),
		slog.Int64("user_id", resp.User.ID),
		slog.String("email", redact.Email(in.Email)),
	)

	return resp.User, nil
}

// Logout уведомляет бэкенд (best effort) и всегда очищает локальную сессию.
// Возвращается только ошибка очистки хранилища.
func (a *Auth) Logout(ctx context.Context) error {
	const op = "internal/api/Auth.Logout"

	lg := log.From(ctx).With(slog.String("op", op))

	pair, err := a.store.Tokens(ctx)
	switch {
	case err == nil && pair.Refresh != "":
		if err := a.s.JSON(ctx, http.MethodPost, a.paths.Logout, models.LogoutRequest{Refresh: pair.Refresh}, nil); err != nil {
			lg.Warn("logout_request_failed", slog.String("err", err.Error()))
		}
	case err != nil && !errors.Is(err, tokenstore.ErrNotFound):
		lg.Warn("logout_tokens_unreadable", slog.String("err", err.Error()))
	}

	if err := a.store.Clear(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("logout_succeeded")

	return nil
}

// Me запрашивает текущего пользователя и обновляет сохранённую запись.
func (a *Auth) Me(ctx context.Context) (models.User, error) {
	const op = "internal/api/Auth.Me"

	var u models.User
	if err := a.s.JSON(ctx, http.MethodGet, a.paths.Me, nil, &u); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := a.store.SaveUser(ctx, u); err != nil {
		log.From(ctx).Warn("user_cache_failed", slog.String("op", op), slog.String("err", err.Error()))
	}

	return u, nil
}

// Status читает локальную сессию.
func (a *Auth) Status(ctx context.Context) (Status, error) {
	const op = "internal/api/Auth.Status"

	pair, err := a.store.Tokens(ctx)
	if errors.Is(err, tokenstore.ErrNotFound) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("%s: %w", op, err)
	}

	st := Status{LoggedIn: !pair.Empty()}
	if exp, err := pair.AccessExpiresAt(); err == nil {
		st.AccessExpiresAt = exp
	}

	u, err := a.store.User(ctx)
	switch {
	case err == nil:
		st.User = u
	case !errors.Is(err, tokenstore.ErrNotFound):
		return Status{}, fmt.Errorf("%s: %w", op, err)
	}

	return st, nil
}

func (a *Auth) persist(ctx context.Context, resp models.AuthResponse) error {
	if resp.Tokens.Access == "" || resp.Tokens.Refresh == "" {
		return errors.New("response has no token pair")
	}

	if err := a.store.SaveTokens(ctx, resp.Tokens); err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}

	if err := a.store.SaveUser(ctx, resp.User); err != nil {
		return fmt.Errorf("save user: %w", err)
	}

	return nil
}
