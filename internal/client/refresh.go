package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	apierrors "github.com/pribylovaa/go-resume-portfolio/internal/errors"
	"github.com/pribylovaa/go-resume-portfolio/internal/models"
	"github.com/pribylovaa/go-resume-portfolio/internal/tokenstore"
	"github.com/pribylovaa/go-resume-portfolio/pkg/log"
	"github.com/pribylovaa/go-resume-portfolio/pkg/redact"
)

// errNoRefreshToken — в хранилище нет refresh-токена: сессии уже нет,
// обращаться к бэкенду бессмысленно.
var errNoRefreshToken = errors.New("no refresh token")

// awaitToken возвращает access-токен, с которым следует повторить запрос,
// отправленный с токеном stale и получивший 401.
//
// Решение принимается под c.mu:
//   - обновление уже идёт — встаём в очередь;
//   - в хранилище уже другой токен — его обновили, пока запрос был в пути;
//   - иначе этот вызов становится ведущим и выполняет обновление сам.
func (c *Client) awaitToken(ctx context.Context, stale string) (string, error) {
	c.mu.Lock()

	if c.refreshing {
		w := &waiter{ch: make(chan settled, 1)}
		c.queue = append(c.queue, w)
		c.mu.Unlock()

		c.metrics.wait()
		log.From(ctx).Debug("request_queued", slog.String("op", "internal/client/awaitToken"))

		select {
		case r := <-w.ch:
			return r.token, r.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if cur, err := c.accessToken(ctx); err == nil && cur != "" && cur != stale {
		c.mu.Unlock()
		return cur, nil
	}

	c.refreshing = true
	c.mu.Unlock()

	token, err := c.refresh(ctx)
	c.settle(token, err)

	return token, err
}

// settle возвращает клиент в IDLE и раздаёт результат ожидающим в порядке
// постановки в очередь. Хранилище к этому моменту уже обновлено или очищено.
func (c *Client) settle(token string, err error) {
	c.mu.Lock()
	queue := c.queue
	c.queue = nil
	c.refreshing = false
	c.mu.Unlock()

	for _, w := range queue {
		w.ch <- settled{token: token, err: err}
	}
}

// refresh обменивает сохранённый refresh-токен на новую пару.
//
// Вызов отвязан от отмены ctx инициатора: его результат нужен всем
// ожидающим. Ограничен только RefreshTimeout.
func (c *Client) refresh(ctx context.Context) (string, error) {
	const op = "internal/client/refresh"

	ctx = context.WithoutCancel(ctx)
	if c.refreshTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.refreshTimeout)
		defer cancel()
	}

	ctx, lg := log.With(ctx, slog.String("op", op))

	pair, err := c.store.Tokens(ctx)
	if err != nil && !errors.Is(err, tokenstore.ErrNotFound) {
		return "", c.fail(ctx, fmt.Errorf("%s: load tokens: %w", op, err))
	}

	if pair.Refresh == "" {
		c.metrics.refresh("skipped")
		lg.Info("refresh_skipped", slog.String("reason", errNoRefreshToken.Error()))
		return "", fmt.Errorf("%s: %w: %w", op, apierrors.ErrSessionExpired, errNoRefreshToken)
	}

	lg.Info("refresh_started", slog.String("refresh", redact.Token()))

	body, err := json.Marshal(models.RefreshRequest{Refresh: pair.Refresh})
	if err != nil {
		return "", c.fail(ctx, fmt.Errorf("%s: encode: %w", op, err))
	}

	resp, err := c.do(ctx, &Request{
		Method:      http.MethodPost,
		Path:        c.refreshPath,
		Body:        body,
		ContentType: "application/json",
	}, "")
	if err != nil {
		return "", c.fail(ctx, fmt.Errorf("%s: %w", op, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", c.fail(ctx, fmt.Errorf("%s: %w", op,
			apierrors.FromResponse(resp.StatusCode, resp.Header, resp.Body)))
	}

	var next models.TokenPair
	if err := json.Unmarshal(resp.Body, &next); err != nil {
		return "", c.fail(ctx, fmt.Errorf("%s: decode: %w", op, err))
	}

	if next.Access == "" {
		return "", c.fail(ctx, fmt.Errorf("%s: response has no access token", op))
	}

	if next.Refresh == "" {
		next.Refresh = pair.Refresh
	}

	if err := c.store.SaveTokens(ctx, next); err != nil {
		return "", c.fail(ctx, fmt.Errorf("%s: save tokens: %w", op, err))
	}

	c.metrics.refresh("ok")

	attrs := []any{}
	if exp, err := next.AccessExpiresAt(); err == nil {
		attrs = append(attrs, slog.Time("access_expires_at", exp))
	}
	lg.Info("refresh_succeeded", attrs...)

	return next.Access, nil
}

// fail завершает сессию: очищает хранилище и вызывает OnUnauthenticated.
// Вызывается не более одного раза на цикл обновления.
func (c *Client) fail(ctx context.Context, cause error) error {
	lg := log.From(ctx)

	c.metrics.refresh("failed")
	lg.Warn("refresh_failed", slog.String("err", cause.Error()))

	if err := c.store.Clear(ctx); err != nil {
		lg.Error("session_clear_failed", slog.String("err", err.Error()))
	} else {
		lg.Info("session_cleared")
	}

	err := fmt.Errorf("%w: %w", apierrors.ErrSessionExpired, cause)

	if c.onUnauth != nil {
		c.onUnauth(ctx, err)
	}

	return err
}
