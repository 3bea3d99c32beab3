// client — HTTP-клиент REST-бэкенда портфолио с bearer-аутентификацией.
//
// Каждый запрос получает Authorization из хранилища токенов. На 401 клиент
// один раз обновляет пару токенов (single-flight): пока обновление идёт,
// остальные запросы с 401 ждут в очереди и после него повторяются с новым
// access-токеном. Повторный 401 терминален.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pribylovaa/go-resume-portfolio/internal/client/transport"
	apierrors "github.com/pribylovaa/go-resume-portfolio/internal/errors"
	"github.com/pribylovaa/go-resume-portfolio/internal/tokenstore"
	"github.com/pribylovaa/go-resume-portfolio/pkg/log"
)

// Ограничение на размер читаемого тела ответа.
const maxBodySize = 32 << 20

// Request — воспроизводимое описание запроса: тело хранится байтами,
// поэтому повтор после обновления токена строит новый *http.Request.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Header      http.Header
	Body        []byte
	ContentType string
}

// Response — прочитанный целиком 2xx-ответ.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Options — параметры клиента.
type Options struct {
	BaseURL string
	Store   tokenstore.Store

	// HTTPClient — базовый клиент; его Transport оборачивается цепочкой
	// metadata -> timeout -> logging. По умолчанию http.DefaultClient.
	HTTPClient *http.Client
	Logger     *slog.Logger
	UserAgent  string

	// RequestTimeout применяется к каждому запросу без собственного дедлайна.
	RequestTimeout time.Duration
	// RefreshTimeout ограничивает вызов обновления токена.
	RefreshTimeout time.Duration

	RefreshPath string
	// NoRefreshPaths — эндпойнты, 401 на которых возвращается как есть
	// (вход, регистрация, выход). RefreshPath добавляется автоматически.
	NoRefreshPaths []string

	Metrics *Metrics

	// OnUnauthenticated вызывается один раз на каждый неудачный цикл
	// обновления, после очистки хранилища.
	OnUnauthenticated func(ctx context.Context, err error)
}

type Client struct {
	base           string
	http           *http.Client
	store          tokenstore.Store
	log            *slog.Logger
	metrics        *Metrics
	refreshPath    string
	refreshTimeout time.Duration
	noRefresh      map[string]struct{}
	onUnauth       func(context.Context, error)

	mu         sync.Mutex
	refreshing bool
	queue      []*waiter
}

type waiter struct {
	ch chan settled
}

type settled struct {
	token string
	err   error
}

// New собирает клиент поверх opts.
func New(opts Options) (*Client, error) {
	const op = "internal/client/New"

	if opts.Store == nil {
		return nil, fmt.Errorf("%s: token store is required", op)
	}

	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%s: invalid base url %q", op, opts.BaseURL)
	}

	if opts.RefreshPath == "" {
		return nil, fmt.Errorf("%s: refresh path is required", op)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	hc := http.Client{}
	if opts.HTTPClient != nil {
		hc = *opts.HTTPClient
	}

	// Цепочка транспортов: metadata -> timeout -> logging -> metrics -> base.
	hc.Transport = transport.Chain(
		opts.Metrics.instrument(orDefault(hc.Transport)),
		transport.WithMetadata(opts.UserAgent),
		transport.WithTimeout(opts.RequestTimeout),
		transport.WithLogging(logger),
	)

	noRefresh := make(map[string]struct{}, len(opts.NoRefreshPaths)+1)
	for _, p := range opts.NoRefreshPaths {
		noRefresh[normPath(p)] = struct{}{}
	}
	noRefresh[normPath(opts.RefreshPath)] = struct{}{}

	return &Client{
		base:           base,
		http:           &hc,
		store:          opts.Store,
		log:            logger,
		metrics:        opts.Metrics,
		refreshPath:    opts.RefreshPath,
		refreshTimeout: opts.RefreshTimeout,
		noRefresh:      noRefresh,
		onUnauth:       opts.OnUnauthenticated,
	}, nil
}

// Store — хранилище токенов клиента.
func (c *Client) Store() tokenstore.Store { return c.store }

// Refreshing сообщает, идёт ли сейчас обновление токена.
func (c *Client) Refreshing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.refreshing
}

// Pending — число запросов, ожидающих завершения текущего обновления.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.queue)
}

// Send выполняет запрос с bearer-токеном.
//
// Не-2xx ответы возвращаются как *apierrors.Error. На 401 (кроме эндпойнтов
// из NoRefreshPaths) запрос повторяется ровно один раз после обновления
// токена; если обновление не удалось — ошибка оборачивает
// apierrors.ErrSessionExpired.
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	const op = "internal/client/Send"

	ctx = log.Ensure(ctx, c.log)

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.do(ctx, req, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && c.refreshable(req.Path) {
		fresh, err := c.awaitToken(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		c.metrics.retry()

		resp, err = c.do(ctx, req, fresh)
		if err != nil {
			return nil, fmt.Errorf("%s: retry: %w", op, err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %s %s: %w", op, req.Method, req.Path,
			apierrors.FromResponse(resp.StatusCode, resp.Header, resp.Body))
	}

	return resp, nil
}

// JSON кодирует in (если не nil), отправляет запрос и декодирует ответ в out.
// Для 204 и пустого тела декодирование пропускается.
func (c *Client) JSON(ctx context.Context, method, path string, in, out any) error {
	const op = "internal/client/JSON"

	req := &Request{Method: method, Path: path}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode: %w", op, err)
		}
		req.Body = body
		req.ContentType = "application/json"
	}

	resp, err := c.Send(ctx, req)
	if err != nil {
		return err
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%s: decode %s %s: %w", op, method, path, err)
	}

	return nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	pair, err := c.store.Tokens(ctx)
	if errors.Is(err, tokenstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load tokens: %w", err)
	}

	return pair.Access, nil
}

func (c *Client) refreshable(path string) bool {
	_, skip := c.noRefresh[normPath(path)]
	return !skip
}

// do выполняет одну попытку запроса и читает тело целиком.
func (c *Client) do(ctx context.Context, r *Request, token string) (*Response, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, r.Method, c.resolve(r.Path, r.Query), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	for k, vs := range r.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	if r.ContentType != "" {
		httpReq.Header.Set("Content-Type", r.ContentType)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *Client) resolve(path string, query url.Values) string {
	var u string
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		u = path
	} else {
		u = c.base + "/" + strings.TrimLeft(path, "/")
	}

	if len(query) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + query.Encode()
	}

	return u
}

func orDefault(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		return http.DefaultTransport
	}
	return rt
}

func normPath(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return strings.Trim(p, "/")
}
