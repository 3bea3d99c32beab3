package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-resume-portfolio/pkg/log"
	"github.com/pribylovaa/go-resume-portfolio/pkg/redact"
	"github.com/stretchr/testify/require"
)

type capHandler struct {
	mu      sync.Mutex
	base    []slog.Attr
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
	count   map[string]int
	byMsg   map[string]map[string]any
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[string]any, len(h.base)+8)
	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})
	if h.count == nil {
		h.count = make(map[string]int)
	}
	h.count[r.Message]++
	if h.byMsg == nil {
		h.byMsg = make(map[string]map[string]any)
	}
	h.byMsg[r.Message] = out
	h.lastMsg = r.Message
	h.lastLvl = r.Level
	h.attrs = out
	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.base = append(h.base, attrs...)
	return h
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

// stub — терминальный RoundTripper, запоминающий последний запрос.
type stub struct {
	last   *http.Request
	status int
	err    error
}

func (s *stub) RoundTrip(r *http.Request) (*http.Response, error) {
	s.last = r
	if s.err != nil {
		return nil, s.err
	}

	status := s.status
	if status == 0 {
		status = http.StatusOK
	}

	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader("{}")),
		Request:    r,
	}, nil
}

func newReq(t *testing.T, ctx context.Context) *http.Request {
	t.Helper()

	r, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://backend.local/api/resumes/", nil)
	require.NoError(t, err)
	return r
}

func TestMetadata_RequestIDFromContext(t *testing.T) {
	t.Parallel()

	const rid = "rid-123"
	const ua = "portfolio-cli"

	s := &stub{}
	rt := WithMetadata(ua)(s)

	orig := newReq(t, WithRequestID(context.Background(), rid))
	resp, err := rt.RoundTrip(orig)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	require.Equal(t, rid, s.last.Header.Get("X-Request-Id"))
	require.Equal(t, ua, s.last.Header.Get("User-Agent"))
	require.Equal(t, rid, RequestIDFrom(s.last.Context()))

	// Исходный запрос не изменён.
	require.Empty(t, orig.Header.Get("X-Request-Id"))
}

func TestMetadata_GeneratesRequestID(t *testing.T) {
	t.Parallel()

	s := &stub{}
	resp, err := WithMetadata("")(s).RoundTrip(newReq(t, context.Background()))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	rid := s.last.Header.Get("X-Request-Id")
	_, perr := uuid.Parse(rid)
	require.NoError(t, perr)
	require.Empty(t, s.last.Header.Get("User-Agent"))
}

func TestMetadata_KeepsCallerHeaders(t *testing.T) {
	t.Parallel()

	s := &stub{}
	r := newReq(t, context.Background())
	r.Header.Set("X-Request-Id", "caller-rid")
	r.Header.Set("User-Agent", "custom/1.0")

	resp, err := WithMetadata("portfolio-cli")(s).RoundTrip(r)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	require.Equal(t, "caller-rid", s.last.Header.Get("X-Request-Id"))
	require.Equal(t, "custom/1.0", s.last.Header.Get("User-Agent"))
}

func TestTimeout_AppliesDeadline(t *testing.T) {
	t.Parallel()

	s := &stub{}
	resp, err := WithTimeout(50 * time.Millisecond)(s).RoundTrip(newReq(t, context.Background()))
	require.NoError(t, err)

	dl, ok := s.last.Context().Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(50*time.Millisecond), dl, 50*time.Millisecond)

	// Контекст живёт до закрытия тела.
	require.NoError(t, s.last.Context().Err())
	require.NoError(t, resp.Body.Close())
	require.Error(t, s.last.Context().Err())
}

func TestTimeout_KeepsExistingDeadline(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()
	want, _ := ctx.Deadline()

	s := &stub{}
	resp, err := WithTimeout(time.Millisecond)(s).RoundTrip(newReq(t, ctx))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	got, ok := s.last.Context().Deadline()
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestTimeout_ZeroPassThrough(t *testing.T) {
	t.Parallel()

	s := &stub{}
	resp, err := WithTimeout(0)(s).RoundTrip(newReq(t, context.Background()))
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	_, ok := s.last.Context().Deadline()
	require.False(t, ok)
}

func TestTimeout_CancelsOnError(t *testing.T) {
	t.Parallel()

	s := &stub{err: errors.New("dial failed")}
	_, err := WithTimeout(time.Second)(s).RoundTrip(newReq(t, context.Background()))
	require.Error(t, err)
	require.Error(t, s.last.Context().Err())
}

func TestLogging_Success(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	s := &stub{status: http.StatusCreated}

	r := newReq(t, context.Background())
	r.Header.Set("X-Request-Id", "rid-1")
	r.Header.Set("Authorization", "Bearer secret-token")

	resp, err := WithLogging(slog.New(h))(s).RoundTrip(r)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	require.Equal(t, "http", h.lastMsg)
	require.Equal(t, slog.LevelInfo, h.lastLvl)
	require.Equal(t, "rid-1", h.attrs["request_id"])
	require.Equal(t, http.MethodGet, h.attrs["method"])
	require.Equal(t, "/api/resumes/", h.attrs["path"])
	require.EqualValues(t, http.StatusCreated, h.attrs["status"])
	require.Contains(t, h.attrs, "dur")

	for _, v := range h.attrs {
		if str, ok := v.(string); ok {
			require.NotContains(t, str, "secret-token")
		}
	}

	// Обогащённый логгер доступен ниже по цепочке.
	require.NotSame(t, slog.Default(), log.From(s.last.Context()))
}

func TestLogging_DebugHeadersRedacted(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	s := &stub{}

	r := newReq(t, context.Background())
	r.Header.Set("X-Request-Id", "rid-2")
	r.Header.Set("Authorization", "Bearer secret-token")
	r.Header.Set("Cookie", "sessionid=abc")

	resp, err := WithLogging(slog.New(h))(s).RoundTrip(r)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	require.Equal(t, 1, h.count["http_request"])
	hdr, ok := h.byMsg["http_request"]["headers"].(http.Header)
	require.True(t, ok)
	require.Equal(t, redact.Token(), hdr.Get("Authorization"))
	require.Equal(t, redact.Token(), hdr.Get("Cookie"))
	require.Equal(t, "rid-2", hdr.Get("X-Request-Id"))

	// Исходные заголовки уходят дальше без изменений.
	require.Equal(t, "Bearer secret-token", s.last.Header.Get("Authorization"))
}

func TestLogging_HeadersSkippedAboveDebug(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	lg := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	r := newReq(t, context.Background())
	r.Header.Set("Authorization", "Bearer secret-token")

	resp, err := WithLogging(lg)(&stub{}).RoundTrip(r)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	require.NotContains(t, buf.String(), "http_request")
	require.NotContains(t, buf.String(), "secret-token")
}

func TestLogging_Error(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	s := &stub{err: errors.New("connection refused")}

	_, err := WithLogging(slog.New(h))(s).RoundTrip(newReq(t, context.Background()))
	require.Error(t, err)

	require.Equal(t, "http", h.lastMsg)
	require.Equal(t, slog.LevelWarn, h.lastLvl)
	require.Equal(t, "connection refused", h.attrs["err"])
	require.Equal(t, "-", h.attrs["request_id"])
}

func TestChain_OrderAndRealServer(t *testing.T) {
	t.Parallel()

	var gotRID, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRID = r.Header.Get("X-Request-Id")
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	h := &capHandler{}
	rt := Chain(nil,
		WithMetadata("portfolio-cli"),
		WithTimeout(time.Second),
		WithLogging(slog.New(h)),
	)

	r, err := http.NewRequestWithContext(WithRequestID(context.Background(), "rid-chain"), http.MethodGet, srv.URL+"/api/auth/me/", nil)
	require.NoError(t, err)

	resp, err := (&http.Client{Transport: rt}).Do(r)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "rid-chain", gotRID)
	require.Equal(t, "portfolio-cli", gotUA)
	// metadata внешний, значит логирование видит уже выставленный request_id.
	require.Equal(t, "rid-chain", h.attrs["request_id"])
	require.Equal(t, 1, h.count["http"])
}
