package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/go-resume-portfolio/pkg/log"
	"github.com/pribylovaa/go-resume-portfolio/pkg/redact"
)

// WithLogging — логирование исходящих запросов.
// Поведение:
//   - обогащает логгер полями request_id/method/path и кладёт его в контекст (pkg/log);
//   - на уровне Debug пишет заголовки запроса (msg="http_request") через redact.Header;
//   - пишет одну финальную запись: msg="http", status, dur (Info), либо err (Warn).
//
// Тело запроса не логируется.
func WithLogging(base *slog.Logger) Middleware {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()

			rid := r.Header.Get("X-Request-Id")
			if rid == "" {
				rid = "-"
			}

			l := base.With(
				slog.String("request_id", rid),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			r = r.WithContext(log.Into(r.Context(), l))

			if l.Enabled(r.Context(), slog.LevelDebug) {
				l.Debug("http_request", slog.Any("headers", redact.Header(r.Header)))
			}

			resp, err := next.RoundTrip(r)
			if err != nil {
				l.Warn("http",
					slog.String("err", err.Error()),
					slog.Duration("dur", time.Since(start)),
				)
				return nil, err
			}

			l.Info("http",
				slog.Int("status", resp.StatusCode),
				slog.Duration("dur", time.Since(start)),
			)

			return resp, nil
		})
	}
}
