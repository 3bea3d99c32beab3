package transport

import (
	"net/http"

	"github.com/google/uuid"
)

// WithMetadata — добавляет в исходящий запрос заголовки:
//   - X-Request-Id (из контекста, из уже выставленного заголовка или новый UUID);
//   - User-Agent (если передан параметром и не задан вызывающим).
//
// Исходный *http.Request не модифицируется: изменения идут в клон.
func WithMetadata(userAgent string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			ctx := r.Context()

			rid := r.Header.Get("X-Request-Id")
			if rid == "" {
				rid = RequestIDFrom(ctx)
			}
			if rid == "" {
				rid = uuid.NewString()
			}

			out := r.Clone(WithRequestID(ctx, rid))
			out.Header.Set("X-Request-Id", rid)

			if userAgent != "" && r.Header.Get("User-Agent") == "" {
				out.Header.Set("User-Agent", userAgent)
			}

			return next.RoundTrip(out)
		})
	}
}
