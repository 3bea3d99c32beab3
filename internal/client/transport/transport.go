// transport предоставляет набор http.RoundTripper-мидлваров для исходящих
// вызовов клиента: метаданные запроса, таймаут, логирование.
//
// Цепочка по умолчанию (внешний -> внутренний): metadata -> timeout -> logging.
package transport

import (
	"context"
	"net/http"
)

// Middleware — обёртка над http.RoundTripper.
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc — адаптер функции к http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Chain применяет мидлвары к rt в порядке их перечисления:
// первый в списке становится самым внешним.
func Chain(rt http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}

	for i := len(mws) - 1; i >= 0; i-- {
		rt = mws[i](rt)
	}

	return rt
}

type CtxKey string

const CtxRequestID CtxKey = "request_id"

// WithRequestID кладёт идентификатор запроса в контекст;
// WithMetadata прокинет его в X-Request-Id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CtxRequestID, id)
}

// RequestIDFrom достаёт идентификатор запроса из контекста.
func RequestIDFrom(ctx context.Context) string {
	if v := ctx.Value(CtxRequestID); v != nil {
		if id, _ := v.(string); id != "" {
			return id
		}
	}

	return ""
}
