// log хранит request-scoped *slog.Logger в context.Context.
// Клиент и CLI не передают логгер явными параметрами: каждый слой
// достаёт его через From и при необходимости обогащает через With.
package log

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Into кладёт логгер в контекст.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From достаёт логгер из контекста (или возвращает slog.Default()).
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}

	return slog.Default()
}

// Ensure кладёт l в контекст, только если там ещё нет логгера.
func Ensure(ctx context.Context, l *slog.Logger) context.Context {
	if v, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && v != nil {
		return ctx
	}

	if l == nil {
		return ctx
	}

	return Into(ctx, l)
}

// With обогащает логгер из контекста атрибутами и кладёт результат
// в дочерний контекст. Родительский контекст не меняется.
func With(ctx context.Context, attrs ...any) (context.Context, *slog.Logger) {
	l := From(ctx).With(attrs...)
	return Into(ctx, l), l
}
