// redact предоставляет утилиты безопасного редактирования чувствительных
// данных для логов (e-mail, токены, заголовки авторизации). Цель — исключить
// утечки секретов, сохранив полезный для отладки контекст.
package redact

import (
	"net/http"
	"strings"
)

// Email маскирует e-mail для логирования.
//
// Правила:
//   - Строка должна содержать РОВНО один символ '@', иначе возвращается "***";
//   - Локальная часть заменяется на первые два символа (по рунам) + "***";
//   - Если длина локальной части ≤ 2 символов — возвращается "***@<domain>";
//   - Доменная часть возвращается без изменений.
func Email(s string) string {
	if strings.Count(s, "@") != 1 {
		return "***"
	}

	i := strings.IndexByte(s, '@')
	local, domain := s[:i], s[i+1:]

	lr := []rune(local)
	if len(lr) > 2 {
		local = string(lr[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Token возвращает литерал-заглушку для токена в логах.
func Token() string { return "[REDACTED_TOKEN]" }

// Password возвращает литерал-заглушку для пароля в логах.
func Password() string { return "[REDACTED_PASSWORD]" }

// sensitiveHeaders — заголовки, значения которых нельзя писать в лог.
var sensitiveHeaders = []string{"Authorization", "Cookie", "Set-Cookie", "Proxy-Authorization"}

// Header возвращает копию заголовков, в которой значения чувствительных
// полей заменены на Token(). Исходный http.Header не меняется.
func Header(h http.Header) http.Header {
	out := h.Clone()
	if out == nil {
		return http.Header{}
	}

	for _, name := range sensitiveHeaders {
		if _, ok := out[http.CanonicalHeaderKey(name)]; ok {
			out.Set(name, Token())
		}
	}

	return out
}
