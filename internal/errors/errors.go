// errors стандартизирует ошибки REST-бэкенда на границе клиента.
// На вход он принимает HTTP-ответ с не-2xx статусом (тело в любом из
// встречающихся у бэкенда форматов), а на выход даёт:
//   - *Error с единым набором полей (Status/Code/Message/Fields);
//   - сопоставление с сентинелами через errors.Is.
//
// Вызывающий код (CLI, api-обёртки) больше не разбирает error/detail/message
// самостоятельно: нормализация выполняется один раз в client.Send.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

var (
	// ErrUnauthenticated — 401: токен отсутствует, просрочен или отозван.
	ErrUnauthenticated = stderrors.New("unauthenticated")

	// ErrPermissionDenied — 403.
	ErrPermissionDenied = stderrors.New("permission denied")

	// ErrNotFound — 404.
	ErrNotFound = stderrors.New("not found")

	// ErrInvalidArgument — 400/422: ошибки валидации входных данных.
	ErrInvalidArgument = stderrors.New("invalid argument")

	// ErrConflict — 409: дубликат или конфликт версии.
	ErrConflict = stderrors.New("conflict")

	// ErrUnavailable — 502/503/504: бэкенд недоступен или не успел ответить.
	ErrUnavailable = stderrors.New("service unavailable")

	// ErrSessionExpired — обновление токена не удалось; сессия завершена,
	// сохранённые токены удалены, требуется повторный вход.
	ErrSessionExpired = stderrors.New("session expired")
)

// Error — единый формат ошибки для всех вызывающих.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — человекочитаемое описание (из тела ответа или по статусу).
// Fields — ошибки валидации по полям, если бэкенд их вернул.
// RequestID — из X-Request-Id ответа или тела, если есть (для трассировки).
type Error struct {
	Status    int                 `json:"status"`
	Code      string              `json:"code"`
	Message   string              `json:"message"`
	Fields    map[string][]string `json:"fields,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// Is сопоставляет ошибку с сентинелами пакета по HTTP-статусу.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthenticated:
		return e.Status == http.StatusUnauthorized
	case ErrPermissionDenied:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrInvalidArgument:
		return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrUnavailable:
		return e.Status == http.StatusBadGateway ||
			e.Status == http.StatusServiceUnavailable ||
			e.Status == http.StatusGatewayTimeout
	}

	return false
}

// FromResponse конвертирует не-2xx ответ в *Error.
//
// Порядок разбора тела:
//  1. {"error": {"code": "...", "message": "..."}} — конверт шлюза;
//  2. {"error": "..."};
//  3. {"detail": "..."};
//  4. {"message": "..."};
//  5. {"field": ["msg", ...], ...} — ошибки валидации по полям.
//
// Если тело пустое/не JSON — Code и Message берутся из базового маппинга статуса.
func FromResponse(status int, header http.Header, body []byte) *Error {
	code, msg := baseFromStatus(status)
	e := &Error{Status: status, Code: code, Message: msg}
	if header != nil {
		e.RequestID = header.Get("X-Request-Id")
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || len(obj) == 0 {
		return e
	}

	if raw, ok := obj["error"]; ok {
		var env struct {
			Code      string `json:"code"`
			Message   string `json:"message"`
			RequestID string `json:"request_id"`
		}
		if err := json.Unmarshal(raw, &env); err == nil && env.Message != "" {
			e.Message = env.Message
			if env.Code != "" {
				e.Code = env.Code
			}
			if env.RequestID != "" && e.RequestID == "" {
				e.RequestID = env.RequestID
			}
			return e
		}

		if s, ok := asString(raw); ok && s != "" {
			e.Message = s
			return e
		}
	}

	for _, key := range []string{"detail", "message"} {
		if s, ok := asString(obj[key]); ok && s != "" {
			e.Message = s
			if c, ok := asString(obj["code"]); ok && c != "" {
				e.Code = c
			}
			return e
		}
	}

	fields := make(map[string][]string)
	for k, raw := range obj {
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
			fields[k] = list
			continue
		}

		if s, ok := asString(raw); ok && s != "" {
			fields[k] = []string{s}
		}
	}

	if len(fields) > 0 {
		e.Fields = fields
		e.Message = summarize(fields)
	}

	return e
}

// Message — безопасный текст для показа пользователю.
func Message(err error) string {
	if err == nil {
		return ""
	}

	if stderrors.Is(err, ErrSessionExpired) {
		return "session expired, please log in again"
	}

	var apiErr *Error
	if stderrors.As(err, &apiErr) {
		return apiErr.Message
	}

	return err.Error()
}

// baseFromStatus — базовый маппинг HTTP-статус -> код/сообщение.
func baseFromStatus(status int) (string, string) {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "invalid_argument", "invalid argument"
	case http.StatusUnauthorized:
		return "unauthenticated", "unauthenticated"
	case http.StatusForbidden:
		return "permission_denied", "permission denied"
	case http.StatusNotFound:
		return "not_found", "not found"
	case http.StatusConflict:
		return "already_exists", "already exists"
	case http.StatusPreconditionFailed:
		return "failed_precondition", "failed precondition"
	case http.StatusRequestEntityTooLarge:
		return "too_large", "payload too large"
	case http.StatusTooManyRequests:
		return "resource_exhausted", "too many requests"
	case StatusClientClosedRequest:
		return "canceled", "canceled"
	case http.StatusNotImplemented:
		return "unimplemented", "unimplemented"
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return "unavailable", "service unavailable"
	case http.StatusGatewayTimeout:
		return "deadline_exceeded", "deadline exceeded"
	}

	if status >= 500 {
		return "internal", "internal error"
	}

	return "unknown", strings.ToLower(http.StatusText(status))
}

func asString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}

	return strings.TrimSpace(s), true
}

// summarize склеивает ошибки полей в одну строку в стабильном порядке.
// non_field_errors выводятся без префикса поля.
func summarize(fields map[string][]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		msg := strings.Join(fields[k], " ")
		if k == "non_field_errors" {
			parts = append(parts, msg)
			continue
		}
		parts = append(parts, k+": "+msg)
	}

	return strings.Join(parts, "; ")
}
