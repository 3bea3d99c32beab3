// Входные/выходные модели под REST-контракты бэкенда портфолио.
package models

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPair — пара токенов, выдаваемая при входе/регистрации и обновлении.
//
// Описание:
//   - Access — короткоживущий JWT для авторизации запросов;
//   - Refresh — долгоживущий секрет для выпуска новой пары.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Empty сообщает, что пара не содержит access-токена.
func (p TokenPair) Empty() bool { return p.Access == "" }

// AccessExpiresAt читает claim exp из access-токена БЕЗ проверки подписи.
// Значение справочное (статус сессии в CLI): решение об обновлении
// принимается только по ответу 401.
func (p TokenPair) AccessExpiresAt() (time.Time, error) {
	if p.Access == "" {
		return time.Time{}, errors.New("empty access token")
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(p.Access, &claims); err != nil {
		return time.Time{}, err
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("access token has no exp claim")
	}

	return claims.ExpiresAt.Time.UTC(), nil
}

// User — запись пользователя, как её отдаёт бэкенд.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// FullName — имя для подписи письма; при пустых полях — username/email.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password"`
	Password2 string `json:"password2,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// AuthResponse — ответ login/register: единственный (кроме refresh)
// легитимный источник новой пары токенов.
type AuthResponse struct {
	User   User      `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type LogoutRequest struct {
	Refresh string `json:"refresh"`
}
