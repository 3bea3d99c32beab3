// api — типизированные обёртки над REST-эндпойнтами бэкенда портфолио.
// Все вызовы идут через Sender (client.Client), поэтому bearer-токен,
// обновление сессии и нормализация ошибок происходят в одном месте.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pribylovaa/go-resume-portfolio/internal/client"
	"github.com/pribylovaa/go-resume-portfolio/internal/config"
	"github.com/pribylovaa/go-resume-portfolio/internal/tokenstore"
)

//go:generate mockgen -destination=../mocks/mock_sender.go -package=mocks github.com/pribylovaa/go-resume-portfolio/internal/api Sender
//go:generate mockgen -destination=../mocks/mock_tokenstore.go -package=mocks github.com/pribylovaa/go-resume-portfolio/internal/tokenstore Store

// Sender — то, что api требует от HTTP-клиента.
type Sender interface {
	Send(ctx context.Context, req *client.Request) (*client.Response, error)
	JSON(ctx context.Context, method, path string, in, out any) error
}

// API агрегирует все группы эндпойнтов.
type API struct {
	Auth         *Auth
	Resumes      *Resumes
	Portfolio    *Portfolio
	CoverLetters *CoverLetters
	Chat         *Chat
}

// New собирает API поверх s. store используется только Auth.
func New(s Sender, store tokenstore.Store, paths config.PathConfig) *API {
	return &API{
		Auth:         NewAuth(s, store, paths),
		Resumes:      NewResumes(s, paths),
		Portfolio:    NewPortfolio(s, paths.Portfolio),
		CoverLetters: NewCoverLetters(s, paths),
		Chat:         NewChat(s, paths.Chat),
	}
}

// itemPath — путь конкретной записи коллекции: /resumes/ + 7 -> /resumes/7/.
func itemPath(collection string, id int64) string {
	return strings.TrimRight(collection, "/") + "/" + strconv.FormatInt(id, 10) + "/"
}

// decodeList принимает и голый массив, и страницу вида {"results": [...]}.
func decodeList[T any](body []byte) ([]T, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return []T{}, nil
	}

	if strings.HasPrefix(trimmed, "{") {
		var page struct {
			Results []T `json:"results"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode page: %w", err)
		}
		if page.Results == nil {
			page.Results = []T{}
		}
		return page.Results, nil
	}

	var out []T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if out == nil {
		out = []T{}
	}

	return out, nil
}
