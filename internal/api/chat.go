package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	apierrors "github.com/pribylovaa/go-resume-portfolio/internal/errors"
	"github.com/pribylovaa/go-resume-portfolio/internal/models"
)

// Chat — диалог с ассистентом по портфолио.
type Chat struct {
	s    Sender
	path string
}

func NewChat(s Sender, path string) *Chat {
	return &Chat{s: s, path: path}
}

// Send отправляет сообщение вместе с предыдущими репликами и возвращает ответ.
func (c *Chat) Send(ctx context.Context, message string, history []models.ChatMessage) (string, error) {
	const op = "internal/api/Chat.Send"

	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%s: %w: empty message", op, apierrors.ErrInvalidArgument)
	}

	if history == nil {
		history = []models.ChatMessage{}
	}

	var out models.ChatReply
	if err := c.s.JSON(ctx, http.MethodPost, c.path, models.ChatRequest{Message: message, History: history}, &out); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return out.Reply, nil
}
