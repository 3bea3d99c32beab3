package models

import "time"

// Роли участников диалога.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	ID        string    `json:"-"         bson:"_id"`
	SessionID string    `json:"-"         bson:"session_id"`
	Role      string    `json:"role"      bson:"role"`
	Content   string    `json:"content"   bson:"content"`
	CreatedAt time.Time `json:"-"         bson:"created_at"`
}

type ChatRequest struct {
	Message string        `json:"message"`
	History []ChatMessage `json:"history"`
}

type ChatReply struct {
	Reply string `json:"reply"`
}
