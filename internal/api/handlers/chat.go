package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"skillswap-backend/internal/auth"
	"skillswap-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ChatStore is the slice of persistence the chat handlers need.
type ChatStore interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*storage.User, error)
	GetChat(ctx context.Context, chatID uuid.UUID) (*storage.Chat, error)
	ListChatsForUser(ctx context.Context, userID uuid.UUID) ([]*storage.Chat, error)
	ListMessages(ctx context.Context, chatID uuid.UUID) ([]*storage.Message, error)
	GetMessage(ctx context.Context, messageID uuid.UUID) (*storage.Message, error)
	DeleteMessage(ctx context.Context, messageID uuid.UUID) error
	DeleteMessagesOwnedBy(ctx context.Context, messageIDs []uuid.UUID, sender string) ([]uuid.UUID, error)
}

type ChatHandler struct {
	db ChatStore
}

func NewChatHandler(db ChatStore) *ChatHandler {
	return &ChatHandler{db: db}
}

type chatParticipant struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Rating   float64   `json:"rating"`
	IsOnline bool      `json:"is_online"`
}

type chatResponse struct {
	ID           uuid.UUID         `json:"id"`
	Participants []chatParticipant `json:"participants"`
	LastMessage  string            `json:"last_message"`
	IsCompleted  bool              `json:"is_completed"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func (h *ChatHandler) buildChatResponse(r *http.Request, chat *storage.Chat) (*chatResponse, error) {
	resp := &chatResponse{
		ID:          chat.ID,
		LastMessage: chat.LastMessage,
		IsCompleted: chat.IsCompleted,
		UpdatedAt:   chat.UpdatedAt,
	}

	for _, id := range []uuid.UUID{chat.UserAID, chat.UserBID} {
		user, err := h.db.GetUser(r.Context(), id)
		if err != nil {
			return nil, err
		}
		resp.Participants = append(resp.Participants, chatParticipant{
			ID:       user.ID,
			Username: user.Username,
			Rating:   user.Rating,
			IsOnline: user.IsOnline,
		})
	}
	return resp, nil
}

// ListChats returns the caller's chats, most recently active first.
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	chats, err := h.db.ListChatsForUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error", err.Error())
		return
	}

	responses := make([]*chatResponse, 0, len(chats))
	for _, chat := range chats {
		resp, err := h.buildChatResponse(r, chat)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server error", err.Error())
			return
		}
		responses = append(responses, resp)
	}
	writeJSON(w, http.StatusOK, responses)
}

func (h *ChatHandler) GetChatInfo(w http.ResponseWriter, r *http.Request) {
	chatID, err := uuid.Parse(chi.URLParam(r, "chatID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid chat id", "chat id must be a valid UUID")
		return
	}

	chat, err := h.db.GetChat(r.Context(), chatID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found", "chat not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server error", err.Error())
		return
	}

	resp, err := h.buildChatResponse(r, chat)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListMessages returns a chat's messages oldest first.
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	chatID, err := uuid.Parse(chi.URLParam(r, "chatID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid chat id", "chat id must be a valid UUID")
		return
	}

	messages, err := h.db.ListMessages(r.Context(), chatID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error", err.Error())
		return
	}
	if messages == nil {
		messages = []*storage.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

// DeleteMessage removes one message. Only the original sender may delete.
func (h *ChatHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	messageID, err := uuid.Parse(chi.URLParam(r, "messageID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid message id", "message id must be a valid UUID")
		return
	}

	msg, err := h.db.GetMessage(r.Context(), messageID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found", "message not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server error", err.Error())
		return
	}

	user, err := h.db.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error", err.Error())
		return
	}

	if msg.Sender != user.Username {
		writeError(w, http.StatusForbidden, "unauthorized", "only the sender can delete this message")
		return
	}

	if err := h.db.DeleteMessage(r.Context(), messageID); err != nil {
		writeError(w, http.StatusInternalServerError, "server error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "message deleted"})
}

type bulkDeleteRequest struct {
	MessageIDs []string `json:"messageIds"`
}

type bulkDeleteResponse struct {
	Message      string      `json:"message"`
	DeletedCount int         `json:"deletedCount"`
	DeletedIDs   []uuid.UUID `json:"deletedIds"`
}

// BulkDeleteMessages deletes the subset of the given messages owned by the
// caller. If none are owned the whole request is rejected.
func (h *ChatHandler) BulkDeleteMessages(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var req bulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if len(req.MessageIDs) == 0 {
		writeError(w, http.StatusBadRequest, "invalid message ids", "messageIds is required")
		return
	}

	ids := make([]uuid.UUID, 0, len(req.MessageIDs))
	for _, raw := range req.MessageIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid message ids", "message ids must be valid UUIDs")
			return
		}
		ids = append(ids, id)
	}

	user, err := h.db.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found", "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server error", err.Error())
		return
	}

	deleted, err := h.db.DeleteMessagesOwnedBy(r.Context(), ids, user.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error", err.Error())
		return
	}
	if len(deleted) == 0 {
		writeError(w, http.StatusForbidden, "unauthorized", "no messages owned by caller")
		return
	}

	writeJSON(w, http.StatusOK, bulkDeleteResponse{
		Message:      "messages deleted",
		DeletedCount: len(deleted),
		DeletedIDs:   deleted,
	})
}
