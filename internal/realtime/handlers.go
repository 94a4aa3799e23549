package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"skillswap-backend/internal/storage"

	"github.com/google/uuid"
)

// dispatch routes one inbound event. Handler failures are logged and
// swallowed; every failure is terminal for that single event and leaves the
// queue and rooms unchanged.
func (m *Manager) dispatch(client *Client, event Event) {
	ctx := context.Background()

	switch event.Type {
	case EventJoinUser:
		m.handleJoinUser(ctx, client)
	case EventFindMatch:
		m.handleFindMatch(ctx, client, event)
	case EventCancelSearch:
		m.handleCancelSearch(client)
	case EventJoinRoom:
		m.handleJoinRoom(client, event)
	case EventLeaveRoom:
		m.handleLeaveRoom(ctx, client, event)
	case EventSendMessage:
		m.handleSendMessage(ctx, client, event)
	case EventDeleteMessage:
		m.handleDeleteMessage(client, event)
	case EventBulkDeleteMessages:
		m.handleBulkDelete(client, event)
	case EventSendInvite:
		m.handleSendInvite(ctx, client, event)
	default:
		log.Printf("[WS] Unknown event type %q from connection %s", event.Type, client.ID)
	}

	if event.AckID != "" {
		client.enqueue(EventAck, map[string]any{"ack_id": event.AckID})
	}
}

func (m *Manager) handleJoinUser(ctx context.Context, client *Client) {
	if err := m.store.SetUserOnline(ctx, client.UserID, client.ID); err != nil {
		log.Printf("[WS] Failed to mark user %s online: %v", client.UserID, err)
		return
	}

	if err := m.presence.PublishUserStatus(ctx, client.UserID.String(), true); err != nil {
		log.Printf("[WS] Failed to publish presence for %s: %v", client.UserID, err)
	}
}

func (m *Manager) handleFindMatch(ctx context.Context, client *Client, event Event) {
	var payload findMatchPayload
	if len(event.Data) > 0 {
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			log.Printf("[WS] Bad find_match payload: %v", err)
			return
		}
	}

	targetID := uuid.Nil
	if payload.TargetUserID != "" {
		var err error
		if targetID, err = uuid.Parse(payload.TargetUserID); err != nil {
			log.Printf("[WS] Bad find_match targetUserId %q: %v", payload.TargetUserID, err)
			return
		}
	}

	if err := m.matchmaker.RequestMatch(ctx, client.ID, client.UserID, targetID); err != nil {
		log.Printf("[MATCH] Request from %s failed: %v", client.UserID, err)
	}
}

func (m *Manager) handleCancelSearch(client *Client) {
	if m.matchmaker.Cancel(client.ID) {
		client.enqueue(EventSearchCanceled, nil)
	}
}

func (m *Manager) handleJoinRoom(client *Client, event Event) {
	var payload roomPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		log.Printf("[WS] Bad join_room payload: %v", err)
		return
	}

	m.joinRoom(client, payload.RoomID)
	client.lastRoomID = payload.RoomID
}

func (m *Manager) handleLeaveRoom(ctx context.Context, client *Client, event Event) {
	var payload roomPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		log.Printf("[WS] Bad leave_room payload: %v", err)
		return
	}

	if chatID, err := uuid.Parse(payload.RoomID); err == nil {
		completed, err := m.store.CompleteChat(ctx, chatID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			log.Printf("[CHAT] Error completing chat %s: %v", chatID, err)
		}
		if completed {
			log.Printf("[CHAT] Sessions incremented for both participants in room %s", payload.RoomID)
		}
	}

	m.BroadcastRoom(payload.RoomID, EventSessionEnded, map[string]any{"roomId": payload.RoomID}, client.ID)
	m.leaveRoom(client, payload.RoomID)
	if client.lastRoomID == payload.RoomID {
		client.lastRoomID = ""
	}
}

func (m *Manager) handleSendMessage(ctx context.Context, client *Client, event Event) {
	var payload sendMessagePayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		log.Printf("[WS] Bad send_message payload: %v", err)
		return
	}

	if strings.TrimSpace(payload.Content) == "" {
		log.Printf("[CHAT] Ignoring empty message from connection %s", client.ID)
		return
	}

	chatID, err := uuid.Parse(payload.RoomID)
	if err != nil {
		log.Printf("[CHAT] Bad roomId %q: %v", payload.RoomID, err)
		return
	}

	sender, err := m.store.GetUser(ctx, client.UserID)
	if err != nil {
		log.Printf("[CHAT] Unknown sender %s: %v", client.UserID, err)
		return
	}

	msg := &storage.Message{
		ChatID:  chatID,
		Sender:  sender.Username,
		Content: payload.Content,
	}
	if err := m.store.CreateMessage(ctx, msg); err != nil {
		log.Printf("[CHAT] Error saving message to %s: %v", payload.RoomID, err)
		return
	}

	if err := m.store.TouchChat(ctx, chatID, payload.Content); err != nil {
		log.Printf("[CHAT] Error updating chat %s: %v", payload.RoomID, err)
	}

	m.BroadcastRoom(payload.RoomID, EventReceiveMessage, map[string]any{
		"id":        msg.ID.String(),
		"content":   msg.Content,
		"sender":    msg.Sender,
		"timestamp": msg.CreatedAt,
	}, "")
}

// Deletion relays are pure fan-out: the HTTP layer already enforced
// ownership and removed the rows.
func (m *Manager) handleDeleteMessage(client *Client, event Event) {
	var payload deleteMessagePayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		log.Printf("[WS] Bad delete_message payload: %v", err)
		return
	}

	m.BroadcastRoom(payload.RoomID, EventMessageDeleted,
		map[string]any{"messageId": payload.MessageID}, "")
	log.Printf("[CHAT] Message %s deleted in room %s", payload.MessageID, payload.RoomID)
}

func (m *Manager) handleBulkDelete(client *Client, event Event) {
	var payload bulkDeletePayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		log.Printf("[WS] Bad bulk_delete_messages payload: %v", err)
		return
	}

	m.BroadcastRoom(payload.RoomID, EventMessagesBulkDeleted,
		map[string]any{"messageIds": payload.MessageIDs}, "")
	log.Printf("[CHAT] %d messages deleted in room %s", len(payload.MessageIDs), payload.RoomID)
}

func (m *Manager) handleSendInvite(ctx context.Context, client *Client, event Event) {
	var payload sendInvitePayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		log.Printf("[WS] Bad send_invite payload: %v", err)
		return
	}

	targetID, err := uuid.Parse(payload.TargetUserID)
	if err != nil {
		log.Printf("[WS] Bad send_invite targetUserId %q: %v", payload.TargetUserID, err)
		return
	}

	if err := m.matchmaker.SendInvite(ctx, targetID, client.UserID); err != nil {
		log.Printf("[INVITE] Error sending direct invite: %v", err)
	}
}

// handleDisconnect runs when a connection's read pump exits: notify the last
// joined room, drop any queue entry, flip presence offline.
func (m *Manager) handleDisconnect(client *Client) {
	ctx := context.Background()

	if client.lastRoomID != "" {
		log.Printf("[CHAT] Connection %s dropped from room %s, broadcasting session_ended", client.ID, client.lastRoomID)
		m.BroadcastRoom(client.lastRoomID, EventSessionEnded,
			map[string]any{"roomId": client.lastRoomID}, client.ID)
	}

	m.matchmaker.Cancel(client.ID)

	user, err := m.store.ClearUserConnection(ctx, client.ID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("[WS] Error clearing connection %s: %v", client.ID, err)
		}
		return
	}

	if err := m.presence.PublishUserStatus(ctx, user.ID.String(), false); err != nil {
		log.Printf("[WS] Failed to publish presence for %s: %v", user.ID, err)
	}
}
