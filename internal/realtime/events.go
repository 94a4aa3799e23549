package realtime

import "encoding/json"

// Event is the wire envelope for both directions. Data is event-specific.
// AckID is set by clients that want an explicit acknowledgment once the
// event has been processed (leave_room uses this for its timeout fallback).
type Event struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	AckID string          `json:"ack_id,omitempty"`
}

// Client to server events.
const (
	EventJoinUser           = "join_user"
	EventFindMatch          = "find_match"
	EventCancelSearch       = "cancel_search"
	EventJoinRoom           = "join_room"
	EventLeaveRoom          = "leave_room"
	EventSendMessage        = "send_message"
	EventDeleteMessage      = "delete_message"
	EventBulkDeleteMessages = "bulk_delete_messages"
	EventSendInvite         = "send_invite"
)

// Server to client events. The matchmaker emits its own three
// (waiting_for_match, match_found, match_invite) through the Notify hook.
const (
	EventUserStatusChanged   = "user_status_changed"
	EventReceiveMessage      = "receive_message"
	EventMessageDeleted      = "message_deleted"
	EventMessagesBulkDeleted = "messages_bulk_deleted"
	EventSessionEnded        = "session_ended"
	EventSearchCanceled      = "search_canceled"
	EventAck                 = "ack"
)

// The sending user's identity is never read from payloads; it comes from the
// authenticated connection. Payloads only carry the remaining parameters.

type findMatchPayload struct {
	TargetUserID string `json:"targetUserId,omitempty"`
}

type roomPayload struct {
	RoomID string `json:"roomId"`
}

type sendMessagePayload struct {
	RoomID  string `json:"roomId"`
	Content string `json:"content"`
}

type deleteMessagePayload struct {
	RoomID    string `json:"roomId"`
	MessageID string `json:"messageId"`
}

type bulkDeletePayload struct {
	RoomID     string   `json:"roomId"`
	MessageIDs []string `json:"messageIds"`
}

type sendInvitePayload struct {
	TargetUserID string `json:"targetUserId"`
}
