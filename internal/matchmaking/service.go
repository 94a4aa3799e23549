package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"log"

	"skillswap-backend/internal/storage"

	"github.com/google/uuid"
)

// Directory is the slice of the user store the matchmaker reads from.
type Directory interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*storage.User, error)
	ListOnlineUsersExcept(ctx context.Context, userID uuid.UUID) ([]*storage.User, error)
}

// ChatStore creates or reuses the chat for a matched pair.
type ChatStore interface {
	FindOrCreateChat(ctx context.Context, userA, userB uuid.UUID) (*storage.Chat, error)
}

// Notifier pushes a realtime event to one connection. Implemented by the
// websocket manager.
type Notifier interface {
	Notify(connectionID, event string, data map[string]any)
}

// Events emitted by the matchmaker.
const (
	EventMatchFound      = "match_found"
	EventWaitingForMatch = "waiting_for_match"
	EventMatchInvite     = "match_invite"
)

// Service owns the waiting queue and runs the matcher over it.
type Service struct {
	directory Directory
	chats     ChatStore
	notifier  Notifier
	queue     waitingQueue
}

func NewService(directory Directory, chats ChatStore, notifier Notifier) *Service {
	return &Service{
		directory: directory,
		chats:     chats,
		notifier:  notifier,
	}
}

// RequestMatch queues the user or pairs them with the first compatible
// waiting entry. An unknown user is a silent no-op. A repeat request
// replaces the user's previous entry.
func (s *Service) RequestMatch(ctx context.Context, connectionID string, userID, targetID uuid.UUID) error {
	user, err := s.directory.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Printf("[MATCH] Ignoring request from unknown user %s", userID)
			return nil
		}
		return fmt.Errorf("directory lookup for %s: %w", userID, err)
	}

	candidate := newWaitingEntry(connectionID, user.ID, user.Username,
		user.SkillsTeach, user.SkillsLearn, user.Rating, targetID)

	matched := s.queue.takeMatch(candidate)
	if matched == nil {
		s.notifier.Notify(connectionID, EventWaitingForMatch, nil)
		log.Printf("[MATCH] No match for %s, queued (queue size: %d)", user.Username, s.queue.len())
		s.broadcastInvites(ctx, candidate)
		return nil
	}

	chat, err := s.chats.FindOrCreateChat(ctx, candidate.UserID, matched.UserID)
	if err != nil {
		return fmt.Errorf("find-or-create chat for %s/%s: %w", candidate.UserID, matched.UserID, err)
	}

	log.Printf("[MATCH] %s <--> %s (room %s)", candidate.Username, matched.Username, chat.ID)

	s.notifier.Notify(candidate.ConnectionID, EventMatchFound, map[string]any{
		"roomId":  chat.ID.String(),
		"partner": partnerPayload(matched),
	})
	s.notifier.Notify(matched.ConnectionID, EventMatchFound, map[string]any{
		"roomId":  chat.ID.String(),
		"partner": partnerPayload(candidate),
	})
	return nil
}

func partnerPayload(e *WaitingEntry) map[string]any {
	return map[string]any{
		"id":       e.UserID.String(),
		"username": e.Username,
		"rating":   e.Rating,
		"isOnline": true,
	}
}

// broadcastInvites pushes a best-effort invite to every compatible online
// user who is not already queued. It never mutates the queue.
func (s *Service) broadcastInvites(ctx context.Context, entry *WaitingEntry) {
	online, err := s.directory.ListOnlineUsersExcept(ctx, entry.UserID)
	if err != nil {
		log.Printf("[MATCH] Error listing online users for invites: %v", err)
		return
	}

	for _, user := range online {
		if user.ConnectionID == nil || s.queue.contains(user.ID) {
			continue
		}

		theirTeach := normalizeSkills(user.SkillsTeach)
		theirLearn := normalizeSkills(user.SkillsLearn)
		if !skillsCompatible(entry.teach, entry.learn, theirTeach, theirLearn) {
			continue
		}

		log.Printf("[MATCH] Sending invite to %s", user.Username)
		s.notifier.Notify(*user.ConnectionID, EventMatchInvite, map[string]any{
			"startUser": map[string]any{
				"id":          entry.UserID.String(),
				"username":    entry.Username,
				"skillsTeach": entry.SkillsTeach,
				"skillsLearn": entry.SkillsLearn,
				"rating":      entry.Rating,
			},
		})
	}
}

// SendInvite delivers a direct invite from one user to another, if the
// target is online.
func (s *Service) SendInvite(ctx context.Context, targetUserID, senderID uuid.UUID) error {
	target, err := s.directory.GetUser(ctx, targetUserID)
	if err != nil {
		return fmt.Errorf("lookup invite target %s: %w", targetUserID, err)
	}
	sender, err := s.directory.GetUser(ctx, senderID)
	if err != nil {
		return fmt.Errorf("lookup invite sender %s: %w", senderID, err)
	}

	if target.ConnectionID == nil {
		return nil
	}

	log.Printf("[INVITE] Direct invite from %s to %s", sender.Username, target.Username)
	s.notifier.Notify(*target.ConnectionID, EventMatchInvite, map[string]any{
		"startUser": map[string]any{
			"id":          sender.ID.String(),
			"username":    sender.Username,
			"skillsTeach": sender.SkillsTeach,
			"skillsLearn": sender.SkillsLearn,
			"rating":      sender.Rating,
		},
	})
	return nil
}

// Cancel removes the entry owned by the given connection. Reports whether
// anything was removed.
func (s *Service) Cancel(connectionID string) bool {
	return s.queue.removeConnection(connectionID)
}

// RemoveUser drops a user's entry regardless of connection.
func (s *Service) RemoveUser(userID uuid.UUID) bool {
	return s.queue.removeUser(userID)
}

// QueueLen reports the number of waiting users.
func (s *Service) QueueLen() int {
	return s.queue.len()
}

// Waiting returns a copy of the current queue, in insertion order.
func (s *Service) Waiting() []*WaitingEntry {
	return s.queue.snapshot()
}

// Sweep drops waiting entries whose user is no longer online in the
// directory. Run periodically by the background processor.
func (s *Service) Sweep(ctx context.Context) int {
	removed := 0
	for _, entry := range s.queue.snapshot() {
		user, err := s.directory.GetUser(ctx, entry.UserID)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				log.Printf("[QUEUE_SWEEP] Error checking user %s: %v", entry.UserID, err)
				continue
			}
		}
		if err != nil || !user.IsOnline {
			if s.queue.removeUser(entry.UserID) {
				removed++
			}
		}
	}
	if removed > 0 {
		log.Printf("[QUEUE_SWEEP] Removed %d offline users from queue", removed)
	}
	return removed
}
