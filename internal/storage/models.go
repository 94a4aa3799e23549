package storage

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                uuid.UUID `json:"id" db:"id"`
	Username          string    `json:"username" db:"username"`
	Email             string    `json:"email" db:"email"`
	PasswordHash      string    `json:"-" db:"password_hash"`
	SkillsTeach       []string  `json:"skills_teach" db:"skills_teach"`
	SkillsLearn       []string  `json:"skills_learn" db:"skills_learn"`
	Rating            float64   `json:"rating" db:"rating"`
	TotalRatings      int       `json:"total_ratings" db:"total_ratings"`
	SessionsCompleted int       `json:"sessions_completed" db:"sessions_completed"`
	IsOnline          bool      `json:"is_online" db:"is_online"`
	ConnectionID      *string   `json:"-" db:"connection_id"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// Chat is a two-person session. Participants are stored normalized so the
// pair (user_a_id, user_b_id) is unique regardless of who initiated.
type Chat struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserAID     uuid.UUID `json:"user_a_id" db:"user_a_id"`
	UserBID     uuid.UUID `json:"user_b_id" db:"user_b_id"`
	LastMessage string    `json:"last_message" db:"last_message"`
	IsCompleted bool      `json:"is_completed" db:"is_completed"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type Message struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ChatID    uuid.UUID `json:"chat_id" db:"chat_id"`
	Sender    string    `json:"sender" db:"sender"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Feedback struct {
	ID         uuid.UUID `json:"id" db:"id"`
	FromUserID uuid.UUID `json:"from_user_id" db:"from_user_id"`
	ToUserID   uuid.UUID `json:"to_user_id" db:"to_user_id"`
	Rating     int       `json:"rating" db:"rating"`
	Comment    string    `json:"comment" db:"comment"`
	SessionID  string    `json:"session_id" db:"session_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// PublicUser is the profile shape exposed to other users.
type PublicUser struct {
	ID                uuid.UUID `json:"id"`
	Username          string    `json:"username"`
	SkillsTeach       []string  `json:"skills_teach"`
	SkillsLearn       []string  `json:"skills_learn"`
	Rating            float64   `json:"rating"`
	SessionsCompleted int       `json:"sessions_completed"`
	IsOnline          bool      `json:"is_online"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:                u.ID,
		Username:          u.Username,
		SkillsTeach:       u.SkillsTeach,
		SkillsLearn:       u.SkillsLearn,
		Rating:            u.Rating,
		SessionsCompleted: u.SessionsCompleted,
		IsOnline:          u.IsOnline,
	}
}
