package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresDB struct {
	pool *pgxpool.Pool
}

// PoolConfig tunes the pgx connection pool.
type PoolConfig struct {
	MaxConnections int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

func NewPostgresDB(ctx context.Context, databaseURL string, pc PoolConfig) (*PostgresDB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	config.MaxConns = int32(pc.MaxConnections)
	config.MaxConnIdleTime = pc.MaxIdleTime
	config.MaxConnLifetime = pc.MaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &PostgresDB{pool: pool}, nil
}

func (db *PostgresDB) Close() {
	db.pool.Close()
}

func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Users

func (db *PostgresDB) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (username, email, password_hash, skills_teach, skills_learn)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, rating, total_ratings, sessions_completed, is_online, created_at, updated_at`

	return db.pool.QueryRow(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.SkillsTeach, user.SkillsLearn).
		Scan(&user.ID, &user.Rating, &user.TotalRatings, &user.SessionsCompleted,
			&user.IsOnline, &user.CreatedAt, &user.UpdatedAt)
}

const userColumns = `id, username, email, password_hash, skills_teach, skills_learn,
	rating, total_ratings, sessions_completed, is_online, connection_id, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.SkillsTeach, &user.SkillsLearn, &user.Rating, &user.TotalRatings,
		&user.SessionsCompleted, &user.IsOnline, &user.ConnectionID,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return user, nil
}

func (db *PostgresDB) GetUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(db.pool.QueryRow(ctx, query, userID))
}

func (db *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(db.pool.QueryRow(ctx, query, email))
}

func (db *PostgresDB) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(db.pool.QueryRow(ctx, query, username))
}

func (db *PostgresDB) UpdateUserProfile(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET username = $2, skills_teach = $3, skills_learn = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	return mapNotFound(db.pool.QueryRow(ctx, query,
		user.ID, user.Username, user.SkillsTeach, user.SkillsLearn).
		Scan(&user.UpdatedAt))
}

// ListUsersExcept returns every other user, best rated first.
func (db *PostgresDB) ListUsersExcept(ctx context.Context, userID uuid.UUID) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id <> $1 ORDER BY rating DESC`

	rows, err := db.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// ListOnlineUsersExcept returns users that are online with a live connection,
// excluding the given user. Used for the best-effort invite broadcast.
func (db *PostgresDB) ListOnlineUsersExcept(ctx context.Context, userID uuid.UUID) ([]*User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE id <> $1 AND is_online = true AND connection_id IS NOT NULL`

	rows, err := db.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (db *PostgresDB) SetUserOnline(ctx context.Context, userID uuid.UUID, connectionID string) error {
	query := `
		UPDATE users SET is_online = true, connection_id = $2, updated_at = now()
		WHERE id = $1`

	tag, err := db.pool.Exec(ctx, query, userID, connectionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearUserConnection flips the owner of a connection offline and returns the
// affected user, if any.
func (db *PostgresDB) ClearUserConnection(ctx context.Context, connectionID string) (*User, error) {
	query := `
		UPDATE users SET is_online = false, connection_id = NULL, updated_at = now()
		WHERE connection_id = $1
		RETURNING ` + userColumns

	return scanUser(db.pool.QueryRow(ctx, query, connectionID))
}

func (db *PostgresDB) UpdateUserRating(ctx context.Context, userID uuid.UUID, rating float64, totalRatings int) error {
	query := `
		UPDATE users SET rating = $2, total_ratings = $3, updated_at = now()
		WHERE id = $1`

	tag, err := db.pool.Exec(ctx, query, userID, rating, totalRatings)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Chats

// orderPair normalizes a participant pair so lookups and the unique
// constraint are independent of who initiated the match.
func orderPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}

const chatColumns = `id, user_a_id, user_b_id, last_message, is_completed, created_at, updated_at`

func scanChat(row pgx.Row) (*Chat, error) {
	chat := &Chat{}
	err := row.Scan(&chat.ID, &chat.UserAID, &chat.UserBID,
		&chat.LastMessage, &chat.IsCompleted, &chat.CreatedAt, &chat.UpdatedAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return chat, nil
}

// FindOrCreateChat reuses the existing chat for a pair or creates one.
func (db *PostgresDB) FindOrCreateChat(ctx context.Context, userA, userB uuid.UUID) (*Chat, error) {
	a, b := orderPair(userA, userB)

	query := `
		INSERT INTO chats (user_a_id, user_b_id)
		VALUES ($1, $2)
		ON CONFLICT (user_a_id, user_b_id) DO UPDATE SET user_a_id = EXCLUDED.user_a_id
		RETURNING ` + chatColumns

	return scanChat(db.pool.QueryRow(ctx, query, a, b))
}

func (db *PostgresDB) GetChat(ctx context.Context, chatID uuid.UUID) (*Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = $1`
	return scanChat(db.pool.QueryRow(ctx, query, chatID))
}

// ListChatsForUser returns a user's chats, most recently active first.
func (db *PostgresDB) ListChatsForUser(ctx context.Context, userID uuid.UUID) ([]*Chat, error) {
	query := `SELECT ` + chatColumns + `
		FROM chats
		WHERE user_a_id = $1 OR user_b_id = $1
		ORDER BY updated_at DESC`

	rows, err := db.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []*Chat
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

func (db *PostgresDB) TouchChat(ctx context.Context, chatID uuid.UUID, lastMessage string) error {
	query := `UPDATE chats SET last_message = $2, updated_at = now() WHERE id = $1`

	tag, err := db.pool.Exec(ctx, query, chatID, lastMessage)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteChat marks a chat completed and increments both participants'
// session counters, once. Returns true only on the call that flipped the
// flag; later calls are no-ops.
func (db *PostgresDB) CompleteChat(ctx context.Context, chatID uuid.UUID) (bool, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	chat := &Chat{}
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = $1 FOR UPDATE`
	err = tx.QueryRow(ctx, query, chatID).Scan(
		&chat.ID, &chat.UserAID, &chat.UserBID,
		&chat.LastMessage, &chat.IsCompleted, &chat.CreatedAt, &chat.UpdatedAt)
	if err != nil {
		return false, mapNotFound(err)
	}

	if chat.IsCompleted {
		return false, nil
	}

	_, err = tx.Exec(ctx,
		`UPDATE users SET sessions_completed = sessions_completed + 1, updated_at = now()
		 WHERE id = ANY($1)`,
		[]uuid.UUID{chat.UserAID, chat.UserBID})
	if err != nil {
		return false, err
	}

	_, err = tx.Exec(ctx, `UPDATE chats SET is_completed = true, updated_at = now() WHERE id = $1`, chatID)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Messages

func (db *PostgresDB) CreateMessage(ctx context.Context, msg *Message) error {
	query := `
		INSERT INTO messages (chat_id, sender, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return db.pool.QueryRow(ctx, query, msg.ChatID, msg.Sender, msg.Content).
		Scan(&msg.ID, &msg.CreatedAt)
}

func (db *PostgresDB) GetMessage(ctx context.Context, messageID uuid.UUID) (*Message, error) {
	msg := &Message{}
	query := `SELECT id, chat_id, sender, content, created_at FROM messages WHERE id = $1`

	err := db.pool.QueryRow(ctx, query, messageID).
		Scan(&msg.ID, &msg.ChatID, &msg.Sender, &msg.Content, &msg.CreatedAt)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return msg, nil
}

// ListMessages returns a chat's messages oldest first.
func (db *PostgresDB) ListMessages(ctx context.Context, chatID uuid.UUID) ([]*Message, error) {
	query := `SELECT id, chat_id, sender, content, created_at
		FROM messages WHERE chat_id = $1 ORDER BY created_at ASC`

	rows, err := db.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		msg := &Message{}
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.Sender, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (db *PostgresDB) DeleteMessage(ctx context.Context, messageID uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, messageID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMessagesOwnedBy deletes only those of the given messages that were
// sent by sender, and returns the ids it actually deleted.
func (db *PostgresDB) DeleteMessagesOwnedBy(ctx context.Context, messageIDs []uuid.UUID, sender string) ([]uuid.UUID, error) {
	query := `DELETE FROM messages WHERE id = ANY($1) AND sender = $2 RETURNING id`

	rows, err := db.pool.Query(ctx, query, messageIDs, sender)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deleted []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		deleted = append(deleted, id)
	}
	return deleted, rows.Err()
}

// Feedback

func (db *PostgresDB) CreateFeedback(ctx context.Context, fb *Feedback) error {
	query := `
		INSERT INTO feedback (from_user_id, to_user_id, rating, comment, session_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return db.pool.QueryRow(ctx, query,
		fb.FromUserID, fb.ToUserID, fb.Rating, fb.Comment, fb.SessionID).
		Scan(&fb.ID, &fb.CreatedAt)
}

// ListFeedbackRatings returns every rating ever received by a user.
func (db *PostgresDB) ListFeedbackRatings(ctx context.Context, toUserID uuid.UUID) ([]int, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT rating FROM feedback WHERE to_user_id = $1`, toUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []int
	for rows.Next() {
		var r int
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}
