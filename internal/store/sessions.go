package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/sitesearch/internal/logging"
)

// Session is a logged-in browser. Token is the decoded bearer token.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"-"`
	CSRF      string    `json:"-"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSession carries the fields needed to open a session.
type NewSession struct {
	Token    string
	CSRF     string
	FullName string
	Email    string
	Avatar   string

	// UserID is the provider account id the token resolved to.
	UserID string
}

// CreateSession stores a session that lives for ttl.
func (s *Store) CreateSession(ctx context.Context, in NewSession, ttl time.Duration) (*Session, error) {
	if in.Token == "" {
		return nil, fmt.Errorf("session token is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}

	now := s.now().UTC().Truncate(time.Second)
	sess := &Session{
		ID:        uuid.New().String(),
		Token:     in.Token,
		CSRF:      in.CSRF,
		FullName:  in.FullName,
		Email:     in.Email,
		Avatar:    in.Avatar,
		UserID:    in.UserID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, token, csrf, full_name, email, avatar, user_id, created_at, expires_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Token, sess.CSRF, sess.FullName, sess.Email, sess.Avatar, sess.UserID,
		sess.CreatedAt.Unix(), sess.ExpiresAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	s.logger.Debug("created session", logging.Field{Key: "session_id", Value: sess.ID})
	return sess, nil
}

// GetSession returns a live session. Expired sessions are removed and
// reported as ErrSessionExpired.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, token, csrf, full_name, email, avatar, user_id, created_at, expires_at
         FROM sessions
         WHERE id = ?
         LIMIT 1`,
		id,
	)

	var sess Session
	var created, expires int64
	if err := row.Scan(&sess.ID, &sess.Token, &sess.CSRF, &sess.FullName, &sess.Email, &sess.Avatar, &sess.UserID, &created, &expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("select session: %w", err)
	}
	sess.CreatedAt = time.Unix(created, 0).UTC()
	sess.ExpiresAt = time.Unix(expires, 0).UTC()

	if !s.now().Before(sess.ExpiresAt) {
		if err := s.DeleteSession(ctx, id); err != nil {
			s.logger.Warn("removing expired session", logging.Err(err))
		}
		return nil, ErrSessionExpired
	}
	return &sess, nil
}

// DeleteSession removes a session. Deleting an unknown id is not an error.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpired removes every expired session and returns how many went.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("purged expired sessions", logging.Field{Key: "count", Value: n})
	}
	return n, nil
}
