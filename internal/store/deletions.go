package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Deletion records a site removed through the dashboard.
type Deletion struct {
	ID          string    `json:"id"`
	SiteID      string    `json:"site_id"`
	SiteName    string    `json:"site_name"`
	AccountName string    `json:"account_name"`
	DeletedBy   string    `json:"deleted_by"`
	UserID      string    `json:"user_id"`
	DeletedAt   time.Time `json:"deleted_at"`
}

const defaultDeletionLimit = 50

// RecordDeletion appends to the audit log. ID and DeletedAt are filled in.
func (s *Store) RecordDeletion(ctx context.Context, d Deletion) (*Deletion, error) {
	if d.SiteID == "" {
		return nil, fmt.Errorf("site id is required")
	}
	if d.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	d.ID = uuid.New().String()
	d.DeletedAt = s.now().UTC().Truncate(time.Second)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO deletions (id, site_id, site_name, account_name, deleted_by, user_id, deleted_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.SiteID, d.SiteName, d.AccountName, d.DeletedBy, d.UserID, d.DeletedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert deletion: %w", err)
	}
	return &d, nil
}

// ListDeletions returns userID's entries, newest first. limit <= 0 means
// 50. An empty userID matches nothing.
func (s *Store) ListDeletions(ctx context.Context, userID string, limit int) ([]Deletion, error) {
	if userID == "" {
		return []Deletion{}, nil
	}
	if limit <= 0 {
		limit = defaultDeletionLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, site_id, site_name, account_name, deleted_by, user_id, deleted_at
         FROM deletions
         WHERE user_id = ?
         ORDER BY deleted_at DESC, rowid DESC
         LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select deletions: %w", err)
	}
	defer rows.Close()

	out := []Deletion{}
	for rows.Next() {
		var d Deletion
		var at int64
		if err := rows.Scan(&d.ID, &d.SiteID, &d.SiteName, &d.AccountName, &d.DeletedBy, &d.UserID, &at); err != nil {
			return nil, err
		}
		d.DeletedAt = time.Unix(at, 0).UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}
