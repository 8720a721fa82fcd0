package sqlite

import (
	"context"
	"fmt"

	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/store"
)

// ActiveRole returns the highest-ranked non-revoked role of a user.
func (s *SQLiteStore) ActiveRole(ctx context.Context, userID string) (store.Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT role FROM role_assignments WHERE user_id = ? AND revoked = 0`, userID)
	if err != nil {
		return "", fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	best := store.RoleUser
	for rows.Next() {
		var role store.Role
		if err := rows.Scan(&role); err != nil {
			return "", fmt.Errorf("scan role: %w", err)
		}
		if role.Valid() && role.Rank() > best.Rank() {
			best = role
		}
	}
	return best, rows.Err()
}

// AssignRole grants role to a user.
func (s *SQLiteStore) AssignRole(ctx context.Context, userID string, role store.Role, assignedBy string) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	query := `
		INSERT INTO role_assignments (user_id, role, assigned_by, revoked, created_at)
		VALUES (?, ?, ?, 0, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, userID, role, assignedBy, toNanos(s.now())); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

// RevokeRole marks every active assignment of role for the user as revoked.
func (s *SQLiteStore) RevokeRole(ctx context.Context, userID string, role store.Role) error {
	query := `UPDATE role_assignments SET revoked = 1 WHERE user_id = ? AND role = ? AND revoked = 0`
	if _, err := s.db.ExecContext(ctx, query, userID, role); err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	return nil
}

// CreateReport persists a moderation report.
func (s *SQLiteStore) CreateReport(ctx context.Context, r *store.Report) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	query := `
		INSERT INTO reports (room_key, message_id, reported_by, created_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, r.Room, r.MessageID, r.ReportedBy, toNanos(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	r.ID = id
	return nil
}

// ListReports lists reports filed in a room.
func (s *SQLiteStore) ListReports(ctx context.Context, room presence.RoomKey) ([]*store.Report, error) {
	query := `
		SELECT id, room_key, message_id, reported_by, created_at
		FROM reports
		WHERE room_key = ?
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query, room)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var reports []*store.Report
	for rows.Next() {
		var (
			r         store.Report
			roomKey   string
			by        string
			createdAt int64
		)
		if err := rows.Scan(&r.ID, &roomKey, &r.MessageID, &by, &createdAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.Room = presence.RoomKey(roomKey)
		r.ReportedBy = presence.Identity(by)
		r.CreatedAt = fromNanos(createdAt)
		reports = append(reports, &r)
	}
	return reports, rows.Err()
}
