package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/store"
)

// GetRoom retrieves a room by key.
func (s *SQLiteStore) GetRoom(ctx context.Context, key presence.RoomKey) (*store.Room, error) {
	query := `
		SELECT room_key, kind, city, name, display_name, active, slow_mode, created_at
		FROM rooms
		WHERE room_key = ?
	`
	var (
		room      store.Room
		roomKey   string
		kind      string
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, query, key).Scan(
		&roomKey,
		&kind,
		&room.City,
		&room.Name,
		&room.DisplayName,
		&room.Active,
		&room.SlowMode,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %s: %w", key, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query room: %w", err)
	}
	room.Key = presence.RoomKey(roomKey)
	room.Kind = presence.RoomKind(kind)
	room.CreatedAt = fromNanos(createdAt)
	return &room, nil
}

// GetOrCreateRoom inserts the room if missing and reads it back.
func (s *SQLiteStore) GetOrCreateRoom(ctx context.Context, key presence.RoomKey) (*store.Room, bool, error) {
	query := `
		INSERT OR IGNORE INTO rooms (room_key, kind, city, name, display_name, active, slow_mode, created_at)
		VALUES (?, ?, ?, ?, ?, 1, 0, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		key, key.Kind(), key.City(), key.Name(), key.DisplayName(), toNanos(s.now()),
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert room: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	room, err := s.GetRoom(ctx, key)
	if err != nil {
		return nil, false, err
	}
	return room, n == 1, nil
}

// ListRoomKeys lists all rooms ordered by key.
func (s *SQLiteStore) ListRoomKeys(ctx context.Context) ([]presence.RoomKey, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT room_key FROM rooms ORDER BY room_key`)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var keys []presence.RoomKey
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		keys = append(keys, presence.RoomKey(key))
	}
	return keys, rows.Err()
}

// SetRoomActive enables or disables a room.
func (s *SQLiteStore) SetRoomActive(ctx context.Context, key presence.RoomKey, active bool) error {
	result, err := s.db.ExecContext(ctx, `UPDATE rooms SET active = ? WHERE room_key = ?`, boolToInt(active), key)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	return requireRow(result, key)
}

// ToggleSlowMode flips the slow-mode flag of a room.
func (s *SQLiteStore) ToggleSlowMode(ctx context.Context, key presence.RoomKey) (bool, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE rooms SET slow_mode = 1 - slow_mode WHERE room_key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("toggle slow mode: %w", err)
	}
	if err := requireRow(result, key); err != nil {
		return false, err
	}

	var enabled bool
	if err := s.db.QueryRowContext(ctx, `SELECT slow_mode FROM rooms WHERE room_key = ?`, key).Scan(&enabled); err != nil {
		return false, fmt.Errorf("query slow mode: %w", err)
	}
	return enabled, nil
}

// AddMember records durable membership of identity in a room.
func (s *SQLiteStore) AddMember(ctx context.Context, key presence.RoomKey, identity presence.Identity) error {
	query := `
		INSERT OR IGNORE INTO room_members (room_key, identity, joined_at)
		VALUES (?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, key, identity, toNanos(s.now())); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// RemoveMember drops durable membership of identity in a room.
func (s *SQLiteStore) RemoveMember(ctx context.Context, key presence.RoomKey, identity presence.Identity) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM room_members WHERE room_key = ? AND identity = ?`, key, identity); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

// ListMembers lists durable members of a room.
func (s *SQLiteStore) ListMembers(ctx context.Context, key presence.RoomKey) ([]presence.Identity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT identity FROM room_members WHERE room_key = ? ORDER BY identity`, key)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []presence.Identity
	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, presence.Identity(identity))
	}
	return members, rows.Err()
}

// IsMember checks durable membership.
func (s *SQLiteStore) IsMember(ctx context.Context, key presence.RoomKey, identity presence.Identity) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM room_members WHERE room_key = ? AND identity = ?)`
	if err := s.db.QueryRowContext(ctx, query, key, identity).Scan(&exists); err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return exists, nil
}

// BanIdentity bans identity from a room. Banning twice keeps the first record.
func (s *SQLiteStore) BanIdentity(ctx context.Context, key presence.RoomKey, identity, bannedBy presence.Identity) error {
	query := `
		INSERT OR IGNORE INTO room_bans (room_key, identity, banned_by, created_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, key, identity, bannedBy, toNanos(s.now())); err != nil {
		return fmt.Errorf("ban identity: %w", err)
	}
	return nil
}

// IsBanned checks whether identity is banned from a room.
func (s *SQLiteStore) IsBanned(ctx context.Context, key presence.RoomKey, identity presence.Identity) (bool, error) {
	var banned bool
	query := `SELECT EXISTS(SELECT 1 FROM room_bans WHERE room_key = ? AND identity = ?)`
	if err := s.db.QueryRowContext(ctx, query, key, identity).Scan(&banned); err != nil {
		return false, fmt.Errorf("check ban: %w", err)
	}
	return banned, nil
}

func requireRow(result sql.Result, key presence.RoomKey) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("room %s: %w", key, store.ErrNotFound)
	}
	return nil
}
