package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/store"
)

const (
	stateDelivered = "delivered"
	statePending   = "pending"
)

const messageColumns = `id, room_key, kind, sender, sender_label, body, sent_at, expires_at`

// SaveMessage writes the message row and its recipient snapshot in one transaction.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	query := `
		INSERT INTO messages (room_key, kind, sender, sender_label, body, sent_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query,
		msg.Room, msg.Kind, msg.Sender, msg.SenderLabel, msg.Body,
		toNanos(msg.SentAt), toNanos(msg.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	recipientQuery := `
		INSERT INTO message_recipients (message_id, identity, state)
		VALUES (?, ?, ?)
		ON CONFLICT (message_id, identity) DO UPDATE SET state = excluded.state
	`
	for _, identity := range msg.DeliveredTo {
		if _, err := tx.ExecContext(ctx, recipientQuery, id, identity, stateDelivered); err != nil {
			return fmt.Errorf("insert delivered recipient: %w", err)
		}
	}
	for _, identity := range msg.PendingFor {
		if _, err := tx.ExecContext(ctx, recipientQuery, id, identity, statePending); err != nil {
			return fmt.Errorf("insert pending recipient: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	msg.ID = id
	return nil
}

// GetMessage retrieves a message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, id int64) (*store.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = ?`
	msg, err := scanMessage(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message %d: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	if err := s.loadRecipients(ctx, []*store.Message{msg}); err != nil {
		return nil, err
	}
	return msg, nil
}

// MarkDelivered records that identity received message id.
func (s *SQLiteStore) MarkDelivered(ctx context.Context, id int64, identity presence.Identity) error {
	return s.markRecipient(ctx, id, identity, stateDelivered)
}

// MarkPending records that identity still has to receive message id.
func (s *SQLiteStore) MarkPending(ctx context.Context, id int64, identity presence.Identity) error {
	return s.markRecipient(ctx, id, identity, statePending)
}

func (s *SQLiteStore) markRecipient(ctx context.Context, id int64, identity presence.Identity, state string) error {
	query := `
		INSERT INTO message_recipients (message_id, identity, state)
		SELECT id, ?, ? FROM messages WHERE id = ?
		ON CONFLICT (message_id, identity) DO UPDATE SET state = excluded.state
	`
	result, err := s.db.ExecContext(ctx, query, identity, state, id)
	if err != nil {
		return fmt.Errorf("mark %s %s: %w", identity, state, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("message %d: %w", id, store.ErrNotFound)
	}
	return nil
}

// PendingMessages lists messages in room still pending for identity.
func (s *SQLiteStore) PendingMessages(ctx context.Context, room presence.RoomKey, identity presence.Identity, now time.Time) ([]*store.Message, error) {
	query := `
		SELECT m.id, m.room_key, m.kind, m.sender, m.sender_label, m.body, m.sent_at, m.expires_at
		FROM messages m
		JOIN message_recipients r ON r.message_id = m.id
		WHERE m.room_key = ? AND r.identity = ? AND r.state = 'pending' AND m.expires_at > ?
		ORDER BY m.sent_at, m.id
	`
	return s.queryMessages(ctx, query, room, identity, toNanos(now))
}

// RoomHistory returns the newest limit messages since the given time, oldest first.
func (s *SQLiteStore) RoomHistory(ctx context.Context, room presence.RoomKey, since time.Time, limit int, now time.Time) ([]*store.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := `
		SELECT ` + messageColumns + ` FROM (
			SELECT ` + messageColumns + ` FROM messages
			WHERE room_key = ? AND sent_at >= ? AND expires_at > ?
			ORDER BY sent_at DESC, id DESC
			LIMIT ?
		)
		ORDER BY sent_at, id
	`
	return s.queryMessages(ctx, query, room, toNanos(since), toNanos(now), limit)
}

// DeleteMessage removes a message and its recipient rows.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	result, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("message %d: %w", id, store.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM message_recipients WHERE message_id = ?`, id); err != nil {
		return fmt.Errorf("delete recipients: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// PurgeRoom removes every room message sent at or after since.
func (s *SQLiteStore) PurgeRoom(ctx context.Context, room presence.RoomKey, since time.Time) (int64, error) {
	return s.deleteWhere(ctx, `room_key = ? AND sent_at >= ?`, room, toNanos(since))
}

// DeleteExpired evicts messages whose retention window has passed.
func (s *SQLiteStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.deleteWhere(ctx, `expires_at <= ?`, toNanos(now))
}

func (s *SQLiteStore) deleteWhere(ctx context.Context, cond string, args ...any) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	recipients := `DELETE FROM message_recipients WHERE message_id IN (SELECT id FROM messages WHERE ` + cond + `)`
	if _, err := tx.ExecContext(ctx, recipients, args...); err != nil {
		return 0, fmt.Errorf("delete recipients: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE `+cond, args...)
	if err != nil {
		return 0, fmt.Errorf("delete messages: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) queryMessages(ctx context.Context, query string, args ...any) ([]*store.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []*store.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.loadRecipients(ctx, msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// recipientBatch bounds the ids bound into one IN list, well under SQLite's
// host parameter limit.
const recipientBatch = 500

// loadRecipients fills DeliveredTo and PendingFor for msgs, one query per
// batch of recipientBatch messages.
func (s *SQLiteStore) loadRecipients(ctx context.Context, msgs []*store.Message) error {
	for _, batch := range lo.Chunk(msgs, recipientBatch) {
		if err := s.loadRecipientBatch(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) loadRecipientBatch(ctx context.Context, msgs []*store.Message) error {
	byID := make(map[int64]*store.Message, len(msgs))
	args := make([]any, 0, len(msgs))
	for _, m := range msgs {
		byID[m.ID] = m
		args = append(args, m.ID)
	}

	query := `
		SELECT message_id, identity, state FROM message_recipients
		WHERE message_id IN (` + strings.TrimSuffix(strings.Repeat("?,", len(args)), ",") + `)
		ORDER BY message_id, identity
	`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query recipients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id       int64
			identity string
			state    string
		)
		if err := rows.Scan(&id, &identity, &state); err != nil {
			return fmt.Errorf("scan recipient: %w", err)
		}
		m := byID[id]
		if state == statePending {
			m.PendingFor = append(m.PendingFor, presence.Identity(identity))
		} else {
			m.DeliveredTo = append(m.DeliveredTo, presence.Identity(identity))
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*store.Message, error) {
	var (
		msg       store.Message
		room      string
		kind      string
		sender    string
		sentAt    int64
		expiresAt int64
	)
	if err := row.Scan(&msg.ID, &room, &kind, &sender, &msg.SenderLabel, &msg.Body, &sentAt, &expiresAt); err != nil {
		return nil, err
	}
	msg.Room = presence.RoomKey(room)
	msg.Kind = presence.RoomKind(kind)
	msg.Sender = presence.Identity(sender)
	msg.SentAt = fromNanos(sentAt)
	msg.ExpiresAt = fromNanos(expiresAt)
	return &msg, nil
}
