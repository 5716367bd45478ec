package db

import (
	"context"
	"fmt"
	"time"

	"whatsable-relay/internal/models"

	"github.com/google/uuid"
)

// MessageLogRepository defines the append-only audit log
type MessageLogRepository interface {
	Append(ctx context.Context, entry *models.MessageLog) error
	ListByPhone(ctx context.Context, phone string, limit int) ([]*models.MessageLog, error)
}

type messageLogRepository struct {
	db  *Database
	now func() time.Time
}

// NewMessageLogRepository creates a new MessageLogRepository
func NewMessageLogRepository(db *Database) MessageLogRepository {
	return &messageLogRepository{db: db, now: time.Now}
}

// Append writes one audit row
func (r *messageLogRepository) Append(ctx context.Context, e *models.MessageLog) error {
	if e == nil {
		return fmt.Errorf("log entry cannot be nil")
	}
	if e.Phone == "" {
		return fmt.Errorf("phone is required")
	}
	if e.Direction != models.DirectionOutgoing && e.Direction != models.DirectionIncoming {
		return fmt.Errorf("invalid direction %q", e.Direction)
	}

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Status == "" {
		e.Status = models.StatusSent
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = r.now().Unix()
	}

	query := r.db.Rebind(`
		INSERT INTO message_log (id, phone, message, direction, item_id, board_id, message_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.GetDB().ExecContext(ctx, query,
		e.ID,
		e.Phone,
		e.Message,
		string(e.Direction),
		e.ItemID,
		e.BoardID,
		e.MessageID,
		e.Status,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append message log: %w", err)
	}
	return nil
}

// ListByPhone returns the newest entries for a phone first
func (r *messageLogRepository) ListByPhone(ctx context.Context, phone string, limit int) ([]*models.MessageLog, error) {
	if phone == "" {
		return nil, fmt.Errorf("phone is required")
	}
	if limit <= 0 {
		limit = 100
	}

	query := r.db.Rebind(`
		SELECT id, phone, message, direction, item_id, board_id, message_id, status, created_at
		FROM message_log
		WHERE phone = ?
		ORDER BY created_at DESC
		LIMIT ?
	`)

	rows, err := r.db.GetDB().QueryContext(ctx, query, phone, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list message log: %w", err)
	}
	defer rows.Close()

	var entries []*models.MessageLog
	for rows.Next() {
		e := &models.MessageLog{}
		var direction string
		if err := rows.Scan(&e.ID, &e.Phone, &e.Message, &direction, &e.ItemID, &e.BoardID, &e.MessageID, &e.Status, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Direction = models.Direction(direction)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
