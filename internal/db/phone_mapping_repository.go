package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"whatsable-relay/internal/models"

	"github.com/google/uuid"
)

// PhoneMappingRepository defines data access for phone -> item mappings
type PhoneMappingRepository interface {
	Upsert(ctx context.Context, mapping *models.PhoneMapping) error
	FindLatestByPhone(ctx context.Context, phone string) (*models.PhoneMapping, error)
	FindByPhoneAndUser(ctx context.Context, phone, userID string) (*models.PhoneMapping, error)
}

type phoneMappingRepository struct {
	db  *Database
	now func() time.Time
}

// NewPhoneMappingRepository creates a new PhoneMappingRepository
func NewPhoneMappingRepository(db *Database) PhoneMappingRepository {
	return &phoneMappingRepository{db: db, now: time.Now}
}

const phoneMappingColumns = `id, phone, item_id, board_id, user_id, monday_token, created_at, updated_at`

// Upsert stores the mapping; an existing row for (phone, user_id) is overwritten
func (r *phoneMappingRepository) Upsert(ctx context.Context, m *models.PhoneMapping) error {
	if m == nil {
		return fmt.Errorf("mapping cannot be nil")
	}
	if m.Phone == "" || m.UserID == "" || m.ItemID == "" {
		return fmt.Errorf("phone, user ID and item ID are required")
	}

	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := r.now().Unix()
	if m.CreatedAt == 0 {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	query := r.db.Rebind(`
		INSERT INTO phone_mapping (` + phoneMappingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (phone, user_id) DO UPDATE SET
			item_id = excluded.item_id,
			board_id = excluded.board_id,
			monday_token = excluded.monday_token,
			updated_at = excluded.updated_at
	`)

	_, err := r.db.GetDB().ExecContext(ctx, query,
		m.ID,
		m.Phone,
		m.ItemID,
		m.BoardID,
		m.UserID,
		m.MondayToken,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert phone mapping: %w", err)
	}
	return nil
}

// FindLatestByPhone returns the most recently written mapping for the phone
// across all users, or nil when the phone is unknown
func (r *phoneMappingRepository) FindLatestByPhone(ctx context.Context, phone string) (*models.PhoneMapping, error) {
	if phone == "" {
		return nil, fmt.Errorf("phone cannot be empty")
	}

	query := r.db.Rebind(`
		SELECT ` + phoneMappingColumns + `
		FROM phone_mapping
		WHERE phone = ?
		ORDER BY updated_at DESC
		LIMIT 1
	`)
	return r.scanOne(r.db.GetDB().QueryRowContext(ctx, query, phone))
}

// FindByPhoneAndUser returns the mapping for one user, or nil
func (r *phoneMappingRepository) FindByPhoneAndUser(ctx context.Context, phone, userID string) (*models.PhoneMapping, error) {
	if phone == "" || userID == "" {
		return nil, fmt.Errorf("phone and user ID are required")
	}

	query := r.db.Rebind(`
		SELECT ` + phoneMappingColumns + `
		FROM phone_mapping
		WHERE phone = ? AND user_id = ?
	`)
	return r.scanOne(r.db.GetDB().QueryRowContext(ctx, query, phone, userID))
}

func (r *phoneMappingRepository) scanOne(row *sql.Row) (*models.PhoneMapping, error) {
	m := &models.PhoneMapping{}
	err := row.Scan(
		&m.ID,
		&m.Phone,
		&m.ItemID,
		&m.BoardID,
		&m.UserID,
		&m.MondayToken,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get phone mapping: %w", err)
	}
	return m, nil
}
