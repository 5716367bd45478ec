package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"whatsable-relay/internal/models"
)

// SettingsRepository defines data access for per-user settings
type SettingsRepository interface {
	Get(ctx context.Context, userID string) (*models.UserSettings, error)
	Upsert(ctx context.Context, settings *models.UserSettings, updateAPIKey bool) error
	UpsertToken(ctx context.Context, userID, mondayToken string) error
}

type settingsRepository struct {
	db  *Database
	now func() time.Time
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(db *Database) SettingsRepository {
	return &settingsRepository{db: db, now: time.Now}
}

// Get returns the user's settings, or nil when the user has never saved any
func (r *settingsRepository) Get(ctx context.Context, userID string) (*models.UserSettings, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID cannot be empty")
	}

	query := r.db.Rebind(`
		SELECT user_id, monday_token, whatsable_api_key, default_template,
			phone_column_id, settings, created_at, updated_at
		FROM user_settings
		WHERE user_id = ?
	`)

	s := &models.UserSettings{}
	err := r.db.GetDB().QueryRowContext(ctx, query, userID).Scan(
		&s.UserID,
		&s.MondayToken,
		&s.WhatsAbleAPIKey,
		&s.DefaultTemplate,
		&s.PhoneColumnID,
		&s.Settings,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user settings: %w", err)
	}

	return s, nil
}

// Upsert inserts or replaces the user's settings row. The stored API key is only
// overwritten when updateAPIKey is set; an empty token keeps the stored one.
func (r *settingsRepository) Upsert(ctx context.Context, s *models.UserSettings, updateAPIKey bool) error {
	if s == nil {
		return fmt.Errorf("settings cannot be nil")
	}
	if s.UserID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}

	if s.PhoneColumnID == "" {
		s.PhoneColumnID = models.DefaultPhoneColumnID
	}
	if s.Settings == "" {
		s.Settings = "{}"
	}
	now := r.now().Unix()
	if s.CreatedAt == 0 {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	set := `
			monday_token = CASE WHEN excluded.monday_token <> '' THEN excluded.monday_token ELSE user_settings.monday_token END,
			default_template = excluded.default_template,
			phone_column_id = excluded.phone_column_id,
			settings = excluded.settings,
			updated_at = excluded.updated_at`
	if updateAPIKey {
		set += `,
			whatsable_api_key = excluded.whatsable_api_key`
	}

	query := r.db.Rebind(`
		INSERT INTO user_settings (user_id, monday_token, whatsable_api_key, default_template,
			phone_column_id, settings, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET` + set)

	_, err := r.db.GetDB().ExecContext(ctx, query,
		s.UserID,
		s.MondayToken,
		s.WhatsAbleAPIKey,
		s.DefaultTemplate,
		s.PhoneColumnID,
		s.Settings,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user settings: %w", err)
	}

	return nil
}

// UpsertToken records the user's latest platform access token, creating a
// default settings row if none exists yet
func (r *settingsRepository) UpsertToken(ctx context.Context, userID, mondayToken string) error {
	if userID == "" {
		return fmt.Errorf("user ID cannot be empty")
	}
	if mondayToken == "" {
		return fmt.Errorf("monday token cannot be empty")
	}

	now := r.now().Unix()
	query := r.db.Rebind(`
		INSERT INTO user_settings (user_id, monday_token, phone_column_id, settings, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			monday_token = excluded.monday_token,
			updated_at = excluded.updated_at
	`)

	_, err := r.db.GetDB().ExecContext(ctx, query, userID, mondayToken, models.DefaultPhoneColumnID, "{}", now, now)
	if err != nil {
		return fmt.Errorf("failed to store monday token: %w", err)
	}
	return nil
}
