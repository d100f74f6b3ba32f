package database

import (
	"context"
	"fmt"
	"strconv"

	"github.com/example/sheetbot/pkg/models"
)

// UserRepository handles database operations for the user directory.
// The directory maps Telegram user IDs to display names so leaderboards
// and race legends don't need a chat-platform lookup per row.
type UserRepository struct{}

// NewUserRepository creates a new repository instance
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// Upsert records a user, refreshing the stored names on every call.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, username, first_name, display_name)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				username = excluded.username,
				first_name = excluded.first_name,
				display_name = excluded.display_name,
				updated_at = CURRENT_TIMESTAMP`
	_, err := DB.ExecContext(ctx, query, user.ID, user.Username, user.FirstName, user.DisplayName)
	if err != nil {
		return fmt.Errorf("failed to upsert user %d: %v", user.ID, err)
	}
	return nil
}

// GetByID returns a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	query := "SELECT id, username, first_name, display_name FROM users WHERE id = ?"
	err := DB.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.FirstName,
		&user.DisplayName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %v", err)
	}
	return &user, nil
}

// DisplayName resolves a user ID to something printable, falling back
// to the numeric ID for users the bot has never seen.
func (r *UserRepository) DisplayName(ctx context.Context, id int64) string {
	user, err := r.GetByID(ctx, id)
	if err != nil || user.DisplayName == "" {
		return strconv.FormatInt(id, 10)
	}
	return user.DisplayName
}
