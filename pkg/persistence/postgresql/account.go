package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flowlineio/flowline/pkg/models"
	"github.com/flowlineio/flowline/pkg/persistence"
)

// AccountRepository handles user and group directory operations.
type AccountRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *AccountRepository) UserByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT
			id
		  , account_id
		  , email
		  , name
		  , status
		FROM users
		WHERE id = $1
	`

	var user models.User

	err := r.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &user.AccountID, &user.Email, &user.Name, &user.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

func (r *AccountRepository) UsersByAccount(ctx context.Context, accountID string) ([]*models.User, error) {
	query := `
		SELECT
			id
		  , account_id
		  , email
		  , name
		  , status
		FROM users
		WHERE account_id = $1
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	users := make([]*models.User, 0)

	for rows.Next() {
		var user models.User

		err := rows.Scan(&user.ID, &user.AccountID, &user.Email, &user.Name, &user.Status)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		users = append(users, &user)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func (r *AccountRepository) GroupsByAccount(ctx context.Context, accountID string) ([]*models.Group, error) {
	query := `
		SELECT
			id
		  , account_id
		  , name
		  , user_ids
		FROM groups
		WHERE account_id = $1
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	groups := make([]*models.Group, 0)

	for rows.Next() {
		var (
			group       models.Group
			userIDsJSON []byte
		)

		err := rows.Scan(&group.ID, &group.AccountID, &group.Name, &userIDsJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}

		err = json.Unmarshal(userIDsJSON, &group.UserIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to decode group members: %w", err)
		}

		groups = append(groups, &group)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}

	return groups, nil
}

func (r *AccountRepository) SaveUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, account_id, email, name, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			account_id = EXCLUDED.account_id,
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			status = EXCLUDED.status
	`

	_, err := r.db.ExecContext(ctx, query, user.ID, user.AccountID, user.Email, user.Name, user.Status)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

func (r *AccountRepository) SaveGroup(ctx context.Context, group *models.Group) error {
	userIDsJSON, err := json.Marshal(group.UserIDs)
	if err != nil {
		return fmt.Errorf("failed to encode group members: %w", err)
	}

	query := `
		INSERT INTO groups (id, account_id, name, user_ids)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			account_id = EXCLUDED.account_id,
			name = EXCLUDED.name,
			user_ids = EXCLUDED.user_ids
	`

	_, err = r.db.ExecContext(ctx, query, group.ID, group.AccountID, group.Name, userIDsJSON)
	if err != nil {
		return fmt.Errorf("failed to save group: %w", err)
	}

	return nil
}
