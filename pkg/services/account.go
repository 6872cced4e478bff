package services

import (
	"context"
	"fmt"
	"time"

	"github.com/flowlineio/flowline/pkg/engine"
	"github.com/flowlineio/flowline/pkg/models"
	"github.com/flowlineio/flowline/pkg/persistence"
	"github.com/flowlineio/flowline/pkg/validation"
)

// Account exposes the user and group directory.
type Account struct {
	persistence persistence.Persistence
}

// NewAccount creates a new account directory service.
func NewAccount(persistence persistence.Persistence) *Account {
	return &Account{persistence: persistence}
}

func (a *Account) Users(ctx context.Context, accountID string) ([]*models.User, error) {
	return a.persistence.Accounts().UsersByAccount(ctx, accountID)
}

func (a *Account) Groups(ctx context.Context, accountID string) ([]*models.Group, error) {
	return a.persistence.Accounts().GroupsByAccount(ctx, accountID)
}

func (a *Account) SaveUser(ctx context.Context, user *models.User) error {
	return a.persistence.Accounts().SaveUser(ctx, user)
}

func (a *Account) SaveGroup(ctx context.Context, group *models.Group) error {
	return a.persistence.Accounts().SaveGroup(ctx, group)
}

// directory loads the account's users and groups once and shapes them for
// both the validator and the engine.
func directory(ctx context.Context, p persistence.Persistence, accountID string) (validation.Account, engine.Env, error) {
	users, err := p.Accounts().UsersByAccount(ctx, accountID)
	if err != nil {
		return validation.Account{}, engine.Env{}, fmt.Errorf("failed to load users: %w", err)
	}

	groups, err := p.Accounts().GroupsByAccount(ctx, accountID)
	if err != nil {
		return validation.Account{}, engine.Env{}, fmt.Errorf("failed to load groups: %w", err)
	}

	account := validation.Account{
		ID:     accountID,
		Users:  make(map[string]*models.User, len(users)),
		Groups: make(map[string]*models.Group, len(groups)),
	}

	env := engine.Env{
		Now:    time.Now().UTC(),
		Users:  make(map[string]*models.User, len(users)),
		Groups: make(map[string][]string, len(groups)),
	}

	for _, user := range users {
		account.Users[user.ID] = user
		env.Users[user.ID] = user
	}

	for _, group := range groups {
		account.Groups[group.ID] = group
		env.Groups[group.ID] = group.UserIDs
	}

	return account, env, nil
}
