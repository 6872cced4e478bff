package file

import (
	"context"
	"path/filepath"

	"github.com/flowlineio/flowline/pkg/models"
	"github.com/flowlineio/flowline/pkg/persistence"
)

// AccountRepository stores users and groups as JSON documents under users/
// and groups/.
type AccountRepository struct {
	store *store
}

func (r *AccountRepository) UserByID(_ context.Context, id string) (*models.User, error) {
	var user models.User

	found, err := r.store.read(filepath.Join("users", id+".json"), &user)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, persistence.ErrUserNotFound
	}

	return &user, nil
}

func (r *AccountRepository) UsersByAccount(_ context.Context, accountID string) ([]*models.User, error) {
	ids, err := r.store.list("users")
	if err != nil {
		return nil, err
	}

	var out []*models.User

	for _, id := range ids {
		var user models.User

		found, err := r.store.read(filepath.Join("users", id+".json"), &user)
		if err != nil {
			return nil, err
		}

		if found && user.AccountID == accountID {
			out = append(out, &user)
		}
	}

	return out, nil
}

func (r *AccountRepository) GroupsByAccount(_ context.Context, accountID string) ([]*models.Group, error) {
	ids, err := r.store.list("groups")
	if err != nil {
		return nil, err
	}

	var out []*models.Group

	for _, id := range ids {
		var group models.Group

		found, err := r.store.read(filepath.Join("groups", id+".json"), &group)
		if err != nil {
			return nil, err
		}

		if found && group.AccountID == accountID {
			out = append(out, &group)
		}
	}

	return out, nil
}

func (r *AccountRepository) SaveUser(_ context.Context, user *models.User) error {
	return r.store.write(filepath.Join("users", user.ID+".json"), user)
}

func (r *AccountRepository) SaveGroup(_ context.Context, group *models.Group) error {
	return r.store.write(filepath.Join("groups", group.ID+".json"), group)
}
