package memory

import (
	"context"
	"strings"

	"propledger/internal/domain/entity"
	domainerrors "propledger/internal/domain/errors"

	"github.com/google/uuid"
)

type userRepository struct {
	v view
}

func (repo *userRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	var found *entity.User
	err := repo.v.read(func(st *state) error {
		user, ok := st.users[id]
		if !ok {
			return domainerrors.ErrUserNotFound
		}
		found = &user

		return nil
	})

	return found, err
}

func (repo *userRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	var found *entity.User
	err := repo.v.read(func(st *state) error {
		for _, user := range st.users {
			if strings.EqualFold(user.Email, email) {
				found = &user

				return nil
			}
		}

		return domainerrors.ErrUserNotFound
	})

	return found, err
}

func (repo *userRepository) Create(_ context.Context, user *entity.User) error {
	return repo.v.write(func(st *state) error {
		if _, ok := st.users[user.ID]; ok {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("id or email already exists")
		}
		if emailTaken(st, user.ID, user.Email) {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("id or email already exists")
		}

		now := repo.v.now()
		user.CreatedAt = now
		user.UpdatedAt = now
		st.users[user.ID] = *user

		return nil
	})
}

func (repo *userRepository) Update(_ context.Context, user *entity.User) error {
	return repo.v.write(func(st *state) error {
		existing, ok := st.users[user.ID]
		if !ok {
			return domainerrors.ErrUserNotFound
		}
		if emailTaken(st, user.ID, user.Email) {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("email already exists")
		}

		user.CreatedAt = existing.CreatedAt
		user.UpdatedAt = repo.v.now()
		st.users[user.ID] = *user

		return nil
	})
}

func emailTaken(st *state, id uuid.UUID, email string) bool {
	for otherID, other := range st.users {
		if otherID != id && strings.EqualFold(other.Email, email) {
			return true
		}
	}

	return false
}
