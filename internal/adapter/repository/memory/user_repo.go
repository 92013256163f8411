package memory

import (
	"context"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

// UserRepository implements usecase.UserRepository in memory.
type UserRepository struct {
	store *Store
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

// Create stores a user. Emails are unique.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.store.view(ctx, func() error {
		for _, u := range r.store.users {
			if u.Email == user.Email {
				return domain.ErrEmailTaken
			}
		}

		r.store.users[user.ID] = *user
		return nil
	})
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user *domain.User

	err := r.store.view(ctx, func() error {
		u, ok := r.store.users[id]
		if !ok {
			return domain.ErrUserNotFound
		}
		user = &u
		return nil
	})

	return user, err
}

// GetByEmail retrieves a user by normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user *domain.User

	err := r.store.view(ctx, func() error {
		for _, u := range r.store.users {
			if u.Email == email {
				u := u
				user = &u
				return nil
			}
		}
		return domain.ErrUserNotFound
	})

	return user, err
}

var _ usecase.UserRepository = (*UserRepository)(nil)
