package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/infrastructure/metrics"
)

// UserUseCase handles user management operations
type UserUseCase struct {
	userRepo   UserRepository
	bcryptCost int
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// NewUserUseCase creates a new user use case
func NewUserUseCase(userRepo UserRepository, logger zerolog.Logger, metrics *metrics.Metrics) *UserUseCase {
	return &UserUseCase{
		userRepo:   userRepo,
		bcryptCost: bcrypt.DefaultCost,
		logger:     logger.With().Str("component", "user_usecase").Logger(),
		metrics:    metrics,
	}
}

// WithBcryptCost overrides the hashing cost. Tests use bcrypt.MinCost.
func (uc *UserUseCase) WithBcryptCost(cost int) *UserUseCase {
	uc.bcryptCost = cost
	return uc
}

// RegisterInput represents input for creating a user
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// Register creates a new user with hashed password
func (uc *UserUseCase) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	const op = "register user"

	if err := domain.ValidateEmail(input.Email); err != nil {
		return nil, err
	}

	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	email := domain.Credentials{Email: input.Email}.NormalizedEmail()

	existing, err := uc.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		return nil, domain.ErrEmailTaken
	case err != nil && domain.KindOf(err) != domain.ErrNotFound:
		return nil, failure(uc.logger, op, err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), uc.bcryptCost)
	if err != nil {
		return nil, failure(uc.logger, op, err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:             uuid.NewString(),
		Email:          email,
		Name:           strings.TrimSpace(input.Name),
		HashedPassword: string(hashedPassword),
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, failure(uc.logger, op, err)
	}

	// Don't return hashed password
	user.HashedPassword = ""
	return user, nil
}

// Authenticate verifies user credentials
func (uc *UserUseCase) Authenticate(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	user, err := uc.userRepo.GetByEmail(ctx, creds.NormalizedEmail())
	if err != nil {
		if domain.KindOf(err) == domain.ErrNotFound {
			uc.recordFailure("unknown_email")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, failure(uc.logger, "authenticate", err)
	}

	if !user.Active {
		uc.recordFailure("inactive")
		return nil, domain.ErrInactiveUser
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(creds.Password)); err != nil {
		uc.recordFailure("wrong_password")
		return nil, domain.ErrInvalidCredentials
	}

	if uc.metrics != nil {
		uc.metrics.AuthAttempts.WithLabelValues("success").Inc()
	}

	// Don't return hashed password
	user.HashedPassword = ""
	return user, nil
}

// VerifyCredentials authenticates creds and requires them to belong to userID.
func (uc *UserUseCase) VerifyCredentials(ctx context.Context, userID string, creds domain.Credentials) error {
	user, err := uc.Authenticate(ctx, creds)
	if err != nil {
		return err
	}

	if user.ID != userID {
		uc.recordFailure("credential_mismatch")
		return domain.ErrCredentialMismatch
	}

	return nil
}

// GetUser retrieves a user by ID
func (uc *UserUseCase) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, failure(uc.logger, "get user", err)
	}

	user.HashedPassword = ""
	return user, nil
}

func (uc *UserUseCase) recordFailure(reason string) {
	if uc.metrics != nil {
		uc.metrics.AuthAttempts.WithLabelValues("failure").Inc()
		uc.metrics.AuthFailures.WithLabelValues(reason).Inc()
	}
}
