package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/AmtrakBF/FinancialTrackerApi/internal/adapter/http/dto"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/adapter/http/middleware"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/domain"
	"github.com/AmtrakBF/FinancialTrackerApi/internal/usecase"
)

// UserService defines the behavior needed by AuthHandler.
type UserService interface {
	Register(ctx context.Context, input usecase.RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, creds domain.Credentials) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Generate(user *domain.User) (string, error)
	TokenDuration() time.Duration
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	userUC   UserService
	issuer   TokenIssuer
	denylist usecase.TokenDenylist
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userUC UserService, issuer TokenIssuer, denylist usecase.TokenDenylist, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		userUC:   userUC,
		issuer:   issuer,
		denylist: denylist,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates a user.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userUC.Register(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.UserFromDomain(user))
}

// Login checks credentials and issues an access token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userUC.Authenticate(r.Context(), req.ToDomain())
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	token, err := h.issuer.Generate(user)
	if err != nil {
		writeDomainError(w, r, h.logger, domain.NewOperationError("issue token", err))
		return
	}

	writeJSON(w, http.StatusOK, dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.issuer.TokenDuration().Seconds()),
		User:        dto.UserFromDomain(user),
	})
}

// Logout revokes the token the request was authenticated with.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	if h.denylist != nil {
		if err := h.denylist.Revoke(r.Context(), claims.ID, claims.RemainingTTL(h.now())); err != nil {
			writeDomainError(w, r, h.logger, domain.NewOperationError("revoke token", err))
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	user, err := h.userUC.GetUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UserFromDomain(user))
}
