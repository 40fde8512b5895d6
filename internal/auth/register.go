package auth

import (
	"context"
	"strings"

	"github.com/angelmondragon/veggiepos-backend/internal/users"
	"github.com/angelmondragon/veggiepos-backend/pkg/config"
	"github.com/angelmondragon/veggiepos-backend/pkg/db"
	"github.com/angelmondragon/veggiepos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/veggiepos-backend/pkg/errors"
	"github.com/angelmondragon/veggiepos-backend/pkg/security"
)

// RegisterOutcome reports what a registration did. An existing username is
// an outcome, not an error.
type RegisterOutcome string

const (
	RegisterCreated RegisterOutcome = "created"
	RegisterExists  RegisterOutcome = "exists"
)

const minPasswordLength = 4

// RegisterRequest contains the payload required to create a cashier account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
}

// RegisterService handles cashier account creation.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (RegisterOutcome, error)
}

type registerUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	UserRepo       registerUserRepository
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	users       registerUserRepository
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user repository required")
	}
	return &registerService{
		users:       params.UserRepo,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (RegisterOutcome, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if len(req.Password) < minPasswordLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "password is too short").
			WithDetails(map[string]any{"min_length": minPasswordLength})
	}

	existing, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check username")
	}
	if existing != nil {
		return RegisterExists, nil
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	// A concurrent registration of the same name loses on the unique index.
	if _, err := s.users.Create(ctx, users.CreateUserDTO{
		Username:     username,
		PasswordHash: passwordHash,
	}); err != nil {
		if db.IsUniqueViolation(err, "") {
			return RegisterExists, nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return RegisterCreated, nil
}
