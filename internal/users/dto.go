package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/veggiepos-backend/pkg/db/models"
)

// UserDTO is a cashier as returned by the auth endpoints; the password hash
// never leaves the repository layer.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateUserDTO is what registration hands to the repository. Accounts are
// active unless IsActive says otherwise.
type CreateUserDTO struct {
	Username     string
	PasswordHash string
	IsActive     *bool
}

func (c CreateUserDTO) ToModel() *models.User {
	active := c.IsActive == nil || *c.IsActive
	return &models.User{Username: c.Username, PasswordHash: c.PasswordHash, IsActive: active}
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	dto := UserDTO{ID: u.ID, Username: u.Username, IsActive: u.IsActive, CreatedAt: u.CreatedAt}
	if u.LastLoginAt != nil {
		at := u.LastLoginAt.UTC()
		dto.LastLoginAt = &at
	}
	return &dto
}
