package users

import (
	"time"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/types"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		LastLoginAt: u.LastLoginAt,
	}
}

// SessionInfo renders the authenticated view of the user.
func (u *UserDTO) SessionInfo() types.SessionInfo {
	if u == nil {
		return types.SessionInfo{}
	}
	return types.SessionInfo{Authenticated: true, UserID: u.ID, Email: u.Email}
}
