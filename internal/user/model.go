package user

import (
	"time"

	"github.com/samber/mo"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Role         auth.Role `json:"role"`
	IsBanned     bool      `json:"is_banned"`
	CanChat      bool      `json:"can_chat"`
	CanOrder     bool      `json:"can_order"`
	CanReview    bool      `json:"can_review"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Patch is a partial profile update; absent options leave the column untouched.
type Patch struct {
	FullName     mo.Option[string]
	Phone        mo.Option[string]
	AvatarURL    mo.Option[string]
	PasswordHash mo.Option[string]
}

// Capabilities is a partial update of the per-action moderation toggles.
type Capabilities struct {
	CanChat   mo.Option[bool]
	CanOrder  mo.Option[bool]
	CanReview mo.Option[bool]
}

type Query struct {
	Q      string
	Role   auth.Role
	Limit  int
	Offset int
}

// RegisterRequest payload of registration.
// swagger:model RegisterRequest
type RegisterRequest struct {
	Email    string `json:"email"     binding:"required,email"  example:"asha@example.com"`
	Password string `json:"password"  binding:"required,min=8"  example:"s3cure-pass"`
	FullName string `json:"full_name" binding:"required,max=120" example:"Asha Gurung"`
}

// LoginRequest payload of login.
// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest payload of partial profile update.
// swagger:model UpdateProfileRequest
type UpdateProfileRequest struct {
	FullName  *string `json:"full_name"  binding:"omitempty,min=1,max=120"`
	Phone     *string `json:"phone"      binding:"omitempty,max=32"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,url"`
	Password  *string `json:"password"   binding:"omitempty,min=8"`
}

// AuthResponse is returned by registration and login.
// swagger:model AuthResponse
type AuthResponse struct {
	User   *User       `json:"user"`
	Tokens auth.Tokens `json:"tokens"`
}

// RefreshRequest payload of token refresh.
// swagger:model RefreshRequest
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// BanRequest payload of admin ban toggle.
// swagger:model BanRequest
type BanRequest struct {
	Banned *bool `json:"banned" binding:"required" example:"true"`
}

// CapabilitiesRequest payload of admin capability update; absent fields are
// left unchanged.
// swagger:model CapabilitiesRequest
type CapabilitiesRequest struct {
	CanChat   *bool `json:"can_chat"`
	CanOrder  *bool `json:"can_order"`
	CanReview *bool `json:"can_review"`
}

// SetRoleRequest payload of admin role change.
// swagger:model SetRoleRequest
type SetRoleRequest struct {
	Role auth.Role `json:"role" binding:"required,oneof=ADMIN VENDOR CUSTOMER" example:"VENDOR"`
}
