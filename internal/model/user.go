package model

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     Role   `json:"role" validate:"omitempty,oneof=user organizer"`
	Phone    string `json:"phone" validate:"max=30"`
}

// LoginRequest is the payload for exchanging credentials for a token.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest edits the caller's own profile. Nil fields are kept.
type UpdateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=2,max=100"`
	Phone *string `json:"phone" validate:"omitempty,max=30"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    *User  `json:"user"`
}
