package auth

import "github.com/google/uuid"

// SignupRequest registers a store owner together with their first store.
type SignupRequest struct {
	Username      string  `json:"username" validate:"required,username"`
	Password      string  `json:"password" validate:"required,password"`
	Name          string  `json:"name" validate:"required"`
	DOB           string  `json:"dob" validate:"required"`
	Phone         string  `json:"phone" validate:"required,phone"`
	Email         *string `json:"email" validate:"omitempty,email"`
	Marketing     bool    `json:"marketing"`
	StoreCategory *string `json:"store_category"`
	StoreName     string  `json:"store_name" validate:"required"`
	StoreAddress  *string `json:"store_address"`
}

// SignupResponse confirms a new account.
type SignupResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	UserID  uuid.UUID `json:"user_id"`
	StoreID uuid.UUID `json:"store_id"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the token pair and the owner's primary store.
type LoginResponse struct {
	Access  string    `json:"access"`
	Refresh string    `json:"refresh"`
	StoreID uuid.UUID `json:"store_id"`
	UserID  uuid.UUID `json:"user_id"`
}

type CheckUsernameRequest struct {
	Username string `json:"username" validate:"required"`
}

// CheckUsernameResponse reports whether a username is free.
type CheckUsernameResponse struct {
	IsDuplicate bool   `json:"is_duplicate"`
	Message     string `json:"message"`
}

type ResetPasswordRequest struct {
	Phone       string `json:"phone" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,password"`
}
