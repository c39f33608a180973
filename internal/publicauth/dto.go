package publicauth

import "github.com/google/uuid"

// SignupRequest registers a staff member of an existing public.
type SignupRequest struct {
	Username   string  `json:"username" validate:"required,username"`
	Password   string  `json:"password" validate:"required,password"`
	Name       string  `json:"name" validate:"required"`
	DOB        string  `json:"dob" validate:"required"`
	Phone      string  `json:"phone" validate:"required,phone"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Marketing  bool    `json:"marketing"`
	PublicID   string  `json:"public_id"`
	Department string  `json:"department"`
}

type SignupResponse struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	UserID       uuid.UUID `json:"user_id"`
	PublicID     uuid.UUID `json:"public_id"`
	DepartmentID uuid.UUID `json:"department_id"`
}

// LoginResponse carries the token pair and the staff member's public.
type LoginResponse struct {
	Access   string    `json:"access"`
	Refresh  string    `json:"refresh"`
	PublicID uuid.UUID `json:"public_id"`
	UserID   uuid.UUID `json:"user_id"`
}
