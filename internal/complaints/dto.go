package complaints

import (
	"time"

	"github.com/google/uuid"

	"github.com/leanai/mumul-backend/pkg/db/models"
	"github.com/leanai/mumul-backend/pkg/enums"
)

// CreateRequest is the citizen complaint form.
type CreateRequest struct {
	Slug       string  `json:"slug"`
	Department string  `json:"department"`
	Name       string  `json:"name" validate:"required"`
	BirthDate  string  `json:"birth_date" validate:"required,yymmdd"`
	Phone      string  `json:"phone" validate:"required,phone"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
}

type CreateResponse struct {
	Status          string `json:"status"`
	Message         string `json:"message"`
	ComplaintNumber string `json:"complaint_number"`
}

type LookupRequest struct {
	ComplaintNumber string `json:"complaint_number"`
	Phone           string `json:"phone"`
}

// LookupDTO is what a citizen sees for their own complaint.
type LookupDTO struct {
	ComplaintNumber string                `json:"complaint_number"`
	Title           string                `json:"title"`
	Name            string                `json:"name"`
	CreatedAt       string                `json:"created_at"`
	Status          enums.ComplaintStatus `json:"status"`
	Content         string                `json:"content"`
	Answer          *string               `json:"answer"`
}

type LookupResponse struct {
	Success   bool      `json:"success"`
	Complaint LookupDTO `json:"complaint"`
}

// ComplaintDTO is the staff view of a complaint.
type ComplaintDTO struct {
	ID              uuid.UUID             `json:"complaint_id"`
	ComplaintNumber string                `json:"complaint_number"`
	PublicID        uuid.UUID             `json:"public"`
	DepartmentID    *uuid.UUID            `json:"department"`
	Name            string                `json:"name"`
	BirthDate       string                `json:"birth_date"`
	Phone           string                `json:"phone"`
	Email           *string               `json:"email"`
	Title           string                `json:"title"`
	Content         string                `json:"content"`
	Status          enums.ComplaintStatus `json:"status"`
	Answer          *string               `json:"answer"`
	TransferReason  *string               `json:"transfer_reason"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

func FromModel(c *models.PublicComplaint) ComplaintDTO {
	return ComplaintDTO{
		ID:              c.ID,
		ComplaintNumber: c.ComplaintNumber,
		PublicID:        c.PublicID,
		DepartmentID:    c.DepartmentID,
		Name:            c.Name,
		BirthDate:       c.BirthDate,
		Phone:           c.Phone,
		Email:           c.Email,
		Title:           c.Title,
		Content:         c.Content,
		Status:          c.Status,
		Answer:          c.Answer,
		TransferReason:  c.TransferReason,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

type StatusRequest struct {
	Status string `json:"status"`
}

type TransferRequest struct {
	DepartmentName string `json:"department_name"`
	Reason         string `json:"reason"`
}

type AnswerRequest struct {
	Answer string `json:"answer"`
}

// ActionResult acknowledges staff actions.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
