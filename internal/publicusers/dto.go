package publicusers

import (
	"github.com/leanai/mumul-backend/internal/media"
	"github.com/leanai/mumul-backend/pkg/db/models"
)

// ProfileDTO is the "my page" view of a public staff member. Business fields
// describe the institution.
type ProfileDTO struct {
	ProfilePhoto    string `json:"profile_photo"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phone_number"`
	BusinessName    string `json:"business_name"`
	BusinessAddress string `json:"business_address"`
	UserID          string `json:"user_id"`
	QRCodeURL       string `json:"qr_code_url"`
	LogoURL         string `json:"logo_url"`
	Marketing       bool   `json:"marketing"`
	Department      string `json:"department"`
}

func newProfile(u *models.PublicUser, public *models.Public, dept *models.PublicDepartment) *ProfileDTO {
	p := &ProfileDTO{
		ProfilePhoto: deref(u.ProfilePhoto),
		Name:         deref(u.Name),
		Email:        deref(u.Email),
		PhoneNumber:  u.Phone,
		UserID:       u.Username,
		Marketing:    u.Marketing,
	}
	if public != nil {
		p.BusinessName = public.Name
		p.BusinessAddress = deref(public.Address)
		p.QRCodeURL = deref(public.QRCode)
		p.LogoURL = deref(public.Logo)
	}
	if dept != nil {
		p.Department = dept.Name
	}
	return p
}

// UpdateProfileInput is a partial profile update. ProfilePhoto "" clears the
// photo and "default" selects the shared default image.
type UpdateProfileInput struct {
	Name           *string       `json:"name"`
	Email          *string       `json:"email" validate:"omitempty,email"`
	PhoneNumber    *string       `json:"phone_number" validate:"omitempty,phone"`
	Marketing      *bool         `json:"marketing"`
	DepartmentName *string       `json:"department_name"`
	ProfilePhoto   *string       `json:"profile_photo"`
	PhotoUpload    *media.Upload `json:"-"`
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
