package users

import (
	"github.com/leanai/mumul-backend/internal/media"
	"github.com/leanai/mumul-backend/internal/stores"
	"github.com/leanai/mumul-backend/pkg/db/models"
)

// ProfileDTO is the "my page" view of a store owner.
type ProfileDTO struct {
	ProfilePhoto    string `json:"profile_photo"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	PhoneNumber     string `json:"phone_number"`
	BusinessName    string `json:"business_name"`
	BusinessAddress string `json:"business_address"`
	UserID          string `json:"user_id"`
	QRCodeURL       string `json:"qr_code_url"`
	BannerURL       string `json:"banner_url"`
	Marketing       bool   `json:"marketing"`
	StoreIntro      string `json:"store_introduction"`
}

func newProfile(u *models.User, store *stores.StoreDTO) *ProfileDTO {
	p := &ProfileDTO{
		ProfilePhoto: deref(u.ProfilePhoto),
		Name:         deref(u.Name),
		Email:        deref(u.Email),
		PhoneNumber:  u.Phone,
		UserID:       u.Username,
		Marketing:    u.Marketing,
	}
	if store != nil {
		p.BusinessName = store.Name
		p.BusinessAddress = deref(store.Address)
		p.QRCodeURL = deref(store.QRCode)
		p.BannerURL = deref(store.Banner)
		p.StoreIntro = deref(store.Introduction)
	}
	return p
}

// UpdateProfileInput is a partial profile update.
type UpdateProfileInput struct {
	Name            *string `json:"name"`
	Email           *string `json:"email" validate:"omitempty,email"`
	PhoneNumber     *string `json:"phone_number" validate:"omitempty,phone"`
	Marketing       *bool   `json:"marketing"`
	BusinessName    *string `json:"business_name"`
	BusinessAddress *string `json:"business_address"`
}

// PhotoInput selects either an uploaded photo or the shared default.
type PhotoInput struct {
	Upload     *media.Upload
	UseDefault bool
}

// PhotoDTO reports the stored photo URL.
type PhotoDTO struct {
	Message         string `json:"message"`
	ProfilePhotoURL string `json:"profile_photo_url"`
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
