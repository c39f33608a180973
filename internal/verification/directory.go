package verification

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leanai/mumul-backend/pkg/db/models"
)

// ErrAccountNotFound is returned by a Directory when nothing matches.
var ErrAccountNotFound = errors.New("account not found")

// Account is the part of a user record the OTP flows need.
type Account struct {
	ID        uuid.UUID
	Username  string
	Phone     string
	CreatedAt time.Time
}

// Directory looks accounts up for one app.
type Directory interface {
	ByID(ctx context.Context, id uuid.UUID) (*Account, error)
	ByPhone(ctx context.Context, phone string) (*Account, error)
	ByUsernameAndPhone(ctx context.Context, username, phone string) (*Account, error)
	PhoneTaken(ctx context.Context, phone string, exclude uuid.UUID) (bool, error)
	UpdatePhone(ctx context.Context, id uuid.UUID, phone string) error
}

// ComplaintLookup resolves complaints for the citizen-side lookup code.
type ComplaintLookup interface {
	ExistsByNumberAndPhone(ctx context.Context, number, phone string) (bool, error)
}

type storeOwnerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindActiveByPhone(ctx context.Context, phone string) (*models.User, error)
	FindActiveByUsernameAndPhone(ctx context.Context, username, phone string) (*models.User, error)
	PhoneTaken(ctx context.Context, phone string, exclude uuid.UUID) (bool, error)
	UpdatePhone(ctx context.Context, id uuid.UUID, phone string) error
}

type publicStaffRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.PublicUser, error)
	FindActiveByPhone(ctx context.Context, phone string) (*models.PublicUser, error)
	FindActiveByUsernameAndPhone(ctx context.Context, username, phone string) (*models.PublicUser, error)
	PhoneTaken(ctx context.Context, phone string, exclude uuid.UUID) (bool, error)
	UpdatePhone(ctx context.Context, id uuid.UUID, phone string) error
}

// StoreOwners adapts the users repository.
func StoreOwners(repo storeOwnerRepository) Directory {
	return storeOwners{repo: repo}
}

// PublicStaff adapts the public users repository.
func PublicStaff(repo publicStaffRepository) Directory {
	return publicStaff{repo: repo}
}

type storeOwners struct {
	repo storeOwnerRepository
}

func (d storeOwners) ByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	u, err := d.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if !u.IsActive {
		return nil, ErrAccountNotFound
	}
	return &Account{ID: u.ID, Username: u.Username, Phone: u.Phone, CreatedAt: u.CreatedAt}, nil
}

func (d storeOwners) ByPhone(ctx context.Context, phone string) (*Account, error) {
	u, err := d.repo.FindActiveByPhone(ctx, phone)
	if err != nil {
		return nil, translate(err)
	}
	return &Account{ID: u.ID, Username: u.Username, Phone: u.Phone, CreatedAt: u.CreatedAt}, nil
}

func (d storeOwners) ByUsernameAndPhone(ctx context.Context, username, phone string) (*Account, error) {
	u, err := d.repo.FindActiveByUsernameAndPhone(ctx, username, phone)
	if err != nil {
		return nil, translate(err)
	}
	return &Account{ID: u.ID, Username: u.Username, Phone: u.Phone, CreatedAt: u.CreatedAt}, nil
}

func (d storeOwners) PhoneTaken(ctx context.Context, phone string, exclude uuid.UUID) (bool, error) {
	return d.repo.PhoneTaken(ctx, phone, exclude)
}

func (d storeOwners) UpdatePhone(ctx context.Context, id uuid.UUID, phone string) error {
	return translate(d.repo.UpdatePhone(ctx, id, phone))
}

type publicStaff struct {
	repo publicStaffRepository
}

func (d publicStaff) ByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	u, err := d.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if !u.IsActive {
		return nil, ErrAccountNotFound
	}
	return &Account{ID: u.ID, Username: u.Username, Phone: u.Phone, CreatedAt: u.CreatedAt}, nil
}

func (d publicStaff) ByPhone(ctx context.Context, phone string) (*Account, error) {
	u, err := d.repo.FindActiveByPhone(ctx, phone)
	if err != nil {
		return nil, translate(err)
	}
	return &Account{ID: u.ID, Username: u.Username, Phone: u.Phone, CreatedAt: u.CreatedAt}, nil
}

func (d publicStaff) ByUsernameAndPhone(ctx context.Context, username, phone string) (*Account, error) {
	u, err := d.repo.FindActiveByUsernameAndPhone(ctx, username, phone)
	if err != nil {
		return nil, translate(err)
	}
	return &Account{ID: u.ID, Username: u.Username, Phone: u.Phone, CreatedAt: u.CreatedAt}, nil
}

func (d publicStaff) PhoneTaken(ctx context.Context, phone string, exclude uuid.UUID) (bool, error) {
	return d.repo.PhoneTaken(ctx, phone, exclude)
}

func (d publicStaff) UpdatePhone(ctx context.Context, id uuid.UUID, phone string) error {
	return translate(d.repo.UpdatePhone(ctx, id, phone))
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAccountNotFound
	}
	return err
}
