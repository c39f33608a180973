package media

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/leanai/mumul-backend/pkg/storage"
)

// Storage key layout. Every folder below is removed when its owner leaves.

func StoreUploadsPrefix(storeID uuid.UUID) string {
	return storage.OwnerPrefix("store", storeID)
}

func PublicUploadsPrefix(publicID uuid.UUID) string {
	return storage.OwnerPrefix("public", publicID)
}

func StoreFeedPrefix(storeID uuid.UUID) string {
	return StoreUploadsPrefix(storeID) + "/feed"
}

func MenuImagePrefix(storeID uuid.UUID) string {
	return fmt.Sprintf("menu_images/store_%s", storeID)
}

func BannerPrefix(storeID uuid.UUID) string {
	return fmt.Sprintf("banner/store_%s", storeID)
}

func LogoPrefix(publicID uuid.UUID) string {
	return fmt.Sprintf("logos/public_%s", publicID)
}

// ProfilePhotoPrefix is keyed by account, owner is "user" or "public_user".
func ProfilePhotoPrefix(owner string, userID uuid.UUID) string {
	return fmt.Sprintf("profile_photos/%s_%s", owner, userID)
}

func StoreQRKey(storeID uuid.UUID) string {
	return fmt.Sprintf("qr_codes/qr_%s.png", storeID)
}

func PublicQRKey(publicID uuid.UUID) string {
	return fmt.Sprintf("qr_codes/public_qr_%s.png", publicID)
}

// StatisticsPrefix holds the rendered charts of one account.
func StatisticsPrefix(accountID uuid.UUID) string {
	return fmt.Sprintf("statistics/%s", accountID)
}
