package enums

import (
	"fmt"
	"strings"
)

// PushProvider selects the push delivery backend.
type PushProvider string

const (
	PushProviderExpo PushProvider = "expo"
	PushProviderFCM  PushProvider = "fcm"
)

// ParsePushProvider converts raw config into a PushProvider.
func ParsePushProvider(value string) (PushProvider, error) {
	switch PushProvider(strings.ToLower(strings.TrimSpace(value))) {
	case PushProviderExpo, "":
		return PushProviderExpo, nil
	case PushProviderFCM:
		return PushProviderFCM, nil
	}
	return "", fmt.Errorf("invalid push provider %q", value)
}

// StorageDriver selects where uploaded media is written.
type StorageDriver string

const (
	StorageDriverLocal StorageDriver = "local"
	StorageDriverS3    StorageDriver = "s3"
)

// ParseStorageDriver converts raw config into a StorageDriver.
func ParseStorageDriver(value string) (StorageDriver, error) {
	switch StorageDriver(strings.ToLower(strings.TrimSpace(value))) {
	case StorageDriverLocal, "":
		return StorageDriverLocal, nil
	case StorageDriverS3:
		return StorageDriverS3, nil
	}
	return "", fmt.Errorf("invalid storage driver %q", value)
}
