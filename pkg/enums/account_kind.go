package enums

import "fmt"

// AccountKind identifies which app an account belongs to. Store owners and
// public-institution staff live in separate tables and receive separate tokens.
type AccountKind string

const (
	AccountKindStoreOwner  AccountKind = "store_owner"
	AccountKindPublicStaff AccountKind = "public_staff"
)

var validAccountKinds = []AccountKind{
	AccountKindStoreOwner,
	AccountKindPublicStaff,
}

// String implements fmt.Stringer.
func (a AccountKind) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AccountKind.
func (a AccountKind) IsValid() bool {
	for _, candidate := range validAccountKinds {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAccountKind converts raw input into an AccountKind.
func ParseAccountKind(value string) (AccountKind, error) {
	for _, candidate := range validAccountKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid account kind %q", value)
}
