package enums

import "fmt"

// VerificationPurpose is the "type" field sent with OTP requests.
type VerificationPurpose string

const (
	VerificationFindID    VerificationPurpose = "findID"
	VerificationFindPW    VerificationPurpose = "findPW"
	VerificationMyPage    VerificationPurpose = "mypage"
	VerificationSignup    VerificationPurpose = "signup"
	VerificationComplaint VerificationPurpose = "complaint"
)

var validVerificationPurposes = []VerificationPurpose{
	VerificationFindID,
	VerificationFindPW,
	VerificationMyPage,
	VerificationSignup,
	VerificationComplaint,
}

// String implements fmt.Stringer.
func (v VerificationPurpose) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VerificationPurpose.
func (v VerificationPurpose) IsValid() bool {
	for _, candidate := range validVerificationPurposes {
		if candidate == v {
			return true
		}
	}
	return false
}

// RequiresUsername reports whether the caller must send the account username.
func (v VerificationPurpose) RequiresUsername() bool {
	switch v {
	case VerificationFindID, VerificationSignup, VerificationComplaint:
		return false
	}
	return true
}

// ParseVerificationPurpose converts raw input into a VerificationPurpose.
func ParseVerificationPurpose(value string) (VerificationPurpose, error) {
	for _, candidate := range validVerificationPurposes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid verification type %q", value)
}
