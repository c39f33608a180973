package security

import (
	"errors"
	"regexp"
	"unicode"
	"unicode/utf8"
)

var (
	ErrUsernamePolicy = errors.New("아이디는 영문 소문자로 시작하는 4~12자의 영문 소문자와 숫자 조합이어야 합니다.")
	ErrPasswordPolicy = errors.New("비밀번호는 8~20자이며 영문 대문자, 소문자, 숫자, 특수문자(!@#$%^&*) 중 2가지 이상을 포함해야 합니다.")

	usernamePattern = regexp.MustCompile(`^[a-z][a-z0-9]{3,11}$`)
)

const passwordSpecials = "!@#$%^&*"

// CheckUsername enforces the account id format.
func CheckUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrUsernamePolicy
	}
	return nil
}

// CheckPassword requires 8-20 characters drawn from at least two classes.
// Characters outside the four classes are rejected.
func CheckPassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < 8 || n > 20 {
		return ErrPasswordPolicy
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case unicode.IsDigit(r) && r < unicode.MaxASCII:
			digit = true
		case containsRune(passwordSpecials, r):
			special = true
		default:
			return ErrPasswordPolicy
		}
	}

	classes := 0
	for _, ok := range []bool{upper, lower, digit, special} {
		if ok {
			classes++
		}
	}
	if classes < 2 {
		return ErrPasswordPolicy
	}
	return nil
}

func containsRune(set string, r rune) bool {
	for _, c := range set {
		if c == r {
			return true
		}
	}
	return false
}
