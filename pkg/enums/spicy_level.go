package enums

import (
	"fmt"
	"strings"
)

// SpicyLevel is the spiciness shown next to a menu item.
type SpicyLevel string

const (
	SpicyLevelNone   SpicyLevel = "none"
	SpicyLevelMild   SpicyLevel = "mild"
	SpicyLevelMedium SpicyLevel = "medium"
	SpicyLevelHot    SpicyLevel = "hot"
)

var validSpicyLevels = []SpicyLevel{
	SpicyLevelNone,
	SpicyLevelMild,
	SpicyLevelMedium,
	SpicyLevelHot,
}

// labels accepted from the onboarding spreadsheet and older app builds.
var spicyAliases = map[string]SpicyLevel{
	"":     SpicyLevelNone,
	"0":    SpicyLevelNone,
	"없음":   SpicyLevelNone,
	"안매움":  SpicyLevelNone,
	"1":    SpicyLevelMild,
	"약간":   SpicyLevelMild,
	"약간매움": SpicyLevelMild,
	"순한맛":  SpicyLevelMild,
	"2":    SpicyLevelMedium,
	"보통":   SpicyLevelMedium,
	"중간맛":  SpicyLevelMedium,
	"3":    SpicyLevelHot,
	"매움":   SpicyLevelHot,
	"매운맛":  SpicyLevelHot,
	"아주매움": SpicyLevelHot,
}

// String implements fmt.Stringer.
func (s SpicyLevel) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SpicyLevel.
func (s SpicyLevel) IsValid() bool {
	for _, candidate := range validSpicyLevels {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSpicyLevel converts raw input (codes, digits or Korean labels) into a SpicyLevel.
func ParseSpicyLevel(value string) (SpicyLevel, error) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(value), " ", "")
	for _, candidate := range validSpicyLevels {
		if string(candidate) == strings.ToLower(trimmed) {
			return candidate, nil
		}
	}
	if level, ok := spicyAliases[trimmed]; ok {
		return level, nil
	}
	return "", fmt.Errorf("invalid spicy level %q", value)
}
