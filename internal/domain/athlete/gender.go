package athlete

import (
	"strings"

	"github.com/livetiming/race-hub/internal/domain/shared"
)

// Gender is the second grouping key of a start list.
type Gender string

const (
	GenderFemale Gender = "FEMALE"
	GenderMale   Gender = "MALE"
)

// Genders returns both genders in start order: female before male.
func Genders() []Gender {
	return []Gender{GenderFemale, GenderMale}
}

// IsValid checks if the gender is one of the declared values.
func (g Gender) IsValid() bool {
	return g == GenderFemale || g == GenderMale
}

// Order returns the position of g within a category on race day.
func (g Gender) Order() int {
	if g == GenderFemale {
		return 0
	}
	return 1
}

// String returns the gender name.
func (g Gender) String() string {
	return string(g)
}

// ParseGender accepts the full names and the usual one-letter codes.
func ParseGender(s string) (Gender, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "F", "W", "FEMALE", "WOMAN", "WOMEN":
		return GenderFemale, nil
	case "M", "MALE", "MAN", "MEN":
		return GenderMale, nil
	default:
		return "", shared.ErrInvalidGender
	}
}
