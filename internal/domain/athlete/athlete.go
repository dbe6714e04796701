// Package athlete holds the immutable profile of a person entered in a race:
// identity, gender and the age category derived from the birth year.
package athlete

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/livetiming/race-hub/internal/domain/shared"
)

// Athlete is an immutable profile value. The category is derived once, at
// creation time, and never re-derived.
type Athlete struct {
	firstName string
	lastName  string
	club      string
	birthYear int
	gender    Gender
	category  Category
}

// Profile is the raw upstream data an Athlete is built from.
type Profile struct {
	FirstName string
	LastName  string
	Club      string
	BirthYear int // 0 if unknown
	Gender    Gender
}

// New validates p and builds an Athlete, classifying it with classifier.
func New(p Profile, classifier Classifier) (Athlete, error) {
	first := normalizeName(p.FirstName)
	last := normalizeName(p.LastName)
	if first == "" && last == "" {
		return Athlete{}, shared.ErrEmptyAthleteName
	}
	if !p.Gender.IsValid() {
		return Athlete{}, shared.ErrInvalidGender
	}
	if p.BirthYear < 0 {
		return Athlete{}, shared.ErrInvalidBirthYear
	}

	category := CategoryUnknown
	if classifier != nil && p.BirthYear > 0 {
		category = classifier.CategoryForBirthYear(p.BirthYear)
	}

	return Athlete{
		firstName: first,
		lastName:  last,
		club:      strings.TrimSpace(p.Club),
		birthYear: p.BirthYear,
		gender:    p.Gender,
		category:  category,
	}, nil
}

// MustNew is New for fixtures and tests; it panics on invalid input.
func MustNew(p Profile, classifier Classifier) Athlete {
	a, err := New(p, classifier)
	if err != nil {
		panic(err)
	}
	return a
}

// normalizeName collapses whitespace and title-cases each word.
func normalizeName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return cases.Title(language.Und).String(s)
}

// Name returns "First Last".
func (a Athlete) Name() string {
	return strings.TrimSpace(a.firstName + " " + a.lastName)
}

func (a Athlete) FirstName() string  { return a.firstName }
func (a Athlete) LastName() string   { return a.lastName }
func (a Athlete) Club() string       { return a.club }
func (a Athlete) BirthYear() int     { return a.birthYear }
func (a Athlete) Gender() Gender     { return a.gender }
func (a Athlete) Category() Category { return a.category }

// WithCategory returns a copy of a placed in c. This is the only way to
// change a category after creation.
func (a Athlete) WithCategory(c Category) Athlete {
	a.category = c
	return a
}

// Restore rebuilds a stored Athlete with its recorded category, without
// consulting a classifier.
func Restore(p Profile, c Category) Athlete {
	return Athlete{
		firstName: p.FirstName,
		lastName:  p.LastName,
		club:      p.Club,
		birthYear: p.BirthYear,
		gender:    p.Gender,
		category:  c,
	}
}

// Profile returns the raw data a was built from.
func (a Athlete) Profile() Profile {
	return Profile{
		FirstName: a.firstName,
		LastName:  a.lastName,
		Club:      a.club,
		BirthYear: a.birthYear,
		Gender:    a.gender,
	}
}
