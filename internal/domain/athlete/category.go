package athlete

import (
	"strings"
	"time"

	"github.com/livetiming/race-hub/internal/domain/shared"
	"github.com/livetiming/race-hub/pkg/timeutil"
)

// Category is an age bracket. Categories are totally ordered from youngest to
// oldest, with CategoryUnknown sorting last.
type Category int

const (
	CategoryBaby Category = iota
	CategoryMini
	CategoryU10
	CategoryU12
	CategoryU14
	CategoryU16
	CategoryU18
	CategoryU20
	CategorySenior
	CategoryVeteran
	CategoryMaster
	CategoryGrandMaster
	CategoryUnknown
)

var categoryNames = [...]string{
	CategoryBaby:        "BABY",
	CategoryMini:        "MINI",
	CategoryU10:         "U10",
	CategoryU12:         "U12",
	CategoryU14:         "U14",
	CategoryU16:         "U16",
	CategoryU18:         "U18",
	CategoryU20:         "U20",
	CategorySenior:      "SENIOR",
	CategoryVeteran:     "VETERAN",
	CategoryMaster:      "MASTER",
	CategoryGrandMaster: "GRAND_MASTER",
	CategoryUnknown:     "UNKNOWN",
}

// Categories returns every category in ascending (youngest-first) order.
func Categories() []Category {
	out := make([]Category, 0, len(categoryNames))
	for c := CategoryBaby; c <= CategoryUnknown; c++ {
		out = append(out, c)
	}
	return out
}

// IsValid reports whether c is one of the declared categories.
func (c Category) IsValid() bool {
	return c >= CategoryBaby && c <= CategoryUnknown
}

// String returns the category name, e.g. "U10" or "GRAND_MASTER".
func (c Category) String() string {
	if !c.IsValid() {
		return categoryNames[CategoryUnknown]
	}
	return categoryNames[c]
}

// Less reports whether c is younger than other.
func (c Category) Less(other Category) bool {
	return c < other
}

// ParseCategory parses a category name, case-insensitively.
func ParseCategory(s string) (Category, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	for i, n := range categoryNames {
		if n == name {
			return Category(i), nil
		}
	}
	return CategoryUnknown, shared.ErrInvalidCategory
}

// MarshalText encodes c by name.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a category name.
func (c *Category) UnmarshalText(b []byte) error {
	v, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CLASSIFIER
// ══════════════════════════════════════════════════════════════════════════════

// Classifier maps a birth year to a category. Implementations must be total:
// every year maps to exactly one category, CategoryUnknown for years they
// cannot place.
type Classifier interface {
	CategoryForBirthYear(year int) Category
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(year int) Category

// CategoryForBirthYear implements Classifier.
func (f ClassifierFunc) CategoryForBirthYear(year int) Category {
	return f(year)
}

// ageBracket is the oldest age (in years, inclusive) a category admits.
type ageBracket struct {
	maxAge   int
	category Category
}

// Age is the difference between the current calendar year and the birth year.
var ageBrackets = []ageBracket{
	{2, CategoryBaby},
	{5, CategoryMini},
	{10, CategoryU10},
	{12, CategoryU12},
	{14, CategoryU14},
	{16, CategoryU16},
	{18, CategoryU18},
	{20, CategoryU20},
	{35, CategorySenior},
	{50, CategoryVeteran},
	{65, CategoryMaster},
}

// AgeClassifier derives the category from the age an athlete reaches in the
// current calendar year.
type AgeClassifier struct {
	clock    timeutil.Clock
	location *time.Location
}

// NewAgeClassifier creates an AgeClassifier reading "this year" from clock in
// loc. A nil clock means the system clock; a nil loc means UTC.
func NewAgeClassifier(clock timeutil.Clock, loc *time.Location) *AgeClassifier {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AgeClassifier{clock: clock, location: loc}
}

// CategoryForBirthYear implements Classifier. Non-positive years and years in
// the future map to CategoryUnknown.
func (c *AgeClassifier) CategoryForBirthYear(year int) Category {
	if year <= 0 {
		return CategoryUnknown
	}
	age := timeutil.CurrentYear(c.clock, c.location) - year
	if age < 0 {
		return CategoryUnknown
	}
	return CategoryForAge(age)
}

// CategoryForAge maps an age in years to its bracket.
func CategoryForAge(age int) Category {
	if age < 0 {
		return CategoryUnknown
	}
	for _, b := range ageBrackets {
		if age <= b.maxAge {
			return b.category
		}
	}
	return CategoryGrandMaster
}
