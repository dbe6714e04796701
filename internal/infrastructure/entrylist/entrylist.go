// Package entrylist reads the athletes entered in a race from TOML, YAML or
// INI files. Categories are derived once, here, through the classifier.
package entrylist

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cj123/ini"
	"github.com/dimchansky/utfbom"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/livetiming/race-hub/internal/domain/athlete"
	"github.com/livetiming/race-hub/internal/domain/shared"
)

// Format is an entry list file format.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatINI  Format = "ini"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".ini":
		return FormatINI, nil
	default:
		return "", fmt.Errorf("entrylist: %s: %w", path, shared.ErrInvalidFormat)
	}
}

// Entry is one athlete line as written in the file.
type Entry struct {
	FirstName string `toml:"first_name" yaml:"first_name" ini:"FIRST_NAME"`
	LastName  string `toml:"last_name" yaml:"last_name" ini:"LAST_NAME"`
	Club      string `toml:"club" yaml:"club" ini:"CLUB"`
	BirthYear int    `toml:"birth_year" yaml:"birth_year" ini:"BIRTH_YEAR"`
	Gender    string `toml:"gender" yaml:"gender" ini:"GENDER"`

	// Category overrides the derived category when set.
	Category string `toml:"category" yaml:"category" ini:"CATEGORY"`
}

type document struct {
	Race struct {
		Name string `toml:"name" yaml:"name"`
	} `toml:"race" yaml:"race"`
	Athletes []Entry `toml:"athlete" yaml:"athletes"`
}

// EntryList is a parsed entry list.
type EntryList struct {
	RaceName string
	Athletes []athlete.Athlete
}

// Load reads and parses the file at path.
func Load(path string, classifier athlete.Classifier) (*EntryList, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("entrylist: %w", err)
	}
	defer f.Close()

	list, err := Read(f, format, classifier)
	if err != nil {
		return nil, fmt.Errorf("entrylist: %s: %w", filepath.Base(path), err)
	}
	return list, nil
}

// Read parses an entry list. Every invalid entry is reported, not only the
// first one.
func Read(r io.Reader, format Format, classifier athlete.Classifier) (*EntryList, error) {
	data, err := io.ReadAll(utfbom.SkipOnly(r))
	if err != nil {
		return nil, err
	}

	var doc document
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatINI:
		doc, err = decodeINI(data)
	default:
		err = fmt.Errorf("format %q: %w", format, shared.ErrInvalidFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}

	list := &EntryList{
		RaceName: strings.TrimSpace(doc.Race.Name),
		Athletes: make([]athlete.Athlete, 0, len(doc.Athletes)),
	}

	var errs []error
	for i, e := range doc.Athletes {
		a, err := e.toAthlete(classifier)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %d (%s %s): %w", i+1, e.FirstName, e.LastName, err))
			continue
		}
		list.Athletes = append(list.Athletes, a)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return list, nil
}

func (e Entry) toAthlete(classifier athlete.Classifier) (athlete.Athlete, error) {
	gender, err := athlete.ParseGender(e.Gender)
	if err != nil {
		return athlete.Athlete{}, err
	}

	a, err := athlete.New(athlete.Profile{
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Club:      e.Club,
		BirthYear: e.BirthYear,
		Gender:    gender,
	}, classifier)
	if err != nil {
		return athlete.Athlete{}, err
	}

	if strings.TrimSpace(e.Category) != "" {
		category, err := athlete.ParseCategory(e.Category)
		if err != nil {
			return athlete.Athlete{}, err
		}
		a = a.WithCategory(category)
	}
	return a, nil
}

// decodeINI reads a [RACE] section and one ATHLETE_* section per athlete,
// in file order.
func decodeINI(data []byte) (document, error) {
	var doc document

	f, err := ini.Load(data)
	if err != nil {
		return doc, err
	}

	if s, err := f.GetSection("RACE"); err == nil {
		doc.Race.Name = s.Key("NAME").String()
	}

	for _, s := range f.Sections() {
		if !strings.HasPrefix(strings.ToUpper(s.Name()), "ATHLETE") {
			continue
		}
		var e Entry
		if err := s.MapTo(&e); err != nil {
			return doc, fmt.Errorf("section %s: %w", s.Name(), err)
		}
		doc.Athletes = append(doc.Athletes, e)
	}
	return doc, nil
}
