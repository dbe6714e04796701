package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/livetiming/race-hub/pkg/logger"
)

func TestTranslateEnglish(t *testing.T) {
	tr := NewTranslator("en", logger.Discard())

	assert.Equal(t, "No one is on course.", tr.T("no_one_on_course", nil))
	assert.Equal(t, "#7 Ada Lind finished in 1m 2s.",
		tr.T("finished", map[string]any{"Number": 7, "Name": "Ada Lind", "Elapsed": "1m 2s"}))
}

func TestTranslateFrench(t *testing.T) {
	tr := NewTranslator("fr", logger.Discard())

	assert.Equal(t, language.French, tr.Locale())
	assert.Equal(t, "Personne n'est en course.", tr.T("no_one_on_course", nil))
}

func TestPlurals(t *testing.T) {
	tr := NewTranslator("en", logger.Discard())

	assert.Equal(t, "1 competitor on course:", tr.N("on_course_header", 1, nil))
	assert.Equal(t, "3 competitors on course:", tr.N("on_course_header", 3, nil))
}

func TestFallbacks(t *testing.T) {
	tr := NewTranslator("not a locale!", logger.Discard())
	assert.Equal(t, language.English, tr.Locale())
	assert.Equal(t, "Everyone has already started.", tr.T("no_one_waiting", nil))

	// a language without a message file falls back to English
	de := NewTranslator("de", logger.Discard())
	assert.Equal(t, "No race is loaded.", de.T("no_active_race", nil))

	assert.Equal(t, "missing_key", tr.T("missing_key", nil))
	assert.Equal(t, "", tr.T("", nil))
}

func TestEveryMessageIsTranslated(t *testing.T) {
	en := NewTranslator("en", logger.Discard())
	fr := NewTranslator("fr", logger.Discard())

	for _, key := range []string{
		"race_created", "race_loaded", "started", "finished", "did_not_finish",
		"not_stored", "board_stale", "no_one_on_course", "no_one_waiting",
		"no_active_race", "race_complete", "next_up", "empty_list",
		"unknown_command", "finish_before_start", "bad_time", "error", "bye", "help",
	} {
		assert.NotEqual(t, key, en.T(key, nil), key)
		assert.NotEqual(t, en.T(key, nil), fr.T(key, nil), key)
	}
}
