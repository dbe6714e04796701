// Package i18n renders operator console messages in the configured language.
package i18n

import (
	"embed"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"github.com/livetiming/race-hub/pkg/logger"
)

//go:embed active.*.toml
var localeFS embed.FS

// Translator is a thin wrapper around go-i18n's Bundle/Localizer.
type Translator struct {
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	locale    language.Tag
	logger    *logger.Logger
}

// NewTranslator builds a Translator for locale (e.g. "fr"). Unknown locales
// fall back to English.
func NewTranslator(locale string, log *logger.Logger) *Translator {
	if log == nil {
		log = logger.Discard()
	}
	log = log.With(logger.Component("i18n"))

	tag, err := language.Parse(locale)
	if err != nil {
		log.Warn("unknown locale, using English", logger.String("locale", locale))
		tag = language.English
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, file := range []string{"active.en.toml", "active.fr.toml"} {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			log.Error("failed to load message file", logger.String("file", file), logger.Err(err))
		}
	}

	return &Translator{
		bundle:    bundle,
		localizer: i18n.NewLocalizer(bundle, tag.String(), language.English.String()),
		locale:    tag,
		logger:    log,
	}
}

// Locale returns the language messages are rendered in.
func (t *Translator) Locale() language.Tag {
	return t.locale
}

// T renders the message identified by key. Missing keys render as the key
// itself.
func (t *Translator) T(key string, data map[string]any) string {
	if key == "" {
		return ""
	}

	msg, err := t.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		t.logger.Warn("localize failed", logger.String("key", key), logger.Err(err))
		return key
	}
	return msg
}

// N renders a message with plural forms, choosing the form for count.
// data may be nil; Count is always available to the template.
func (t *Translator) N(key string, count int, data map[string]any) string {
	td := map[string]any{"Count": count}
	for k, v := range data {
		td[k] = v
	}

	msg, err := t.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: td,
		PluralCount:  count,
	})
	if err != nil {
		t.logger.Warn("localize failed", logger.String("key", key), logger.Err(err))
		return key
	}
	return msg
}
