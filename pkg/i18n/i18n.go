// Package i18n resolves the driver's UserConfig.Language ("auto", "en",
// "fr", "pl") into a TranslationSet, adapted from the teacher's
// pkg/i18n/i18n.go.
package i18n

import (
	"github.com/cloudfoundry/jibber_jabber"
	"github.com/imdario/mergo"
	"github.com/sirupsen/logrus"
)

// Localizer pairs a resolved TranslationSet with the logger used while
// resolving it, mirroring the teacher's Localizer.
type Localizer struct {
	Log *logrus.Entry
	S   TranslationSet
}

var knownSets = map[string]func() TranslationSet{
	"en": englishSet,
	"fr": frenchSet,
	"pl": polishSet,
}

// English returns the hardcoded English translation set, used as the
// fallback default by callers (e.g. internal/progress) that haven't yet
// resolved a UserConfig.Language.
func English() TranslationSet {
	return englishSet()
}

// NewTranslationSetFromConfig resolves configLanguage into a TranslationSet.
// "auto" detects the OS locale via jibber_jabber; an unrecognised or
// undetectable language falls back to English. Every resolved set is
// merged onto the English base with mergo so a language file missing a
// newly-added field still reports something rather than an empty string.
func NewTranslationSetFromConfig(log *logrus.Entry, configLanguage string) TranslationSet {
	language := configLanguage
	if language == "auto" {
		language = detectLanguage(jibber_jabber.DetectLanguage)
	}

	log.Info("language: " + language)

	build, ok := knownSets[language]
	if !ok {
		log.Warnf("no translation for '%s', falling back to English", language)
		return englishSet()
	}

	set := build()
	base := englishSet()
	if err := mergo.Merge(&set, base); err != nil {
		log.Warnf("failed to backfill translation set from English base: %v", err)
	}
	return set
}

// detectLanguage extracts a two-letter language code from the detector,
// falling back to "en" when detection fails (e.g. no locale env vars set).
func detectLanguage(langDetector func() (string, error)) string {
	if userLang, err := langDetector(); err == nil && len(userLang) >= 2 {
		return userLang[:2]
	}
	return "en"
}
