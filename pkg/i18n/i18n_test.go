package i18n

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewTranslationSetFromConfigKnownLanguage(t *testing.T) {
	log := logrus.NewEntry(logrus.New())
	set := NewTranslationSetFromConfig(log, "fr")
	assert.Equal(t, frenchSet().CommandFailed, set.CommandFailed)
}

func TestNewTranslationSetFromConfigUnknownLanguageFallsBackToEnglish(t *testing.T) {
	log := logrus.NewEntry(logrus.New())
	set := NewTranslationSetFromConfig(log, "xx")
	assert.Equal(t, englishSet(), set)
}

func TestDetectLanguageFallsBackToEnglishOnError(t *testing.T) {
	assert.Equal(t, "en", detectLanguage(func() (string, error) {
		return "", errors.New("no locale")
	}))
}

func TestDetectLanguageTruncatesToTwoLetters(t *testing.T) {
	assert.Equal(t, "fr", detectLanguage(func() (string, error) {
		return "fr_FR.UTF-8", nil
	}))
}
