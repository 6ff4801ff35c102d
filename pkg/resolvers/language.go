// Package resolvers classifies inbound messages before entity extraction.
package resolvers

import (
	"context"
	"strings"

	"github.com/abadojack/whatlanggo"

	"github.com/streetninja/ninjabrain/internal"
	"github.com/streetninja/ninjabrain/pkg/models"
)

var log = internal.GetLogger()

var (
	_ models.Classifier = ConstantLanguageClassifier{}
	_ models.Classifier = &WhatlangClassifier{}
)

// ConstantLanguageClassifier classifies every message as the same language.
type ConstantLanguageClassifier struct {
	Language models.Language
}

func NewConstantLanguageClassifier() ConstantLanguageClassifier {
	return ConstantLanguageClassifier{Language: models.LanguageEnglish}
}

func (c ConstantLanguageClassifier) Classify(_ context.Context, _ string) (models.Classification, error) {
	return models.Classification{Language: c.Language, Confidence: 1}, nil
}

var supportedLanguages = map[whatlanggo.Lang]models.Language{
	whatlanggo.Eng: models.LanguageEnglish,
	whatlanggo.Fra: models.LanguageFrench,
	whatlanggo.Pan: models.LanguagePunjabi,
	whatlanggo.Cmn: models.LanguageChinese,
	whatlanggo.Yor: models.LanguageYoruba,
}

// WhatlangClassifier detects the language of a message from its text.
// Messages in an unsupported language, or too short to detect reliably,
// fall back to Fallback.
type WhatlangClassifier struct {
	Fallback      models.Language
	MinConfidence float64
	options       whatlanggo.Options
}

func NewWhatlangClassifier() *WhatlangClassifier {
	whitelist := make(map[whatlanggo.Lang]bool, len(supportedLanguages))
	for lang := range supportedLanguages {
		whitelist[lang] = true
	}
	return &WhatlangClassifier{
		Fallback:      models.LanguageEnglish,
		MinConfidence: 0.1,
		options:       whatlanggo.Options{Whitelist: whitelist},
	}
}

func (c *WhatlangClassifier) Classify(_ context.Context, text string) (models.Classification, error) {
	fallback := models.Classification{Language: c.Fallback}

	text = strings.TrimSpace(text)
	if text == "" {
		return fallback, nil
	}

	info := whatlanggo.DetectWithOptions(text, c.options)
	language, ok := supportedLanguages[info.Lang]
	if !ok || info.Confidence < c.MinConfidence {
		log.Debugf(
			"Language detection inconclusive (confidence %.2f), using %s",
			info.Confidence, c.Fallback,
		)
		return fallback, nil
	}

	return models.Classification{Language: language, Confidence: info.Confidence}, nil
}
