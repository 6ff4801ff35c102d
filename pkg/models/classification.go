package models

import "context"

// Language is an ISO 639-1 code of a supported message language.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageFrench  Language = "fr"
	LanguagePunjabi Language = "pa"
	// LanguageChinese covers both Mandarin and Cantonese.
	LanguageChinese Language = "zh"
	LanguageYoruba  Language = "yo"
)

func (l Language) String() string {
	return string(l)
}

// Classification is the outcome of classifying a message.
type Classification struct {
	Language   Language `json:"language"`
	Confidence float64  `json:"confidence"`
}

// Classifier classifies the text of a message before entity extraction.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}
