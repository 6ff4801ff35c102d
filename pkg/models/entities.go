package models

import (
	"fmt"
	"strings"
)

// ModelIdentifier names a configured inference model. The set of valid
// identifiers is closed; use ParseModelIdentifier to convert config values.
type ModelIdentifier string

const (
	ModelEnStreetNinja ModelIdentifier = "en_streetninja"
	ModelEnCore        ModelIdentifier = "en_core"
)

var modelIdentifiers = []ModelIdentifier{
	ModelEnStreetNinja,
	ModelEnCore,
}

// ModelIdentifiers returns the recognized model identifiers.
func ModelIdentifiers() []ModelIdentifier {
	ids := make([]ModelIdentifier, len(modelIdentifiers))
	copy(ids, modelIdentifiers)
	return ids
}

// ParseModelIdentifier resolves a configured model name. Unknown names fail
// with a ModelLoadError.
func ParseModelIdentifier(name string) (ModelIdentifier, error) {
	for _, id := range modelIdentifiers {
		if string(id) == name {
			return id, nil
		}
	}
	return "", NewModelLoadError(
		fmt.Sprintf("invalid model identifier %q. Is this a typo?", name),
		nil,
	)
}

func (m ModelIdentifier) String() string {
	return string(m)
}

// EntitySpan is a labeled substring of the source text. Start and End are
// character offsets into the source text.
type EntitySpan struct {
	Label string `json:"label"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Validate checks 0 <= Start <= End <= sourceLen.
func (s EntitySpan) Validate(sourceLen int) error {
	if s.Start < 0 || s.Start > s.End || s.End > sourceLen {
		return fmt.Errorf(
			"entity span %q [%d:%d] out of range for text of length %d",
			s.Label, s.Start, s.End, sourceLen,
		)
	}
	return nil
}

// InferredEntities is the result of a single inference call.
type InferredEntities struct {
	Text     string          `json:"text"`
	ModelID  ModelIdentifier `json:"model_id"`
	Version  string          `json:"version"`
	Entities []EntitySpan    `json:"entities"`
}

// Labels returns the distinct entity labels in order of first appearance.
func (i *InferredEntities) Labels() []string {
	seen := make(map[string]struct{}, len(i.Entities))
	labels := make([]string, 0, len(i.Entities))
	for _, e := range i.Entities {
		label := strings.ToUpper(e.Label)
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	return labels
}

// The types below are the wire format of the NLP server.

type EntityMatch struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

type Entity struct {
	Name    string        `json:"name"`
	Label   string        `json:"label"`
	Matches []EntityMatch `json:"matches"`
}

type EntityRequestRecord struct {
	UUID     string `json:"uuid"`
	Text     string `json:"text"`
	Language string `json:"language"`
}

type EntityResponseRecord struct {
	UUID     string   `json:"uuid"`
	Entities []Entity `json:"entities"`
}

type EntityRequest struct {
	Model string                `json:"model"`
	Texts []EntityRequestRecord `json:"texts"`
}

type EntityResponse struct {
	Texts []EntityResponseRecord `json:"texts"`
}

// ModelInfo describes a model loaded by the NLP server.
type ModelInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}
