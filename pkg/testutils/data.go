package testutils

import "github.com/streetninja/ninjabrain/pkg/models"

// TestMessage is an inbound SMS with the entities a model is expected to
// find in it.
type TestMessage struct {
	Text     string
	Entities []models.EntitySpan
}

var TestMessages = []TestMessage{
	{
		Text: "Is there a shelter open tonight near Hastings and Main?",
		Entities: []models.EntitySpan{
			{Label: "RESOURCE", Text: "shelter", Start: 11, End: 18},
			{Label: "LOC", Text: "Hastings and Main", Start: 37, End: 54},
		},
	},
	{
		Text: "need food",
		Entities: []models.EntitySpan{
			{Label: "RESOURCE", Text: "food", Start: 5, End: 9},
		},
	},
	{
		Text: "where can i get wifi and a toilet around Granville st",
		Entities: []models.EntitySpan{
			{Label: "RESOURCE", Text: "wifi", Start: 16, End: 20},
			{Label: "RESOURCE", Text: "toilet", Start: 27, End: 33},
			{Label: "LOC", Text: "Granville st", Start: 41, End: 53},
		},
	},
	{
		Text:     "thank you",
		Entities: []models.EntitySpan{},
	},
}
