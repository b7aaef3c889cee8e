package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// FlashcardType tags how a flashcard renders into cards.
type FlashcardType string

const (
	// FlashcardTypeBasic has a question front and an answer back.
	FlashcardTypeBasic FlashcardType = "basic"
	// FlashcardTypeReversible additionally yields the swapped card.
	FlashcardTypeReversible FlashcardType = "reversible"
	// FlashcardTypeCloze carries {{cN::...}} deletions in the question.
	FlashcardTypeCloze FlashcardType = "cloze"
)

// Flashcard is one generated flashcard record as produced by the generation
// pipeline.
type Flashcard struct {
	Question string        `json:"question"`
	Answer   string        `json:"answer"`
	Type     FlashcardType `json:"type"`
	Tags     []string      `json:"tags"`
}

// Validate is the shape predicate for incoming records. Records failing it
// are skipped during export rather than aborting the whole batch.
func (f Flashcard) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Question, validation.Required),
		validation.Field(&f.Answer, validation.Required),
		validation.Field(&f.Type, validation.Required,
			validation.In(FlashcardTypeBasic, FlashcardTypeReversible, FlashcardTypeCloze)),
	)
}

// Generation is the full output of one generation run: a deck name and the
// flashcards that belong to it.
type Generation struct {
	DeckName   string      `json:"deck_name"`
	Flashcards []Flashcard `json:"flashcards"`
}
