// Package export adapts generated flashcard records into Anki packages. It
// is the boundary between the generation pipeline's loose records and the
// strict relational format the anki package emits.
package export

import (
	"fmt"
	"io"
	"math/rand"
	"strings"

	"github.com/kpauljoseph/md2anki/internal/anki"
	"github.com/kpauljoseph/md2anki/pkg/logger"
	"github.com/kpauljoseph/md2anki/pkg/models"
)

const (
	// FallbackDeckName is used when the generation carries no deck name.
	FallbackDeckName = "md2anki Deck"

	deckDescription = "A deck created using md2anki"
)

// Filename derives the download name for a deck: lowercased, spaces replaced
// with hyphens, with the md2anki suffix.
func Filename(deckName string) string {
	if deckName == "" {
		deckName = FallbackDeckName
	}
	return strings.ToLower(strings.ReplaceAll(deckName, " ", "-")) + "-md2anki.apkg"
}

// Builder turns generations into decks and packages.
type Builder struct {
	log *logger.Logger
}

func NewBuilder(log *logger.Logger) *Builder {
	return &Builder{log: log}
}

// BuildDeck groups the valid flashcards of a generation into a single deck.
// Records failing the shape predicate are skipped with a warning; a bad
// record never aborts the rest of the batch.
//
// The deck ID is a random 6-digit number, unique enough within one package
// by convention.
func (b *Builder) BuildDeck(gen models.Generation) *anki.Deck {
	name := gen.DeckName
	if name == "" {
		name = FallbackDeckName
	}

	deckID := int64(100000 + rand.Intn(900000))
	b.log.Debug("Building deck %q (id %d) with %d candidate flashcards", name, deckID, len(gen.Flashcards))
	deck := anki.NewDeck(deckID, name, deckDescription)

	// One model instance per type per build, shared by every note of that
	// type so the requirement matrix is computed once.
	built := map[models.FlashcardType]*anki.Model{
		models.FlashcardTypeBasic:      anki.BasicModel(),
		models.FlashcardTypeReversible: anki.BasicAndReversedModel(),
		models.FlashcardTypeCloze:      anki.ClozeModel(),
	}

	for i, card := range gen.Flashcards {
		if err := card.Validate(); err != nil {
			b.log.Warn("Skipping invalid flashcard at index %d: %v", i, err)
			continue
		}

		model, ok := built[card.Type]
		if !ok {
			b.log.Warn("Skipping flashcard at index %d with invalid type: %s", i, card.Type)
			continue
		}

		note, err := anki.NewNote(model, []string{card.Question, card.Answer}, card.Tags...)
		if err != nil {
			b.log.Warn("Skipping flashcard at index %d: %v", i, err)
			continue
		}
		deck.AddNote(note)
	}

	return deck
}

// Export builds the package for a generation and writes the .apkg archive to
// w, bundling any media files.
func (b *Builder) Export(gen models.Generation, media []anki.MediaFile, w io.Writer) error {
	deck := b.BuildDeck(gen)
	pkg := anki.NewPackage([]*anki.Deck{deck},
		anki.WithMedia(media...),
		anki.WithLogger(b.log),
	)
	if err := pkg.Write(w); err != nil {
		return fmt.Errorf("creating anki package: %w", err)
	}
	return nil
}
