package anki

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kpauljoseph/md2anki/pkg/logger"
)

// Deck is a named collection of notes destined for one package. The deck ID
// must be unique within a package: the col table keys deck descriptors by ID,
// so a collision overwrites the earlier deck's slot.
//
// A deck is consumed exactly once by a package write. Re-writing the same
// deck is a caller error; notes already written are not deduplicated.
type Deck struct {
	id          int64
	name        string
	description string
	notes       []*Note
	models      map[int64]*Model
}

func NewDeck(id int64, name, description string) *Deck {
	return &Deck{
		id:          id,
		name:        name,
		description: description,
		models:      make(map[int64]*Model),
	}
}

func (d *Deck) ID() int64 {
	return d.id
}

func (d *Deck) Name() string {
	return d.name
}

// AddNote appends a note to the deck. The note's model joins the deck's
// model set at write time, deduplicated by model ID.
func (d *Deck) AddNote(notes ...*Note) {
	d.notes = append(d.notes, notes...)
}

// AddModel registers a model with the deck. Models referenced by notes are
// collected automatically; explicit registration is only needed for models
// without notes yet.
func (d *Deck) AddModel(m *Model) {
	d.models[m.ID()] = m
}

func (d *Deck) Notes() []*Note {
	return d.notes
}

type deckJSON struct {
	Collapsed bool   `json:"collapsed"`
	Conf      int    `json:"conf"`
	Desc      string `json:"desc"`
	Dyn       int    `json:"dyn"`
	ExtendNew int    `json:"extendNew"`
	ExtendRev int    `json:"extendRev"`
	ID        int64  `json:"id"`
	LrnToday  [2]int `json:"lrnToday"`
	Mod       int64  `json:"mod"`
	Name      string `json:"name"`
	NewToday  [2]int `json:"newToday"`
	RevToday  [2]int `json:"revToday"`
	TimeToday [2]int `json:"timeToday"`
	USN       int    `json:"usn"`
}

// toJSON renders the deck descriptor embedded in the col table. The study
// counters are inert placeholder values; Anki rebuilds them after import.
func (d *Deck) toJSON() deckJSON {
	return deckJSON{
		Collapsed: false,
		Conf:      1,
		Desc:      d.description,
		Dyn:       0,
		ExtendNew: 0,
		ExtendRev: 50,
		ID:        d.id,
		LrnToday:  [2]int{163, 2},
		Mod:       1425278051,
		Name:      d.name,
		NewToday:  [2]int{163, 2},
		RevToday:  [2]int{163, 0},
		TimeToday: [2]int{163, 23598},
		USN:       -1,
	}
}

// writeToDB merges the deck's descriptor and its models into the shared JSON
// blobs of the col row, then writes every note (and its cards) in insertion
// order. The read-modify-rewrite of whole JSON columns mirrors Anki's own
// on-disk format.
func (d *Deck) writeToDB(db *sql.DB, timestamp int64, ids *IDGenerator, log *logger.Logger) error {
	log.Debug("Writing deck %q (id %d) to collection", d.name, d.id)

	if err := d.mergeDeckJSON(db); err != nil {
		return err
	}
	if err := d.mergeModelJSON(db, timestamp); err != nil {
		return err
	}

	for _, note := range d.notes {
		if err := note.writeToDB(db, timestamp, d.id, ids, log); err != nil {
			return err
		}
	}
	return nil
}

func (d *Deck) mergeDeckJSON(db *sql.DB) error {
	var blob string
	if err := db.QueryRow("SELECT decks FROM col").Scan(&blob); err != nil {
		return fmt.Errorf("reading decks column: %w", err)
	}

	decks := make(map[string]json.RawMessage)
	if err := json.Unmarshal([]byte(blob), &decks); err != nil {
		return fmt.Errorf("decoding decks column: %w", err)
	}

	encoded, err := json.Marshal(d.toJSON())
	if err != nil {
		return fmt.Errorf("encoding deck %d: %w", d.id, err)
	}
	decks[strconv.FormatInt(d.id, 10)] = encoded

	merged, err := json.Marshal(decks)
	if err != nil {
		return fmt.Errorf("encoding decks column: %w", err)
	}
	if _, err := db.Exec("UPDATE col SET decks = ?", string(merged)); err != nil {
		return fmt.Errorf("updating decks column: %w", err)
	}
	return nil
}

func (d *Deck) mergeModelJSON(db *sql.DB, timestamp int64) error {
	// Models arrive with the notes; collect them before merging.
	for _, note := range d.notes {
		d.AddModel(note.Model())
	}

	var blob string
	if err := db.QueryRow("SELECT models FROM col").Scan(&blob); err != nil {
		return fmt.Errorf("reading models column: %w", err)
	}

	models := make(map[string]json.RawMessage)
	if err := json.Unmarshal([]byte(blob), &models); err != nil {
		return fmt.Errorf("decoding models column: %w", err)
	}

	for id, model := range d.models {
		encoded, err := model.toJSON(timestamp, d.id)
		if err != nil {
			return err
		}
		models[strconv.FormatInt(id, 10)] = encoded
	}

	merged, err := json.Marshal(models)
	if err != nil {
		return fmt.Errorf("encoding models column: %w", err)
	}
	if _, err := db.Exec("UPDATE col SET models = ?", string(merged)); err != nil {
		return fmt.Errorf("updating models column: %w", err)
	}
	return nil
}

// WriteToFile exports this deck alone as a .apkg file.
func (d *Deck) WriteToFile(path string) error {
	return NewPackage([]*Deck{d}).WriteToFile(path)
}
