package anki

import (
	"database/sql"
	"fmt"
)

// Card is one reviewable instance of a Note for one template ordinal. Cards
// are derived from their owning note and never exist independently of it.
type Card struct {
	Ord     int
	Suspend bool
}

// writeToDB inserts the card row. The scheduling columns (interval, ease
// factor, review counts) are inert placeholders; Anki computes real
// scheduling state after import.
func (c Card) writeToDB(db *sql.DB, timestamp, deckID, noteID int64, ids *IDGenerator, due int) error {
	queue := 0
	if c.Suspend {
		queue = -1
	}

	_, err := db.Exec("INSERT INTO cards VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)",
		ids.Next(), // id
		noteID,     // nid
		deckID,     // did
		c.Ord,      // ord
		timestamp,  // mod
		-1,         // usn
		0,          // type
		queue,      // queue
		due,        // due
		0,          // ivl
		0,          // factor
		0,          // reps
		0,          // lapses
		0,          // left
		0,          // odue
		0,          // odid
		0,          // flags
		"",         // data
	)
	if err != nil {
		return fmt.Errorf("inserting card (note %d, ord %d): %w", noteID, c.Ord, err)
	}
	return nil
}
