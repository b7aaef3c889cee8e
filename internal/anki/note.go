package anki

import (
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kpauljoseph/md2anki/pkg/guid"
	"github.com/kpauljoseph/md2anki/pkg/logger"
)

// Anki separates field values with the unit separator byte in the notes
// table.
const fieldSeparator = "\x1f"

// Note is one flashcard's content bound to a Model. Notes are treated as
// immutable once attached to a deck: the derived card set is computed once
// and cached.
type Note struct {
	model     *Model
	fields    []string
	sortField string
	tags      *TagList
	guid      string
	dueDate   int

	cards []Card
}

// NewNote binds field values and tags to a model. The field values must be
// given in the model's field order; tags must not contain spaces.
func NewNote(model *Model, fields []string, tags ...string) (*Note, error) {
	tagList, err := NewTagList(tags...)
	if err != nil {
		return nil, err
	}
	return &Note{model: model, fields: fields, tags: tagList}, nil
}

func (n *Note) Model() *Model {
	return n.model
}

func (n *Note) Fields() []string {
	return n.fields
}

// Tags exposes the note's tag list for further mutation.
func (n *Note) Tags() *TagList {
	return n.tags
}

// GUID returns the explicit GUID if one was set, otherwise a deterministic
// hash of the field values. Notes with identical fields intentionally share
// a GUID: Anki's importer updates the existing note instead of duplicating
// it.
func (n *Note) GUID() string {
	if n.guid != "" {
		return n.guid
	}
	return guid.GenerateFor(n.fields...)
}

// SetGUID overrides the content-derived GUID.
func (n *Note) SetGUID(g string) {
	n.guid = g
}

// SortField returns the explicit sort field if set, otherwise the field at
// the model's sort field index.
func (n *Note) SortField() string {
	if n.sortField != "" {
		return n.sortField
	}
	if i := n.model.SortFieldIndex(); i < len(n.fields) {
		return n.fields[i]
	}
	return ""
}

func (n *Note) SetSortField(value string) {
	n.sortField = value
}

// SetDueDate sets the due value stored on the note's cards. It is an inert
// placeholder as far as this package is concerned; scheduling is Anki's job.
func (n *Note) SetDueDate(due int) {
	n.dueDate = due
}

// Cards derives which card variants this note yields, purely from the model
// type and the field contents. The result is cached after the first call.
func (n *Note) Cards() ([]Card, error) {
	if n.cards != nil {
		return n.cards, nil
	}

	var (
		cards []Card
		err   error
	)
	switch n.model.Type() {
	case ModelTypeFrontBack:
		cards, err = n.frontBackCards()
	case ModelTypeCloze:
		cards, err = n.clozeCards()
	default:
		err = fmt.Errorf("%w: got %d", ErrUnsupportedModelType, n.model.Type())
	}
	if err != nil {
		return nil, err
	}

	n.cards = cards
	return cards, nil
}

func (n *Note) frontBackCards() ([]Card, error) {
	reqs, err := n.model.Requirements()
	if err != nil {
		return nil, err
	}

	cards := make([]Card, 0, len(reqs))
	for _, req := range reqs {
		if n.satisfies(req) {
			cards = append(cards, Card{Ord: req.TemplateOrd})
		}
	}
	return cards, nil
}

func (n *Note) satisfies(req Requirement) bool {
	if req.Mode == RequireAny {
		for _, ord := range req.FieldOrds {
			if n.fieldFilled(ord) {
				return true
			}
		}
		return false
	}
	for _, ord := range req.FieldOrds {
		if !n.fieldFilled(ord) {
			return false
		}
	}
	return true
}

func (n *Note) fieldFilled(ord int) bool {
	return ord < len(n.fields) && n.fields[ord] != ""
}

// Cloze placeholders come in two syntaxes: {{cloze:Field}} (optionally with
// extra filters before the field name) and the legacy <%cloze:Field%>.
var (
	clozeRefBrace   = regexp.MustCompile(`{{[^}]*?cloze:(?:[^}]?:)*(.+?)}}`)
	clozeRefPercent = regexp.MustCompile(`<%cloze:(.+?)%>`)
	clozeDeletion   = regexp.MustCompile(`{{c(\d+)::.+?}}`)
)

func (n *Note) clozeCards() ([]Card, error) {
	ords := make(map[int]struct{})

	// Collect the fields the first template's front references through a
	// cloze placeholder, then scan those fields' values for {{cN::...}}
	// deletions.
	if templates := n.model.Templates(); len(templates) > 0 {
		qfmt := templates[0].Qfmt
		fieldNames := make(map[string]struct{})
		for _, re := range []*regexp.Regexp{clozeRefBrace, clozeRefPercent} {
			for _, match := range re.FindAllStringSubmatch(qfmt, -1) {
				fieldNames[match[1]] = struct{}{}
			}
		}

		for name := range fieldNames {
			for _, match := range clozeDeletion.FindAllStringSubmatch(n.fieldValueByName(name), -1) {
				num, err := strconv.Atoi(match[1])
				if err == nil && num > 0 {
					ords[num-1] = struct{}{}
				}
			}
		}
	}

	// A cloze note without any deletions still yields one card rather than
	// silently vanishing.
	if len(ords) == 0 {
		ords[0] = struct{}{}
	}

	cards := make([]Card, 0, len(ords))
	for ord := range ords {
		cards = append(cards, Card{Ord: ord})
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].Ord < cards[j].Ord })
	return cards, nil
}

func (n *Note) fieldValueByName(name string) string {
	for i, field := range n.model.Fields() {
		if field.Name == name && i < len(n.fields) {
			return n.fields[i]
		}
	}
	return ""
}

// HTML sanity scan. RE2 has no lookahead, so instead of the classic single
// negative-lookahead pattern the scan collects <...> candidates and drops the
// ones that parse as a plain opening/closing tag, a comment, or a CDATA
// section.
var (
	htmlTagCandidate = regexp.MustCompile(`<[^>]*>`)
	wellFormedTag    = regexp.MustCompile(`^</?[a-zA-Z0-9]+( .*|/?)>$`)
)

func invalidHTMLTags(field string) []string {
	var invalid []string
	for _, candidate := range htmlTagCandidate.FindAllString(field, -1) {
		if wellFormedTag.MatchString(candidate) ||
			strings.HasPrefix(candidate, "<!--") ||
			strings.HasPrefix(candidate, "<![CDATA[") {
			continue
		}
		invalid = append(invalid, candidate)
	}
	return invalid
}

// writeToDB validates the note, inserts its row, and immediately inserts one
// row per derived card. The HTML scan is advisory only: findings are logged
// and the write proceeds.
func (n *Note) writeToDB(db *sql.DB, timestamp, deckID int64, ids *IDGenerator, log *logger.Logger) error {
	if len(n.model.Fields()) != len(n.fields) {
		return fmt.Errorf("%w: model %q has %d fields, note has %d",
			ErrFieldCountMismatch, n.model.Name(), len(n.model.Fields()), len(n.fields))
	}

	for _, field := range n.fields {
		if invalid := invalidHTMLTags(field); len(invalid) > 0 {
			log.Warn("Field contained invalid HTML tags. Make sure your field data is HTML-encoded: %s",
				strings.Join(invalid, " "))
		}
	}

	cards, err := n.Cards()
	if err != nil {
		return err
	}

	noteID := ids.Next()
	_, err = db.Exec("INSERT INTO notes VALUES(?,?,?,?,?,?,?,?,?,?,?)",
		noteID,                               // id
		n.GUID(),                             // guid
		n.model.ID(),                         // mid
		timestamp,                            // mod
		-1,                                   // usn
		n.formatTags(),                       // tags
		strings.Join(n.fields, fieldSeparator), // flds
		n.SortField(),                        // sfld
		0,                                    // csum
		0,                                    // flags
		"",                                   // data
	)
	if err != nil {
		return fmt.Errorf("inserting note %s: %w", n.GUID(), err)
	}

	for _, card := range cards {
		if err := card.writeToDB(db, timestamp, deckID, noteID, ids, n.dueDate); err != nil {
			return err
		}
	}
	return nil
}

// formatTags pads the joined tags with spaces on both sides, matching how
// Anki stores the column.
func (n *Note) formatTags() string {
	return " " + strings.Join(n.tags.Strings(), " ") + " "
}
