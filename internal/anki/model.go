// Package anki serializes in-memory decks of flashcards into Anki's .apkg
// package format: a zip archive holding a SQLite collection database and a
// media manifest. Schema, column order, and the JSON blobs embedded in the
// col table are an external compatibility contract with Anki's importer;
// deviations make files fail to import without any feedback.
package anki

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cbroglie/mustache"
)

// Model types, matching the values Anki stores in the collection.
const (
	ModelTypeFrontBack = 0
	ModelTypeCloze     = 1
)

// LaTeX wrappers Anki records with every note type.
const (
	DefaultLatexPre = "\\documentclass[12pt]{article}\n\\special{papersize=3in,5in}\n" +
		"\\usepackage[utf8]{inputenc}\n\\usepackage{amssymb,amsmath}\n\\pagestyle{empty}\n" +
		"\\setlength{\\parindent}{0in}\n\\begin{document}\n"
	DefaultLatexPost = "\\end{document}"
)

// Field is one named field of a note type. Styling attributes default to
// Anki's own defaults when left zero.
type Field struct {
	Name   string
	Font   string
	Size   int
	RTL    bool
	Sticky bool
}

// Template is one card template of a note type. Qfmt and Afmt hold the front
// and back templates in Anki's mustache-flavored syntax.
type Template struct {
	Name string
	Qfmt string
	Afmt string
}

// RequirementMode says how the field list of a Requirement must be satisfied
// before the template yields a card.
type RequirementMode string

const (
	RequireAll RequirementMode = "all"
	RequireAny RequirementMode = "any"
)

// Requirement records which fields a template needs filled before it produces
// a card. It serializes as Anki's [ord, mode, fieldOrds] triple.
type Requirement struct {
	TemplateOrd int
	Mode        RequirementMode
	FieldOrds   []int
}

func (r Requirement) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{r.TemplateOrd, r.Mode, r.FieldOrds})
}

// Model is an Anki note type: an ordered field list plus one or more card
// templates. A Model must be treated as immutable once a Note references it;
// the requirement matrix is computed once and cached.
type Model struct {
	id             int64
	name           string
	fields         []Field
	templates      []Template
	css            string
	modelType      int
	latexPre       string
	latexPost      string
	sortFieldIndex int

	req []Requirement
}

// ModelOption configures optional Model attributes.
type ModelOption func(*Model)

func WithCSS(css string) ModelOption {
	return func(m *Model) { m.css = css }
}

func WithModelType(t int) ModelOption {
	return func(m *Model) { m.modelType = t }
}

func WithLatex(pre, post string) ModelOption {
	return func(m *Model) {
		m.latexPre = pre
		m.latexPost = post
	}
}

func WithSortFieldIndex(i int) ModelOption {
	return func(m *Model) { m.sortFieldIndex = i }
}

// NewModel creates a note type. The id must be globally unique and stable
// across runs so Anki recognizes re-imports instead of duplicating the type.
func NewModel(id int64, name string, fields []Field, templates []Template, options ...ModelOption) *Model {
	m := &Model{
		id:        id,
		name:      name,
		fields:    fields,
		templates: templates,
		modelType: ModelTypeFrontBack,
		latexPre:  DefaultLatexPre,
		latexPost: DefaultLatexPost,
	}

	for _, opt := range options {
		opt(m)
	}

	return m
}

func (m *Model) ID() int64 {
	return m.id
}

func (m *Model) Name() string {
	return m.name
}

func (m *Model) Type() int {
	return m.modelType
}

func (m *Model) Fields() []Field {
	return m.fields
}

func (m *Model) Templates() []Template {
	return m.templates
}

func (m *Model) SortFieldIndex() int {
	return m.sortFieldIndex
}

// sentinel is a value that survives template rendering unchanged; its
// presence or absence in the output tells the requirement passes whether a
// field mattered.
const sentinel = "SeNtInEl"

// Requirements reports, per template, which fields must be non-empty for that
// template to produce a card. The result is computed once and cached;
// mutating fields or templates afterwards is unsupported.
func (m *Model) Requirements() ([]Requirement, error) {
	if m.req != nil {
		return m.req, nil
	}

	req := make([]Requirement, 0, len(m.templates))
	for ord, tmpl := range m.templates {
		r, err := m.templateRequirement(ord, tmpl)
		if err != nil {
			return nil, err
		}
		req = append(req, r)
	}

	m.req = req
	return req, nil
}

func (m *Model) templateRequirement(ord int, tmpl Template) (Requirement, error) {
	// First pass: a field is required outright when blanking it alone makes
	// the sentinel disappear from the rendered front.
	var required []int
	for fieldOrd := range m.fields {
		rendered, err := m.renderFront(tmpl, sentinel, fieldOrd, "")
		if err != nil {
			return Requirement{}, err
		}
		if !strings.Contains(rendered, sentinel) {
			required = append(required, fieldOrd)
		}
	}
	if len(required) > 0 {
		return Requirement{TemplateOrd: ord, Mode: RequireAll, FieldOrds: required}, nil
	}

	// Second pass: with everything blank, any single field that brings the
	// sentinel back is sufficient on its own.
	for fieldOrd := range m.fields {
		rendered, err := m.renderFront(tmpl, "", fieldOrd, sentinel)
		if err != nil {
			return Requirement{}, err
		}
		if strings.Contains(rendered, sentinel) {
			required = append(required, fieldOrd)
		}
	}
	if len(required) == 0 {
		return Requirement{}, fmt.Errorf("%w: check the formatting of qfmt %q", ErrUnresolvableTemplate, tmpl.Qfmt)
	}
	return Requirement{TemplateOrd: ord, Mode: RequireAny, FieldOrds: required}, nil
}

// renderFront renders a template's front with every field set to fill except
// the one at testOrd, which gets testValue.
func (m *Model) renderFront(tmpl Template, fill string, testOrd int, testValue string) (string, error) {
	context := make(map[string]string, len(m.fields))
	for i, field := range m.fields {
		if i == testOrd {
			context[field.Name] = testValue
		} else {
			context[field.Name] = fill
		}
	}

	rendered, err := mustache.Render(tmpl.Qfmt, context)
	if err != nil {
		return "", fmt.Errorf("rendering template %q: %w", tmpl.Name, err)
	}
	return rendered, nil
}

type fieldJSON struct {
	Font   string   `json:"font"`
	Media  []string `json:"media"`
	Name   string   `json:"name"`
	Ord    int      `json:"ord"`
	RTL    bool     `json:"rtl"`
	Size   int      `json:"size"`
	Sticky bool     `json:"sticky"`
}

type templateJSON struct {
	Afmt  string      `json:"afmt"`
	Bafmt string      `json:"bafmt"`
	Bfont string      `json:"bfont"`
	Bqfmt string      `json:"bqfmt"`
	Bsize int         `json:"bsize"`
	Did   interface{} `json:"did"`
	Name  string      `json:"name"`
	Ord   int         `json:"ord"`
	Qfmt  string      `json:"qfmt"`
}

type modelJSON struct {
	CSS       string         `json:"css"`
	Did       int64          `json:"did"`
	Flds      []fieldJSON    `json:"flds"`
	ID        string         `json:"id"`
	LatexPost string         `json:"latexPost"`
	LatexPre  string         `json:"latexPre"`
	LatexSVG  bool           `json:"latexsvg"`
	Mod       int64          `json:"mod"`
	Name      string         `json:"name"`
	Req       []Requirement  `json:"req"`
	SortF     int            `json:"sortf"`
	Tags      []string       `json:"tags"`
	Tmpls     []templateJSON `json:"tmpls"`
	Type      int            `json:"type"`
	USN       int            `json:"usn"`
	Vers      []string       `json:"vers"`
}

// toJSON renders the model descriptor Anki stores in the col table's models
// blob. The model ID is serialized as a string key there.
func (m *Model) toJSON(timestamp int64, deckID int64) (json.RawMessage, error) {
	req, err := m.Requirements()
	if err != nil {
		return nil, err
	}

	flds := make([]fieldJSON, len(m.fields))
	for ord, field := range m.fields {
		font := field.Font
		if font == "" {
			font = "Liberation Sans"
		}
		size := field.Size
		if size == 0 {
			size = 20
		}
		flds[ord] = fieldJSON{
			Font:   font,
			Media:  []string{},
			Name:   field.Name,
			Ord:    ord,
			RTL:    field.RTL,
			Size:   size,
			Sticky: field.Sticky,
		}
	}

	tmpls := make([]templateJSON, len(m.templates))
	for ord, tmpl := range m.templates {
		tmpls[ord] = templateJSON{
			Afmt: tmpl.Afmt,
			Name: tmpl.Name,
			Ord:  ord,
			Qfmt: tmpl.Qfmt,
		}
	}

	return json.Marshal(modelJSON{
		CSS:       m.css,
		Did:       deckID,
		Flds:      flds,
		ID:        fmt.Sprintf("%d", m.id),
		LatexPost: m.latexPost,
		LatexPre:  m.latexPre,
		Mod:       timestamp,
		Name:      m.name,
		Req:       req,
		SortF:     m.sortFieldIndex,
		Tags:      []string{},
		Tmpls:     tmpls,
		Type:      m.modelType,
		USN:       -1,
		Vers:      []string{},
	})
}
