package anki

// Built-in note types. The model IDs are fixed constants so that re-importing
// a deck updates the existing note types instead of creating new ones.

const defaultCSS = ".card {\n font-family: arial;\n font-size: 20px;\n text-align: center;\n" +
	" color: black;\n background-color: white;\n}\n"

const clozeCSS = defaultCSS +
	"\n.cloze {\n font-weight: bold;\n color: blue;\n}\n.nightMode .cloze {\n color: lightblue;\n}"

// BasicModel is a plain question/answer note type yielding one card.
func BasicModel() *Model {
	return NewModel(
		1559383000,
		"Basic (md2anki)",
		[]Field{
			{Name: "Front", Font: "Arial"},
			{Name: "Back", Font: "Arial"},
		},
		[]Template{
			{
				Name: "Card 1",
				Qfmt: "{{Front}}",
				Afmt: "{{FrontSide}}\n\n<hr id=answer>\n\n{{Back}}",
			},
		},
		WithCSS(defaultCSS),
	)
}

// BasicAndReversedModel yields the forward card plus the swapped one.
func BasicAndReversedModel() *Model {
	return NewModel(
		1485830179,
		"Basic (and reversed card) (md2anki)",
		[]Field{
			{Name: "Front", Font: "Arial"},
			{Name: "Back", Font: "Arial"},
		},
		[]Template{
			{
				Name: "Card 1",
				Qfmt: "{{Front}}",
				Afmt: "{{FrontSide}}\n\n<hr id=answer>\n\n{{Back}}",
			},
			{
				Name: "Card 2",
				Qfmt: "{{Back}}",
				Afmt: "{{FrontSide}}\n\n<hr id=answer>\n\n{{Front}}",
			},
		},
		WithCSS(defaultCSS),
	)
}

// BasicOptionalReversedModel yields the reverse card only when the
// "Add Reverse" field is non-empty.
func BasicOptionalReversedModel() *Model {
	return NewModel(
		1382232460,
		"Basic (optional reversed card) (md2anki)",
		[]Field{
			{Name: "Front", Font: "Arial"},
			{Name: "Back", Font: "Arial"},
			{Name: "Add Reverse", Font: "Arial"},
		},
		[]Template{
			{
				Name: "Card 1",
				Qfmt: "{{Front}}",
				Afmt: "{{FrontSide}}\n\n<hr id=answer>\n\n{{Back}}",
			},
			{
				Name: "Card 2",
				Qfmt: "{{#Add Reverse}}{{Back}}{{/Add Reverse}}",
				Afmt: "{{FrontSide}}\n\n<hr id=answer>\n\n{{Front}}",
			},
		},
		WithCSS(defaultCSS),
	)
}

// BasicTypeInAnswerModel prompts the user to type the back field.
func BasicTypeInAnswerModel() *Model {
	return NewModel(
		1305534440,
		"Basic (type in the answer) (md2anki)",
		[]Field{
			{Name: "Front", Font: "Arial"},
			{Name: "Back", Font: "Arial"},
		},
		[]Template{
			{
				Name: "Card 1",
				Qfmt: "{{Front}}\n\n{{type:Back}}",
				Afmt: "{{Front}}\n\n<hr id=answer>\n\n{{type:Back}}",
			},
		},
		WithCSS(defaultCSS),
	)
}

// ClozeModel yields one card per distinct {{cN::...}} deletion in the Text
// field.
func ClozeModel() *Model {
	return NewModel(
		1550428389,
		"Cloze (md2anki)",
		[]Field{
			{Name: "Text", Font: "Arial"},
			{Name: "Back Extra", Font: "Arial"},
		},
		[]Template{
			{
				Name: "Cloze",
				Qfmt: "{{cloze:Text}}",
				Afmt: "{{cloze:Text}}<br>\n{{Back Extra}}",
			},
		},
		WithCSS(clozeCSS),
		WithModelType(ModelTypeCloze),
	)
}
