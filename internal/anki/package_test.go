package anki_test

import (
	"archive/zip"
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/md2anki/internal/anki"
	"github.com/kpauljoseph/md2anki/pkg/logger"
)

func readArchive(path string) map[string][]byte {
	r, err := zip.OpenReader(path)
	Expect(err).NotTo(HaveOccurred())
	defer r.Close()

	entries := make(map[string][]byte)
	for _, f := range r.File {
		rc, err := f.Open()
		Expect(err).NotTo(HaveOccurred())
		data, err := io.ReadAll(rc)
		Expect(err).NotTo(HaveOccurred())
		rc.Close()
		entries[f.Name] = data
	}
	return entries
}

func openCollection(tempDir string, raw []byte) *sql.DB {
	dbPath := filepath.Join(tempDir, "extracted.anki2")
	Expect(os.WriteFile(dbPath, raw, 0644)).To(Succeed())

	db, err := sql.Open("sqlite3", dbPath)
	Expect(err).NotTo(HaveOccurred())
	return db
}

var _ = Describe("Package", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "anki-package-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	It("round-trips a basic deck through the collection database", func() {
		deck := anki.NewDeck(123456, "Geography", "capitals of the world")
		note, err := anki.NewNote(anki.BasicModel(), []string{"Capital of France?", "Paris"}, "geo")
		Expect(err).NotTo(HaveOccurred())
		deck.AddNote(note)

		pkg := anki.NewPackage([]*anki.Deck{deck},
			anki.WithTimestamp(time.Unix(1700000000, 0)))

		path := filepath.Join(tempDir, "geography.apkg")
		Expect(pkg.WriteToFile(path)).To(Succeed())

		entries := readArchive(path)
		Expect(entries).To(HaveKey("collection.anki2"))
		Expect(string(entries["media"])).To(Equal("{}"))

		db := openCollection(tempDir, entries["collection.anki2"])
		defer db.Close()

		var noteCount, cardCount int
		Expect(db.QueryRow("SELECT COUNT(*) FROM notes").Scan(&noteCount)).To(Succeed())
		Expect(db.QueryRow("SELECT COUNT(*) FROM cards").Scan(&cardCount)).To(Succeed())
		Expect(noteCount).To(Equal(1))
		Expect(cardCount).To(Equal(1))

		var guid, tags, flds, sfld string
		var usn int
		row := db.QueryRow("SELECT guid, usn, tags, flds, sfld FROM notes")
		Expect(row.Scan(&guid, &usn, &tags, &flds, &sfld)).To(Succeed())
		Expect(guid).To(Equal(note.GUID()))
		Expect(usn).To(Equal(-1))
		Expect(tags).To(Equal(" geo "))
		Expect(flds).To(Equal("Capital of France?\x1fParis"))
		Expect(sfld).To(Equal("Capital of France?"))

		var decksBlob, modelsBlob string
		Expect(db.QueryRow("SELECT decks, models FROM col").Scan(&decksBlob, &modelsBlob)).To(Succeed())

		decks := map[string]json.RawMessage{}
		Expect(json.Unmarshal([]byte(decksBlob), &decks)).To(Succeed())
		Expect(decks).To(HaveKey("123456"))
		Expect(decks).To(HaveKey("1")) // stock default deck survives the merge

		models := map[string]map[string]interface{}{}
		Expect(json.Unmarshal([]byte(modelsBlob), &models)).To(Succeed())
		Expect(models).To(HaveKey("1559383000"))
		Expect(models["1559383000"]["name"]).To(Equal("Basic (md2anki)"))
		Expect(models["1559383000"]["id"]).To(Equal("1559383000"))
	})

	It("writes one card row per derived card", func() {
		deck := anki.NewDeck(234567, "Mixed", "")
		reversed, err := anki.NewNote(anki.BasicAndReversedModel(), []string{"Q", "A"})
		Expect(err).NotTo(HaveOccurred())
		cloze, err := anki.NewNote(anki.ClozeModel(),
			[]string{"{{c1::Paris}} is the capital of {{c2::France}}", ""})
		Expect(err).NotTo(HaveOccurred())
		deck.AddNote(reversed, cloze)

		path := filepath.Join(tempDir, "mixed.apkg")
		Expect(anki.NewPackage([]*anki.Deck{deck}).WriteToFile(path)).To(Succeed())

		db := openCollection(tempDir, readArchive(path)["collection.anki2"])
		defer db.Close()

		var noteCount, cardCount int
		Expect(db.QueryRow("SELECT COUNT(*) FROM notes").Scan(&noteCount)).To(Succeed())
		Expect(db.QueryRow("SELECT COUNT(*) FROM cards").Scan(&cardCount)).To(Succeed())
		Expect(noteCount).To(Equal(2))
		Expect(cardCount).To(Equal(4))
	})

	It("issues globally unique interleaved ids from one generator", func() {
		deck := anki.NewDeck(345678, "IDs", "")
		for _, front := range []string{"a", "b", "c"} {
			note, err := anki.NewNote(anki.BasicAndReversedModel(), []string{front, "back"})
			Expect(err).NotTo(HaveOccurred())
			deck.AddNote(note)
		}

		seed := time.Unix(1700000000, 0)
		path := filepath.Join(tempDir, "ids.apkg")
		pkg := anki.NewPackage([]*anki.Deck{deck}, anki.WithTimestamp(seed))
		Expect(pkg.WriteToFile(path)).To(Succeed())

		db := openCollection(tempDir, readArchive(path)["collection.anki2"])
		defer db.Close()

		rows, err := db.Query("SELECT id FROM notes UNION ALL SELECT id FROM cards ORDER BY id")
		Expect(err).NotTo(HaveOccurred())
		defer rows.Close()

		seen := map[int64]bool{}
		for rows.Next() {
			var id int64
			Expect(rows.Scan(&id)).To(Succeed())
			Expect(seen[id]).To(BeFalse(), "duplicate id %d", id)
			Expect(id).To(BeNumerically(">=", seed.UnixMilli()))
			seen[id] = true
		}
		Expect(rows.Err()).NotTo(HaveOccurred())
		Expect(seen).To(HaveLen(9)) // 3 notes + 6 cards
	})

	It("bundles media files under their positional indices", func() {
		deck := anki.NewDeck(456789, "Media", "")
		note, err := anki.NewNote(anki.BasicModel(), []string{"Q", "A"})
		Expect(err).NotTo(HaveOccurred())
		deck.AddNote(note)

		pkg := anki.NewPackage([]*anki.Deck{deck},
			anki.WithMedia(
				anki.MediaFile{Name: "map.png", Data: []byte{0x89, 0x50}},
				anki.MediaFile{Name: "audio.mp3", Data: []byte{0x49, 0x44}},
			))

		path := filepath.Join(tempDir, "media.apkg")
		Expect(pkg.WriteToFile(path)).To(Succeed())

		entries := readArchive(path)
		Expect(entries["0"]).To(Equal([]byte{0x89, 0x50}))
		Expect(entries["1"]).To(Equal([]byte{0x49, 0x44}))

		manifest := map[string]string{}
		Expect(json.Unmarshal(entries["media"], &manifest)).To(Succeed())
		Expect(manifest).To(Equal(map[string]string{
			"0": "map.png",
			"1": "audio.mp3",
		}))
	})

	It("leaves no partial artifact when a note fails validation", func() {
		deck := anki.NewDeck(567890, "Broken", "")
		note, err := anki.NewNote(anki.BasicModel(), []string{"only one field"})
		Expect(err).NotTo(HaveOccurred())
		deck.AddNote(note)

		path := filepath.Join(tempDir, "broken.apkg")
		err = anki.NewPackage([]*anki.Deck{deck}).WriteToFile(path)
		Expect(err).To(MatchError(anki.ErrFieldCountMismatch))

		_, statErr := os.Stat(path)
		Expect(os.IsNotExist(statErr)).To(BeTrue())
	})

	It("warns about suspicious HTML but still writes the note", func() {
		var logBuf bytes.Buffer
		log := logger.New(logger.WithOutput(&logBuf), logger.WithFlags(0))

		deck := anki.NewDeck(678901, "HTML", "")
		note, err := anki.NewNote(anki.BasicModel(), []string{"1 < 2 <b>bold</b>", "A"})
		Expect(err).NotTo(HaveOccurred())
		deck.AddNote(note)

		path := filepath.Join(tempDir, "html.apkg")
		pkg := anki.NewPackage([]*anki.Deck{deck}, anki.WithLogger(log))
		Expect(pkg.WriteToFile(path)).To(Succeed())

		Expect(logBuf.String()).To(ContainSubstring("WARN"))
		Expect(logBuf.String()).To(ContainSubstring("invalid HTML"))

		db := openCollection(tempDir, readArchive(path)["collection.anki2"])
		defer db.Close()

		var noteCount int
		Expect(db.QueryRow("SELECT COUNT(*) FROM notes").Scan(&noteCount)).To(Succeed())
		Expect(noteCount).To(Equal(1))
	})

	It("does not warn for comments, CDATA sections, or well-formed tags", func() {
		var logBuf bytes.Buffer
		log := logger.New(logger.WithOutput(&logBuf), logger.WithFlags(0))

		deck := anki.NewDeck(678902, "CleanHTML", "")
		note, err := anki.NewNote(anki.BasicModel(),
			[]string{"<!-- note --> <![CDATA[raw]]> <b>bold</b> <br/>", "A"})
		Expect(err).NotTo(HaveOccurred())
		deck.AddNote(note)

		path := filepath.Join(tempDir, "clean-html.apkg")
		pkg := anki.NewPackage([]*anki.Deck{deck}, anki.WithLogger(log))
		Expect(pkg.WriteToFile(path)).To(Succeed())

		Expect(logBuf.String()).NotTo(ContainSubstring("invalid HTML"))
	})

	It("warns when a tag's attributes span a newline", func() {
		var logBuf bytes.Buffer
		log := logger.New(logger.WithOutput(&logBuf), logger.WithFlags(0))

		deck := anki.NewDeck(678903, "NewlineHTML", "")
		note, err := anki.NewNote(anki.BasicModel(), []string{"<b x\ny>split</b>", "A"})
		Expect(err).NotTo(HaveOccurred())
		deck.AddNote(note)

		path := filepath.Join(tempDir, "newline-html.apkg")
		pkg := anki.NewPackage([]*anki.Deck{deck}, anki.WithLogger(log))
		Expect(pkg.WriteToFile(path)).To(Succeed())

		Expect(logBuf.String()).To(ContainSubstring("invalid HTML"))
	})

	It("stores the due date on card rows", func() {
		deck := anki.NewDeck(789012, "Due", "")
		note, err := anki.NewNote(anki.BasicModel(), []string{"Q", "A"})
		Expect(err).NotTo(HaveOccurred())
		note.SetDueDate(5)
		deck.AddNote(note)

		path := filepath.Join(tempDir, "due.apkg")
		Expect(anki.NewPackage([]*anki.Deck{deck}).WriteToFile(path)).To(Succeed())

		db := openCollection(tempDir, readArchive(path)["collection.anki2"])
		defer db.Close()

		var queue, due int
		Expect(db.QueryRow("SELECT queue, due FROM cards").Scan(&queue, &due)).To(Succeed())
		Expect(queue).To(Equal(0))
		Expect(due).To(Equal(5))
	})
})

var _ = Describe("Deck", func() {
	It("exports itself as a single-deck package", func() {
		tempDir, err := os.MkdirTemp("", "anki-deck-test-*")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(tempDir)

		deck := anki.NewDeck(890123, "Solo", "")
		note, err := anki.NewNote(anki.BasicModel(), []string{"Q", "A"})
		Expect(err).NotTo(HaveOccurred())
		deck.AddNote(note)

		path := filepath.Join(tempDir, "solo.apkg")
		Expect(deck.WriteToFile(path)).To(Succeed())

		entries := readArchive(path)
		Expect(entries).To(HaveKey("collection.anki2"))
	})

	It("accumulates models from notes, deduplicated by id", func() {
		tempDir, err := os.MkdirTemp("", "anki-deck-test-*")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(tempDir)

		deck := anki.NewDeck(901234, "Dedup", "")
		model := anki.BasicModel()
		for _, front := range []string{"a", "b"} {
			note, err := anki.NewNote(model, []string{front, "back"})
			Expect(err).NotTo(HaveOccurred())
			deck.AddNote(note)
		}

		path := filepath.Join(tempDir, "dedup.apkg")
		Expect(anki.NewPackage([]*anki.Deck{deck}).WriteToFile(path)).To(Succeed())

		db := openCollection(tempDir, readArchive(path)["collection.anki2"])
		defer db.Close()

		var modelsBlob string
		Expect(db.QueryRow("SELECT models FROM col").Scan(&modelsBlob)).To(Succeed())
		Expect(strings.Count(modelsBlob, `"Basic (md2anki)"`)).To(Equal(1))
	})
})
