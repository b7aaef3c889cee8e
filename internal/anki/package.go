package anki

import (
	"archive/zip"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kpauljoseph/md2anki/pkg/logger"
)

// CollectionFilename is the archive entry holding the collection database.
const CollectionFilename = "collection.anki2"

// MediaFile is one attachment bundled into the package. Name is what Anki
// records in the media manifest; Data is written verbatim under the file's
// positional index.
type MediaFile struct {
	Name string
	Data []byte
}

// Package bundles one or more decks into a single .apkg archive. A package
// build is terminal: the ID sequence spans one write, so a Package is not
// reusable for incremental exports.
type Package struct {
	decks     []*Deck
	media     []MediaFile
	timestamp time.Time
	log       *logger.Logger
}

// PackageOption configures optional Package attributes.
type PackageOption func(*Package)

// WithMedia attaches media files. Each file's archive entry name is its
// zero-based position in the list, matching the media manifest keys.
func WithMedia(files ...MediaFile) PackageOption {
	return func(p *Package) { p.media = append(p.media, files...) }
}

// WithTimestamp pins the modification timestamp and ID seed, for
// reproducible builds. The default is the wall clock at write time.
func WithTimestamp(t time.Time) PackageOption {
	return func(p *Package) { p.timestamp = t }
}

func WithLogger(log *logger.Logger) PackageOption {
	return func(p *Package) { p.log = log }
}

func NewPackage(decks []*Deck, options ...PackageOption) *Package {
	p := &Package{
		decks: decks,
		log:   logger.New(logger.WithOutput(io.Discard)),
	}

	for _, opt := range options {
		opt(p)
	}

	return p
}

// WriteToFile builds the package and writes the archive to path. No partial
// artifact is left behind on failure.
func (p *Package) WriteToFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := p.Write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// Write builds the collection database and zips it together with the media
// manifest into w.
func (p *Package) Write(w io.Writer) error {
	ts := p.timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	tempDir, err := os.MkdirTemp("", "md2anki-pkg-*")
	if err != nil {
		return fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	collection, err := p.buildCollection(filepath.Join(tempDir, CollectionFilename), ts)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)

	entry, err := zw.Create(CollectionFilename)
	if err != nil {
		return fmt.Errorf("creating collection entry: %w", err)
	}
	if _, err := entry.Write(collection); err != nil {
		return fmt.Errorf("writing collection entry: %w", err)
	}

	manifest := make(map[string]string, len(p.media))
	for i, file := range p.media {
		index := strconv.Itoa(i)
		mediaEntry, err := zw.Create(index)
		if err != nil {
			return fmt.Errorf("creating media entry %s: %w", index, err)
		}
		if _, err := mediaEntry.Write(file.Data); err != nil {
			return fmt.Errorf("writing media entry %s: %w", index, err)
		}
		manifest[index] = file.Name
	}

	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("encoding media manifest: %w", err)
	}
	manifestEntry, err := zw.Create("media")
	if err != nil {
		return fmt.Errorf("creating media manifest entry: %w", err)
	}
	if _, err := manifestEntry.Write(manifestJSON); err != nil {
		return fmt.Errorf("writing media manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return nil
}

// buildCollection populates a fresh collection database at dbPath and returns
// its raw bytes. Note/card IDs are seeded from the timestamp in milliseconds;
// the mod columns use seconds, matching Anki.
func (p *Package) buildCollection(dbPath string, ts time.Time) ([]byte, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening collection database: %w", err)
	}

	if err := p.writeToDB(db, ts); err != nil {
		db.Close()
		return nil, err
	}

	if err := db.Close(); err != nil {
		return nil, fmt.Errorf("closing collection database: %w", err)
	}

	raw, err := os.ReadFile(dbPath)
	if err != nil {
		return nil, fmt.Errorf("reading collection database: %w", err)
	}
	return raw, nil
}

func (p *Package) writeToDB(db *sql.DB, ts time.Time) error {
	if _, err := db.Exec(collectionSchemaSQL); err != nil {
		return fmt.Errorf("applying collection schema: %w", err)
	}
	if _, err := db.Exec(collectionInitSQL); err != nil {
		return fmt.Errorf("initializing collection row: %w", err)
	}

	ids := NewIDGenerator(ts.UnixMilli())
	timestamp := ts.Unix()
	for _, deck := range p.decks {
		if err := deck.writeToDB(db, timestamp, ids, p.log); err != nil {
			return err
		}
	}
	return nil
}
