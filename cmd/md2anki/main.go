package main

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"sort"

	"github.com/kpauljoseph/md2anki/internal/anki"
	"github.com/kpauljoseph/md2anki/internal/config"
	"github.com/kpauljoseph/md2anki/internal/export"
	"github.com/kpauljoseph/md2anki/pkg/logger"
	"github.com/kpauljoseph/md2anki/pkg/models"
	"github.com/kpauljoseph/md2anki/pkg/utils"
	"github.com/kpauljoseph/md2anki/pkg/version"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	inputPath := flag.String("input", "", "path to generated flashcards JSON")
	outputDir := flag.String("output-dir", "", "directory to write the .apkg file (overrides config)")
	mediaDir := flag.String("media-dir", "", "directory of media files to bundle into the package")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	log := logger.New(logger.WithPrefix("[md2anki] "))
	log.SetVerbose(*verbose)

	if *showVersion {
		log.Info("%s", version.GetVersionInfo())
		return
	}

	if *inputPath == "" {
		log.Fatal("-input is required: a JSON file with a deck_name and flashcards array")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Error loading config: %v", err)
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = utils.GetDefaultOutputDir()
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid config: %v", err)
	}

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatal("Error reading %s: %v", *inputPath, err)
	}

	var gen models.Generation
	if err := json.Unmarshal(data, &gen); err != nil {
		log.Fatal("Error parsing %s: %v", *inputPath, err)
	}
	if gen.DeckName == "" && cfg.DeckName != "" {
		gen.DeckName = cfg.DeckName
	}

	media, err := loadMedia(*mediaDir)
	if err != nil {
		log.Fatal("Error loading media: %v", err)
	}

	builder := export.NewBuilder(log)
	deck := builder.BuildDeck(gen)
	log.Info("Built deck %q with %d notes", deck.Name(), len(deck.Notes()))

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		log.Fatal("Error creating output directory %s: %v", cfg.OutputDir, err)
	}

	outPath := filepath.Join(cfg.OutputDir, export.Filename(gen.DeckName))
	pkg := anki.NewPackage([]*anki.Deck{deck},
		anki.WithMedia(media...),
		anki.WithLogger(log),
	)
	if err := pkg.WriteToFile(outPath); err != nil {
		log.Fatal("Error creating Anki package: %v", err)
	}

	log.Info("Anki package created successfully: %s", outPath)
}

// loadMedia reads every regular file in dir, in name order so the manifest
// indices are stable across runs.
func loadMedia(dir string) ([]anki.MediaFile, error) {
	if dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var media []anki.MediaFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		media = append(media, anki.MediaFile{Name: entry.Name(), Data: data})
	}
	return media, nil
}
